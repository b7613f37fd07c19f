package service

import (
	"context"
	"database/sql"
	"go-medstore-api/model"
	"time"

	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUserTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserForUpdate(ctx context.Context, tx *sql.Tx, email string) (*model.User, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*model.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateOTPState(ctx context.Context, tx *sql.Tx, user *model.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateProfileTx(ctx context.Context, tx *sql.Tx, user *model.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *mockUserRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, id int) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, tx *sql.Tx, id int, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) RequestDeletion(ctx context.Context, tx *sql.Tx, id int, at time.Time) error {
	args := m.Called(ctx, tx, id, at)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateUserRole(ctx context.Context, id int, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockUserRepo) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) CreateRefresh(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepo) FindRefresh(ctx context.Context, tokenHash string, userID int) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *mockTokenRepo) DeleteRefresh(ctx context.Context, tokenHash string, userID int) (bool, error) {
	args := m.Called(ctx, tokenHash, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) RotateRefresh(ctx context.Context, oldHash string, userID int, next *model.RefreshToken) (bool, error) {
	args := m.Called(ctx, oldHash, userID, next)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockTokenRepo) CreateVerificationTx(ctx context.Context, tx *sql.Tx, token *model.VerificationToken) error {
	args := m.Called(ctx, tx, token)
	return args.Error(0)
}

func (m *mockTokenRepo) ConsumeVerificationTx(ctx context.Context, tx *sql.Tx, tokenHash string, userID int) (bool, error) {
	args := m.Called(ctx, tx, tokenHash, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) DeleteVerificationsTx(ctx context.Context, tx *sql.Tx, userID int) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func (m *mockTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// recordingMailer captures the last message instead of sending it.
type recordingMailer struct {
	err      error
	calls    int
	template string
	params   map[string]interface{}
}

func (m *recordingMailer) Send(_ context.Context, templateID string, params map[string]interface{}) error {
	m.calls++
	m.template = templateID
	m.params = params
	return m.err
}
