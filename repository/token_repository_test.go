// file: repository/token_repository_test.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-medstore-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_RotateRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepository(db)

		next := &model.RefreshToken{UserID: 1, TokenHash: "new-hash", ExpiresAt: time.Now().Add(time.Hour)}

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("DELETE FROM refresh_tokens").
			WithArgs("old-hash", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		dbMock.ExpectQuery("INSERT INTO refresh_tokens").
			WithArgs(1, "new-hash", next.ExpiresAt).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(6, time.Now()))
		dbMock.ExpectCommit()

		ok, err := repo.RotateRefresh(ctx, "old-hash", 1, next)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 6, next.ID)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("already consumed", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepository(db)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("DELETE FROM refresh_tokens").
			WithArgs("old-hash", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		dbMock.ExpectRollback()

		ok, err := repo.RotateRefresh(ctx, "old-hash", 1, &model.RefreshToken{UserID: 1, TokenHash: "new-hash"})

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insert fails rolls back", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewTokenRepository(db)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery("DELETE FROM refresh_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		dbMock.ExpectQuery("INSERT INTO refresh_tokens").
			WillReturnError(errors.New("disk full"))
		dbMock.ExpectRollback()

		ok, err := repo.RotateRefresh(ctx, "old-hash", 1, &model.RefreshToken{UserID: 1, TokenHash: "new-hash"})

		assert.Error(t, err)
		assert.False(t, ok)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTokenRepository_ConsumeVerificationTx(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepository(db)
	ctx := context.Background()

	dbMock.ExpectBegin()
	dbMock.ExpectExec("DELETE FROM verification_tokens WHERE token_hash").
		WithArgs("nonce-hash", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectExec("DELETE FROM verification_tokens WHERE token_hash").
		WithArgs("nonce-hash", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	dbMock.ExpectExec("DELETE FROM verification_tokens WHERE user_id").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	dbMock.ExpectCommit()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	first, err := repo.ConsumeVerificationTx(ctx, tx, "nonce-hash", 3)
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := repo.ConsumeVerificationTx(ctx, tx, "nonce-hash", 3)
	assert.NoError(t, err)
	assert.False(t, second, "a verification token can only be consumed once")

	assert.NoError(t, repo.DeleteVerificationsTx(ctx, tx, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_FindAndDeleteRefresh(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepository(db)
	ctx := context.Background()

	expires := time.Now().Add(time.Hour)
	dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("live-hash", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow(11, 2, "live-hash", expires, time.Now()))
	dbMock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("gone-hash", 2).
		WillReturnError(sql.ErrNoRows)
	dbMock.ExpectExec("DELETE FROM refresh_tokens WHERE token_hash").
		WithArgs("live-hash", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectExec("DELETE FROM refresh_tokens WHERE token_hash").
		WithArgs("live-hash", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	token, err := repo.FindRefresh(ctx, "live-hash", 2)
	require.NoError(t, err)
	assert.Equal(t, 11, token.ID)

	_, err = repo.FindRefresh(ctx, "gone-hash", 2)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	deleted, err := repo.DeleteRefresh(ctx, "live-hash", 2)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteRefresh(ctx, "live-hash", 2)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTokenRepository_PurgeExpired(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepository(db)

	now := time.Now()
	dbMock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 4))
	dbMock.ExpectExec("DELETE FROM verification_tokens WHERE expires_at").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.PurgeExpired(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

type fakePurger struct {
	tokenCalls int
	userCalls  int
	before     time.Time
}

func (f *fakePurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	f.tokenCalls++
	return 1, nil
}

func (f *fakePurger) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	f.userCalls++
	f.before = before
	return 0, nil
}

func TestTokenReaper_RunOnceUsesGracePeriod(t *testing.T) {
	purger := &fakePurger{}
	reaper := NewTokenReaper(purger, purger, time.Minute, 30*24*time.Hour)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	reaper.now = func() time.Time { return now }

	reaper.RunOnce(context.Background())

	assert.Equal(t, 1, purger.tokenCalls)
	assert.Equal(t, 1, purger.userCalls)
	assert.Equal(t, now.Add(-30*24*time.Hour), purger.before)
}

func TestTokenReaper_StartStop(t *testing.T) {
	purger := &fakePurger{}
	reaper := NewTokenReaper(purger, nil, time.Hour, time.Hour)

	reaper.Start(context.Background())
	reaper.Start(context.Background())
	reaper.Stop()
	reaper.Stop()

	// The first pass runs immediately on Start.
	assert.Equal(t, 1, purger.tokenCalls)
	assert.Equal(t, 0, purger.userCalls)
}
