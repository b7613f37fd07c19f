package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/logger"
	"go-medstore-api/mailer"
	"go-medstore-api/model"
	"go-medstore-api/repository"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthOptions configures the parts of AuthService that are not dependencies.
type AuthOptions struct {
	FrontendURL          string
	VerificationTemplate string
	BcryptCost           int
}

// AuthService handles registration, email verification, login and the
// refresh-token exchange.
type AuthService struct {
	db        *sql.DB
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	codec     *TokenCodec
	mailer    mailer.Sender
	opts      AuthOptions
	now       func() time.Time
}

func NewAuthService(db *sql.DB, userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository, codec *TokenCodec, sender mailer.Sender, opts AuthOptions) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		codec:     codec,
		mailer:    sender,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewCSRFToken returns a random token for the double-submit csrf cookie.
func NewCSRFToken() string {
	return uuid.NewString()
}

// Register creates an unverified user and mails a verification link. The user
// row, the verification token and the mail dispatch succeed or fail together.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	log := logger.Log.WithField("email", req.Email)

	if _, err := s.userRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashed,
		AadharNo:  req.AadharNo,
		LicenseNo: req.LicenseNo,
		GSTNo:     req.GSTNo,
		MobileNo:  req.MobileNo,
		Image:     req.Image,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.CreateUserTx(ctx, tx, user); err != nil {
		if conflict := conflictFrom(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	nonce := uuid.NewString()
	record := &model.VerificationToken{
		UserID:    user.ID,
		TokenHash: hashSecret(nonce),
		ExpiresAt: s.now().Add(s.codec.TTL(KindVerification)),
	}
	if err := s.tokenRepo.CreateVerificationTx(ctx, tx, record); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(KindVerification, user.ID, TokenClaims{Nonce: nonce})
	if err != nil {
		return nil, err
	}

	verificationURL := strings.TrimRight(s.opts.FrontendURL, "/") + "/authentication/register?token=" + url.QueryEscape(token)
	params := map[string]interface{}{
		"name":            user.Name,
		"verificationUrl": verificationURL,
		"email":           user.Email,
	}
	if err := s.mailer.Send(ctx, s.opts.VerificationTemplate, params); err != nil {
		log.WithError(err).Error("Failed to send verification mail, rolling back registration")
		return nil, fmt.Errorf("%w: %v", ErrMailDispatch, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered, verification mail sent")
	return user, nil
}

// VerifyEmail consumes a verification token, marks the user verified and opens a session.
// Consuming the token and marking the user commit together, so a failure leaves the link usable.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, model.TokenPair, error) {
	claims, err := s.codec.Verify(KindVerification, token)
	if err != nil {
		return nil, model.TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	log := logger.Log.WithField("user_id", claims.UserID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.TokenPair{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	consumed, err := s.tokenRepo.ConsumeVerificationTx(ctx, tx, hashSecret(claims.Nonce), claims.UserID)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	if !consumed {
		return nil, model.TokenPair{}, ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByIDForUpdate(ctx, tx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.TokenPair{}, ErrUserNotFound
		}
		return nil, model.TokenPair{}, err
	}
	if user.Role == model.RoleBlocked {
		log.Warn("Email verification refused: account blocked")
		return nil, model.TokenPair{}, ErrAccountBlocked
	}

	if err := s.userRepo.MarkVerifiedTx(ctx, tx, user.ID); err != nil {
		return nil, model.TokenPair{}, err
	}
	if err := s.tokenRepo.DeleteVerificationsTx(ctx, tx, user.ID); err != nil {
		return nil, model.TokenPair{}, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.TokenPair{}, fmt.Errorf("could not commit transaction: %w", err)
	}
	user.IsVerified = true

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	log.Info("Email verified")
	return user, pair, nil
}

// Login checks credentials and issues an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, model.TokenPair, error) {
	log := logger.Log.WithField("email", email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.TokenPair{}, ErrUserNotFound
		}
		return nil, model.TokenPair{}, err
	}

	if !s.CheckPasswordHash(password, user.Password) {
		log.Warn("Login failed: invalid credentials")
		return nil, model.TokenPair{}, ErrInvalidCredentials
	}
	if user.Role == model.RoleBlocked {
		log.Warn("Login refused: account blocked")
		return nil, model.TokenPair{}, ErrAccountBlocked
	}
	if !user.IsVerified {
		return nil, model.TokenPair{}, ErrEmailNotVerified
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	log.WithField("user_id", user.ID).Info("Login successful")
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed in the same transaction that stores its replacement, so a token
// can succeed at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, *model.User, error) {
	claims, err := s.codec.Verify(KindRefresh, refreshToken)
	if err != nil {
		return model.TokenPair{}, nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	log := logger.Log.WithField("user_id", claims.UserID)

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TokenPair{}, nil, ErrInvalidToken
		}
		return model.TokenPair{}, nil, err
	}
	if user.Role == model.RoleBlocked {
		return model.TokenPair{}, nil, ErrAccountBlocked
	}

	access, err := s.codec.Issue(KindAccess, user.ID, TokenClaims{Role: string(user.Role)})
	if err != nil {
		return model.TokenPair{}, nil, err
	}
	refresh, err := s.codec.Issue(KindRefresh, user.ID, TokenClaims{})
	if err != nil {
		return model.TokenPair{}, nil, err
	}

	next := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashSecret(refresh),
		ExpiresAt: s.now().Add(s.codec.TTL(KindRefresh)),
	}
	rotated, err := s.tokenRepo.RotateRefresh(ctx, hashSecret(refreshToken), user.ID, next)
	if err != nil {
		return model.TokenPair{}, nil, err
	}
	if !rotated {
		log.Warn("Refresh token reuse rejected")
		return model.TokenPair{}, nil, ErrRefreshReused
	}

	log.Info("Token pair refreshed")
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Logout revokes every refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.tokenRepo.DeleteByUserID(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *model.User) (model.TokenPair, error) {
	access, err := s.codec.Issue(KindAccess, user.ID, TokenClaims{Role: string(user.Role)})
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.codec.Issue(KindRefresh, user.ID, TokenClaims{})
	if err != nil {
		return model.TokenPair{}, err
	}

	record := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashSecret(refresh),
		ExpiresAt: s.now().Add(s.codec.TTL(KindRefresh)),
	}
	if err := s.tokenRepo.CreateRefresh(ctx, record); err != nil {
		return model.TokenPair{}, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":            user.ID,
		"refresh_expires_at": record.ExpiresAt,
	}).Debug("Session issued")
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
