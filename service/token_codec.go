package service

import (
	"errors"
	"fmt"
	"go-medstore-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects the secret and lifetime used to sign a token.
type TokenKind string

const (
	KindAccess       TokenKind = "access"
	KindRefresh      TokenKind = "refresh"
	KindVerification TokenKind = "verification"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenSpec is the signing configuration of one token kind.
type TokenSpec struct {
	Secret []byte
	TTL    time.Duration
}

// TokenClaims carries the optional claims beyond the subject.
type TokenClaims struct {
	Role  string
	Nonce string
}

// TokenCodec signs and verifies HS256 tokens, one secret and lifetime per kind.
type TokenCodec struct {
	specs map[TokenKind]TokenSpec
	now   func() time.Time
}

func NewTokenCodec(specs map[TokenKind]TokenSpec) (*TokenCodec, error) {
	for _, kind := range []TokenKind{KindAccess, KindRefresh, KindVerification} {
		spec, ok := specs[kind]
		if !ok {
			return nil, fmt.Errorf("missing token spec for kind %q", kind)
		}
		if len(spec.Secret) == 0 {
			return nil, fmt.Errorf("empty secret for token kind %q", kind)
		}
		if spec.TTL <= 0 {
			return nil, fmt.Errorf("non-positive ttl for token kind %q", kind)
		}
	}
	return &TokenCodec{specs: specs, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	return &TokenCodec{specs: c.specs, now: now}
}

// TTL returns the fixed lifetime of kind.
func (c *TokenCodec) TTL(kind TokenKind) time.Duration {
	return c.specs[kind].TTL
}

// Issue signs a token of the given kind for userID.
func (c *TokenCodec) Issue(kind TokenKind, userID int, extra TokenClaims) (string, error) {
	spec, ok := c.specs[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	issuedAt := c.now()
	claims := &model.AppClaims{
		UserID: userID,
		Kind:   string(kind),
		Role:   extra.Role,
		Nonce:  extra.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(spec.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(spec.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and kind. Expired tokens yield
// ErrTokenExpired, every other failure ErrTokenInvalid.
func (c *TokenCodec) Verify(kind TokenKind, tokenString string) (*model.AppClaims, error) {
	spec, ok := c.specs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrTokenInvalid, kind)
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return spec.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Kind != string(kind) || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
