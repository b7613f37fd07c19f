package service

import (
	"context"
	"errors"
	"go-medstore-api/model"
)

// Outcome is the decision taken for a request's credentials.
type Outcome int

const (
	// OutcomeRejected ends the request with an error status.
	OutcomeRejected Outcome = iota
	// OutcomeValid lets the request through unchanged.
	OutcomeValid
	// OutcomeRefreshed lets the request through and hands a new pair to the client.
	OutcomeRefreshed
	// OutcomeRedirect sends the client back to the login page.
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "rejected"
	}
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID int
	Role   model.Role
}

// SessionResult is what Resolve decided. Tokens is set only for
// OutcomeRefreshed and Err only for OutcomeRejected and OutcomeRedirect.
type SessionResult struct {
	Outcome  Outcome
	Identity Identity
	Tokens   model.TokenPair
	Err      error
}

type refresher interface {
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, *model.User, error)
}

// SessionResolver turns an access token and an optional refresh cookie into a
// session decision, refreshing transparently when the access token expired.
type SessionResolver struct {
	codec     *TokenCodec
	refresher refresher
}

func NewSessionResolver(codec *TokenCodec, refresher refresher) *SessionResolver {
	return &SessionResolver{codec: codec, refresher: refresher}
}

func (r *SessionResolver) Resolve(ctx context.Context, accessToken, refreshToken string) SessionResult {
	if accessToken == "" {
		return SessionResult{Outcome: OutcomeRejected, Err: ErrInvalidToken}
	}

	claims, err := r.codec.Verify(KindAccess, accessToken)
	if err == nil {
		return SessionResult{
			Outcome:  OutcomeValid,
			Identity: Identity{UserID: claims.UserID, Role: model.Role(claims.Role)},
		}
	}
	if !errors.Is(err, ErrTokenExpired) {
		return SessionResult{Outcome: OutcomeRejected, Err: ErrInvalidToken}
	}

	if refreshToken == "" {
		return SessionResult{Outcome: OutcomeRedirect, Err: ErrTokenExpired}
	}

	pair, user, err := r.refresher.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
		return SessionResult{
			Outcome:  OutcomeRefreshed,
			Identity: Identity{UserID: user.ID, Role: user.Role},
			Tokens:   pair,
		}
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshReused):
		return SessionResult{Outcome: OutcomeRedirect, Err: err}
	default:
		return SessionResult{Outcome: OutcomeRejected, Err: err}
	}
}
