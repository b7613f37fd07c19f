package service

import (
	"context"
	"errors"
	"go-medstore-api/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	pair  model.TokenPair
	user  *model.User
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context, string) (model.TokenPair, *model.User, error) {
	s.calls++
	return s.pair, s.user, s.err
}

func TestSessionResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("valid access token", func(t *testing.T) {
		clock := newFakeClock()
		codec := newTestCodec(t, clock)
		refresher := &stubRefresher{}
		access, err := codec.Issue(KindAccess, 3, TokenClaims{Role: "admin"})
		require.NoError(t, err)

		res := NewSessionResolver(codec, refresher).Resolve(ctx, access, "")

		assert.Equal(t, OutcomeValid, res.Outcome)
		assert.Equal(t, Identity{UserID: 3, Role: model.RoleAdmin}, res.Identity)
		assert.Equal(t, 0, refresher.calls)
	})

	t.Run("expired access with good refresh cookie", func(t *testing.T) {
		clock := newFakeClock()
		codec := newTestCodec(t, clock)
		pair := model.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}
		refresher := &stubRefresher{pair: pair, user: &model.User{ID: 3, Role: model.RoleUser}}
		access, err := codec.Issue(KindAccess, 3, TokenClaims{Role: "user"})
		require.NoError(t, err)
		clock.Advance(16 * time.Minute)

		res := NewSessionResolver(codec, refresher).Resolve(ctx, access, "old-refresh")

		assert.Equal(t, OutcomeRefreshed, res.Outcome)
		assert.Equal(t, pair, res.Tokens)
		assert.Equal(t, 3, res.Identity.UserID)
	})

	t.Run("expired access without cookie", func(t *testing.T) {
		clock := newFakeClock()
		codec := newTestCodec(t, clock)
		access, err := codec.Issue(KindAccess, 3, TokenClaims{})
		require.NoError(t, err)
		clock.Advance(time.Hour)

		res := NewSessionResolver(codec, &stubRefresher{}).Resolve(ctx, access, "")

		assert.Equal(t, OutcomeRedirect, res.Outcome)
	})

	t.Run("refresh failures", func(t *testing.T) {
		cases := []struct {
			err  error
			want Outcome
		}{
			{ErrRefreshReused, OutcomeRedirect},
			{errors.Join(ErrInvalidToken, ErrTokenExpired), OutcomeRedirect},
			{ErrAccountBlocked, OutcomeRejected},
			{ErrInvalidToken, OutcomeRejected},
		}
		for _, tc := range cases {
			clock := newFakeClock()
			codec := newTestCodec(t, clock)
			access, err := codec.Issue(KindAccess, 3, TokenClaims{})
			require.NoError(t, err)
			clock.Advance(time.Hour)

			res := NewSessionResolver(codec, &stubRefresher{err: tc.err}).Resolve(ctx, access, "cookie")

			assert.Equal(t, tc.want, res.Outcome, tc.err.Error())
			assert.ErrorIs(t, res.Err, tc.err)
		}
	})

	t.Run("tampered access token", func(t *testing.T) {
		clock := newFakeClock()
		codec := newTestCodec(t, clock)
		refresher := &stubRefresher{}
		access, err := codec.Issue(KindAccess, 3, TokenClaims{})
		require.NoError(t, err)

		res := NewSessionResolver(codec, refresher).Resolve(ctx, access+"x", "cookie")

		assert.Equal(t, OutcomeRejected, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrInvalidToken)
		assert.Equal(t, 0, refresher.calls, "an invalid token never triggers a refresh")
	})

	t.Run("missing token", func(t *testing.T) {
		res := NewSessionResolver(newTestCodec(t, newFakeClock()), &stubRefresher{}).Resolve(ctx, "", "cookie")
		assert.Equal(t, OutcomeRejected, res.Outcome)
	})
}
