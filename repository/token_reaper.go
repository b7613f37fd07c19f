package repository

import (
	"context"
	"go-medstore-api/logger"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type tokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type userPurger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// TokenReaper periodically deletes expired tokens and users whose deletion
// request is older than the grace period. Postgres has no TTL index, so this
// stands in for one.
type TokenReaper struct {
	tokens        tokenPurger
	users         userPurger
	interval      time.Duration
	deletionGrace time.Duration
	now           func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTokenReaper(tokens tokenPurger, users userPurger, interval, deletionGrace time.Duration) *TokenReaper {
	return &TokenReaper{
		tokens:        tokens,
		users:         users,
		interval:      interval,
		deletionGrace: deletionGrace,
		now:           time.Now,
	}
}

// RunOnce performs a single purge pass.
func (r *TokenReaper) RunOnce(ctx context.Context) {
	now := r.now()

	tokens, err := r.tokens.PurgeExpired(ctx, now)
	if err != nil {
		logger.Log.WithError(err).Error("Token reaper failed to purge expired tokens")
	}

	var users int64
	if r.users != nil {
		users, err = r.users.PurgeDeleted(ctx, now.Add(-r.deletionGrace))
		if err != nil {
			logger.Log.WithError(err).Error("Token reaper failed to purge deleted users")
		}
	}

	if tokens > 0 || users > 0 {
		logger.Log.WithFields(logrus.Fields{
			"tokens_purged": tokens,
			"users_purged":  users,
		}).Info("Token reaper pass completed")
	}
}

// Start launches the background loop. Calling Start twice is a no-op.
func (r *TokenReaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (r *TokenReaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
