// Package slotlock serializes writes to one court or venue calendar across
// service instances using advisory lock documents.
package slotlock

import (
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const releaseTimeout = 5 * time.Second

type Locker interface {
	// Acquire blocks until key is held or retries run out. The returned
	// release func must always be called.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Options struct {
	TTL        time.Duration
	Attempts   int
	RetryDelay time.Duration
}

type mongoLocker struct {
	repo Repository
	opts Options
	log  *logger.Logger
	now  func() time.Time
}

func NewLocker(repo Repository, opts Options, log *logger.Logger) Locker {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &mongoLocker{
		repo: repo,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

func CourtKey(courtID string) string {
	return "court:" + courtID
}

func VenueKey(venueID string) string {
	return "venue:" + venueID
}

func (l *mongoLocker) Acquire(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()

	for attempt := 1; attempt <= l.opts.Attempts; attempt++ {
		now := l.now().UTC()
		acquired, err := l.tryInsert(ctx, key, owner, now)
		if err != nil {
			return nil, err
		}

		// A cleared expired lock is retried at once and does not use up an attempt.
		if !acquired {
			cleared, err := l.repo.DeleteExpired(ctx, key, now)
			if err != nil {
				l.log.Warn("Failed to clear expired slot lock", "key", key, "error", err)
			}
			if cleared {
				if acquired, err = l.tryInsert(ctx, key, owner, now); err != nil {
					return nil, err
				}
			}
		}
		if acquired {
			return l.releaseFunc(ctx, key, owner), nil
		}

		if attempt == l.opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperrors.Timeout("Timed out waiting for the slot lock")
		case <-time.After(l.opts.RetryDelay):
		}
	}

	l.log.Warn("Slot lock contention", "key", key, "attempts", l.opts.Attempts)
	return nil, apperrors.Conflict("This slot is being booked by another request. Please try again.")
}

// tryInsert reports false without error when another owner holds key.
func (l *mongoLocker) tryInsert(ctx context.Context, key, owner string, now time.Time) (bool, error) {
	err := l.repo.Insert(ctx, &model.SlotLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(l.opts.TTL),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrLocked):
		return false, nil
	}
	return false, apperrors.Internal("Failed to acquire slot lock", err)
}

func (l *mongoLocker) releaseFunc(ctx context.Context, key, owner string) func() {
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()

		if err := l.repo.DeleteOwned(releaseCtx, key, owner); err != nil {
			l.log.Warn("Failed to release slot lock", "key", key, "error", err)
		}
	}
}
