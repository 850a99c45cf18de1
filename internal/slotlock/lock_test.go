package slotlock

import (
	apperrors "canchas/pkg/errors"
	"canchas/pkg/logger"
	"canchas/pkg/model"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository mimics the unique _id index of the lock collection.
type memoryRepository struct {
	mu        sync.Mutex
	locks     map[string]model.SlotLock
	insertErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{locks: make(map[string]model.SlotLock)}
}

func (m *memoryRepository) Insert(ctx context.Context, lock *model.SlotLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.locks[lock.ID]; ok {
		return fmt.Errorf("%w: %s", ErrLocked, lock.ID)
	}
	m.locks[lock.ID] = *lock
	return nil
}

func (m *memoryRepository) DeleteOwned(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[id]; ok && l.Owner == owner {
		delete(m.locks, id)
	}
	return nil
}

func (m *memoryRepository) DeleteExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[id]; ok && !l.ExpiresAt.After(now) {
		delete(m.locks, id)
		return true, nil
	}
	return false, nil
}

func testOptions() Options {
	return Options{TTL: time.Minute, Attempts: 3, RetryDelay: time.Millisecond}
}

func TestAcquire_AndRelease(t *testing.T) {
	repo := newMemoryRepository()
	locker := NewLocker(repo, testOptions(), logger.Discard())

	release, err := locker.Acquire(context.Background(), CourtKey("c1"))
	require.NoError(t, err)
	assert.Contains(t, repo.locks, "court:c1")

	release()
	assert.NotContains(t, repo.locks, "court:c1")
}

func TestAcquire_ContentionGivesConflict(t *testing.T) {
	repo := newMemoryRepository()
	locker := NewLocker(repo, testOptions(), logger.Discard())

	release, err := locker.Acquire(context.Background(), VenueKey("v1"))
	require.NoError(t, err)
	defer release()

	_, err = locker.Acquire(context.Background(), VenueKey("v1"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	repo := newMemoryRepository()
	locker := NewLocker(repo, Options{TTL: time.Minute, Attempts: 50, RetryDelay: 5 * time.Millisecond}, logger.Discard())

	release, err := locker.Acquire(context.Background(), CourtKey("c1"))
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	second, err := locker.Acquire(context.Background(), CourtKey("c1"))
	require.NoError(t, err)
	second()
}

func TestAcquire_TakesOverExpiredLock(t *testing.T) {
	repo := newMemoryRepository()
	repo.locks["court:c1"] = model.SlotLock{ID: "court:c1", Owner: "dead", ExpiresAt: time.Now().Add(-time.Second)}

	locker := NewLocker(repo, Options{TTL: time.Minute, Attempts: 2, RetryDelay: time.Millisecond}, logger.Discard())

	release, err := locker.Acquire(context.Background(), CourtKey("c1"))
	require.NoError(t, err)
	assert.NotEqual(t, "dead", repo.locks["court:c1"].Owner)
	release()
}

func TestAcquire_TakesOverExpiredLockOnLastAttempt(t *testing.T) {
	repo := newMemoryRepository()
	repo.locks["venue:v1"] = model.SlotLock{ID: "venue:v1", Owner: "dead", ExpiresAt: time.Now().Add(-time.Second)}

	locker := NewLocker(repo, Options{TTL: time.Minute, Attempts: 1, RetryDelay: time.Millisecond}, logger.Discard())

	release, err := locker.Acquire(context.Background(), VenueKey("v1"))
	require.NoError(t, err)
	assert.NotEqual(t, "dead", repo.locks["venue:v1"].Owner)
	release()
	assert.NotContains(t, repo.locks, "venue:v1")
}

func TestAcquire_ReleaseKeepsForeignLock(t *testing.T) {
	repo := newMemoryRepository()
	locker := NewLocker(repo, testOptions(), logger.Discard())

	release, err := locker.Acquire(context.Background(), CourtKey("c1"))
	require.NoError(t, err)

	// Simulate expiry and takeover by another instance.
	repo.locks["court:c1"] = model.SlotLock{ID: "court:c1", Owner: "other", ExpiresAt: time.Now().Add(time.Minute)}
	release()

	assert.Equal(t, "other", repo.locks["court:c1"].Owner)
}

func TestAcquire_StoreFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.insertErr = errors.New("connection reset")
	locker := NewLocker(repo, testOptions(), logger.Discard())

	_, err := locker.Acquire(context.Background(), CourtKey("c1"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
