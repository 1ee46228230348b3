package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ProcessLocker serializes a collection across processes sharing one
// backend. The returned func releases the lock.
type ProcessLocker interface {
	Lock(ctx context.Context, collection string) (func(), error)
}

// LockManager owns one mutex per collection name. Mutexes are created on first
// use under a short-lived guard lock and are never removed.
type LockManager struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	locker ProcessLocker
}

type LockOption func(*LockManager)

// WithFileLocks additionally takes an flock on dir/<collection>.lock while the
// mutex is held, serializing separate processes that share one data directory.
func WithFileLocks(dir string) LockOption {
	return WithProcessLocks(fileLocker{dir: dir})
}

// WithProcessLocks takes l's lock after the collection mutex.
func WithProcessLocks(l ProcessLocker) LockOption {
	return func(m *LockManager) {
		m.locker = l
	}
}

func NewLockManager(opts ...LockOption) *LockManager {
	m := &LockManager{
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *LockManager) mutex(collection string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	mu, ok := m.locks[collection]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[collection] = mu
	}
	return mu
}

// Lock blocks until the collection is held and returns the release func.
func (m *LockManager) Lock(ctx context.Context, collection string) (func(), error) {
	mu := m.mutex(collection)
	mu.Lock()

	if m.locker == nil {
		return mu.Unlock, nil
	}

	release, err := m.locker.Lock(ctx, collection)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	return func() {
		release()
		mu.Unlock()
	}, nil
}

type fileLocker struct {
	dir string
}

func (l fileLocker) Lock(ctx context.Context, collection string) (func(), error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}

	lockPath := filepath.Join(l.dir, collection+".lock")
	fileLock := flock.New(lockPath)
	ok, err := fileLock.TryLockContext(ctx, 10*time.Millisecond)
	if !ok {
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("could not acquire flock for %v: %w", lockPath, err)
	}

	return func() {
		_ = fileLock.Close()
	}, nil
}
