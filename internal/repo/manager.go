package repo

import (
	"context"
	"sync"
	"time"
)

const connectTimeout = 10 * time.Second

// DialFunc establishes the underlying connection. Tests swap it out.
type DialFunc func(ctx context.Context) (*Store, error)

// Manager memoizes one Store per process. Request handlers call Connect
// on every operation, the way serverless code re-enters its module scope
// on every invocation; only the first call actually dials. Concurrent
// calls while the dial is in flight share its outcome, and a failed dial
// is not cached — the next call starts a fresh attempt.
type Manager struct {
	mu      sync.Mutex
	uri     string
	dial    DialFunc
	store   *Store
	pending *attempt
}

type attempt struct {
	done  chan struct{}
	store *Store
	err   error
}

// NewManager builds a manager for uri. A nil dial uses NewStore against
// the fixed DBName database.
func NewManager(uri string, dial DialFunc) *Manager {
	m := &Manager{uri: uri, dial: dial}
	if m.dial == nil {
		m.dial = func(ctx context.Context) (*Store, error) {
			return NewStore(ctx, uri, DBName)
		}
	}
	return m
}

// Connect returns the live Store, joining an in-flight dial if one
// exists. ctx only bounds this caller's wait: the shared dial runs on
// its own timeout so one impatient caller cannot fail everybody else's
// attempt.
func (m *Manager) Connect(ctx context.Context) (*Store, error) {
	m.mu.Lock()
	if m.store != nil {
		s := m.store
		m.mu.Unlock()
		return s, nil
	}
	if m.uri == "" {
		m.mu.Unlock()
		return nil, ErrMissingMongoURI
	}
	a := m.pending
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		m.pending = a
		go m.run(a)
	}
	m.mu.Unlock()

	select {
	case <-a.done:
		return a.store, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) run(a *attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	s, err := m.dial(ctx)

	m.mu.Lock()
	if err == nil {
		m.store = s
	}
	m.pending = nil
	m.mu.Unlock()

	a.store, a.err = s, err
	close(a.done)
}
