package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
	"github.com/entrealas/orderdesk/pkg/logger"
	"github.com/entrealas/orderdesk/pkg/metrics"
)

// DefaultIdleTTL bounds how long an untouched session is kept.
const DefaultIdleTTL = 2 * time.Hour

// Registry holds live sessions by id. Sessions never touch the registry, so
// registry then session is the only lock order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	idleTTL  time.Duration
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
		idleTTL:  idleTTL,
		metrics:  deps.Metrics,
		logg:     logg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create starts a new empty session.
func (r *Registry) Create() *Session {
	s := New(r.newID(), r.deps)
	s.now = r.now
	s.lastActivity = r.now()

	r.mu.Lock()
	r.sessions[s.id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	return s
}

// Get returns the session or a NotFound error.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return s, nil
}

// Delete closes and forgets the session. Unknown ids report false.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		s.Close()
		r.metrics.SetActiveSessions(n)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{"evicted": len(evicted), "active": n}), "sessions.swept")
	}
	r.metrics.SetActiveSessions(n)
	return len(evicted)
}

// Run sweeps on every interval tick until ctx is canceled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
