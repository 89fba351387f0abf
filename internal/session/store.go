package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
)

// DefaultIdleTimeout is how long an untouched page session is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Store holds page sessions in memory. Nothing outlives the process.
type Store struct {
	mu          sync.Mutex
	pages       map[string]*Page
	client      analyzer.Client
	idleTimeout time.Duration
	log         *logger.Logger
	now         func() time.Time
}

// NewStore creates an empty Store. A non-positive idleTimeout uses
// DefaultIdleTimeout.
func NewStore(client analyzer.Client, idleTimeout time.Duration, log *logger.Logger) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		pages:       make(map[string]*Page),
		client:      client,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
	}
}

// Create starts a new, empty page session.
func (s *Store) Create() *Page {
	id := uuid.New().String()
	page := newPage(id, s.client, s.log)

	s.mu.Lock()
	s.pages[id] = page
	s.mu.Unlock()

	s.log.Debug("Page session created", map[string]interface{}{"session_id": id})
	return page
}

// Get returns the session with id and marks it as used.
func (s *Store) Get(id string) (*Page, bool) {
	s.mu.Lock()
	page, ok := s.pages[id]
	s.mu.Unlock()

	if ok {
		page.touch(s.now())
	}
	return page, ok
}

// GetOrCreate returns the session with id, or a new one if it is unknown.
func (s *Store) GetOrCreate(id string) (*Page, bool) {
	if id != "" {
		if page, ok := s.Get(id); ok {
			return page, false
		}
	}
	return s.Create(), true
}

// Delete drops a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.pages, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Sweep removes sessions idle for longer than the timeout. Sessions with a
// request in flight are kept.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, page := range s.pages {
		if page.busy() || page.idleSince(now) <= s.idleTimeout {
			continue
		}
		delete(s.pages, id)
		removed++
	}

	if removed > 0 {
		s.log.Debug("Expired page sessions removed", map[string]interface{}{
			"removed":   removed,
			"remaining": len(s.pages),
		})
	}
	return removed
}

// Run sweeps expired sessions until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.idleTimeout / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
