// Package session keeps per-page upload state in memory.
package session

import (
	"sync"
	"time"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
	"github.com/stwalsh4118/property-analyzer/internal/presenter"
	"github.com/stwalsh4118/property-analyzer/internal/uploader"
)

// Page is one page session: it owns loading, error and the current record,
// and hands the uploader its setters.
type Page struct {
	ID string

	mu       sync.RWMutex
	loading  bool
	err      string
	record   models.PropertyRecord
	lastSeen time.Time

	Uploader *uploader.Controller
}

func newPage(id string, client analyzer.Client, log *logger.Logger) *Page {
	p := &Page{
		ID:       id,
		lastSeen: time.Now(),
	}
	p.Uploader = uploader.New(client, uploader.Hooks{
		SetLoading:      p.setLoading,
		SetError:        p.setError,
		OnUploadSuccess: p.handleUploadSuccess,
	}, log.With(map[string]interface{}{"session_id": id}))
	return p
}

// setLoading discards the previous record when a new upload starts.
func (p *Page) setLoading(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loading = v
	if v {
		p.record = nil
	}
}

func (p *Page) setError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = msg
}

func (p *Page) handleUploadSuccess(record models.PropertyRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record = record
	p.loading = false
}

// State returns the page state for rendering.
func (p *Page) State() presenter.PageState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return presenter.PageState{
		Loading: p.loading,
		Error:   p.err,
		Record:  p.record,
	}
}

// Record returns the current record, or nil.
func (p *Page) Record() models.PropertyRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.record
}

func (p *Page) touch(now time.Time) {
	p.mu.Lock()
	p.lastSeen = now
	p.mu.Unlock()
}

func (p *Page) idleSince(now time.Time) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return now.Sub(p.lastSeen)
}

func (p *Page) busy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}
