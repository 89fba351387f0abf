package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
	"github.com/stwalsh4118/property-analyzer/internal/presenter"
	"github.com/stwalsh4118/property-analyzer/internal/session"
	"github.com/stwalsh4118/property-analyzer/internal/uploader"
)

// Drag events accepted by Drag.
const (
	DragEnter = "enter"
	DragOver  = "over"
	DragLeave = "leave"
)

// Service-level errors
var (
	ErrInvalidSlot      = errors.New("invalid slot")
	ErrInvalidDragEvent = errors.New("drag event must be one of enter, over, leave")
)

// Snapshot is everything a client needs to draw the upload page.
type Snapshot struct {
	SessionID string               `json:"session_id"`
	Slots     []uploader.SlotState `json:"slots"`
	Loading   bool                 `json:"loading"`
	Error     string               `json:"error,omitempty"`
	View      presenter.PageView   `json:"view"`
}

// PageService defines the upload page operations on a page session.
type PageService interface {
	// State returns the current snapshot of the page.
	State(page *session.Page) Snapshot

	// SelectFile puts file into the named slot.
	// Returns ErrInvalidSlot if the slot name is unknown.
	SelectFile(page *session.Page, slot string, file *models.File) error

	// RemoveFile empties the named slot.
	// Returns ErrInvalidSlot if the slot name is unknown.
	RemoveFile(page *session.Page, slot string) error

	// Drag applies a drag enter/over/leave event to the named slot.
	// Returns ErrInvalidSlot or ErrInvalidDragEvent for bad input.
	Drag(page *session.Page, slot, event string) error

	// Drop ends a drag over the named slot; only the first file is kept.
	// Returns ErrInvalidSlot if the slot name is unknown.
	Drop(page *session.Page, slot string, files []*models.File) error

	// Submit sends the page's files for analysis.
	// Returns a *uploader.ValidationError when the brochure is missing, and
	// the analyzer's ServiceError or TransportError when the call fails.
	Submit(ctx context.Context, page *session.Page) error

	// Property returns the grouped view of the page's current record.
	Property(page *session.Page) presenter.PropertyView

	// Reset drops the page session and returns a fresh, empty one.
	Reset(page *session.Page) *session.Page
}

// pageService is the concrete implementation of PageService.
type pageService struct {
	store *session.Store
	log   *logger.Logger
}

// NewPageService creates a new instance of PageService.
func NewPageService(store *session.Store, log *logger.Logger) PageService {
	return &pageService{
		store: store,
		log:   log,
	}
}

func (s *pageService) State(page *session.Page) Snapshot {
	state := page.State()
	return Snapshot{
		SessionID: page.ID,
		Slots:     page.Uploader.Slots(),
		Loading:   state.Loading,
		Error:     state.Error,
		View:      presenter.PresentPage(state),
	}
}

func parseSlot(raw string) (models.SlotName, error) {
	slot, err := models.ParseSlot(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, raw)
	}
	return slot, nil
}

func (s *pageService) SelectFile(page *session.Page, raw string, file *models.File) error {
	slot, err := parseSlot(raw)
	if err != nil {
		return err
	}
	if err := page.Uploader.SelectFile(slot, file); err != nil {
		return fmt.Errorf("failed to select file: %w", err)
	}
	if file != nil {
		s.log.Info("File selected", map[string]interface{}{
			"session_id":   page.ID,
			"slot":         string(slot),
			"file":         file.Name,
			"content_type": file.ContentType,
			"size":         file.Size,
		})
	}
	return nil
}

func (s *pageService) RemoveFile(page *session.Page, raw string) error {
	slot, err := parseSlot(raw)
	if err != nil {
		return err
	}
	if err := page.Uploader.RemoveFile(slot); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	s.log.Debug("File removed", map[string]interface{}{
		"session_id": page.ID,
		"slot":       string(slot),
	})
	return nil
}

func (s *pageService) Drag(page *session.Page, raw, event string) error {
	slot, err := parseSlot(raw)
	if err != nil {
		return err
	}

	switch event {
	case DragEnter:
		err = page.Uploader.DragEnter(slot)
	case DragOver:
		err = page.Uploader.DragOver(slot)
	case DragLeave:
		err = page.Uploader.DragLeave(slot)
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDragEvent, event)
	}
	if err != nil {
		return fmt.Errorf("failed to apply drag event: %w", err)
	}
	return nil
}

func (s *pageService) Drop(page *session.Page, raw string, files []*models.File) error {
	slot, err := parseSlot(raw)
	if err != nil {
		return err
	}
	if err := page.Uploader.Drop(slot, files); err != nil {
		return fmt.Errorf("failed to drop files: %w", err)
	}
	s.log.Info("Files dropped", map[string]interface{}{
		"session_id": page.ID,
		"slot":       string(slot),
		"count":      len(files),
	})
	return nil
}

func (s *pageService) Submit(ctx context.Context, page *session.Page) error {
	s.log.Info("Submitting documents for analysis", map[string]interface{}{
		"session_id":     page.ID,
		"has_floor_plan": page.Uploader.File(models.SlotFloorPlan) != nil,
	})

	if err := page.Uploader.Submit(ctx); err != nil {
		var ve *uploader.ValidationError
		if errors.As(err, &ve) {
			s.log.Warn("Submission rejected", map[string]interface{}{
				"session_id": page.ID,
				"slot":       string(ve.Slot),
				"reason":     ve.Reason,
			})
			return err
		}
		s.log.Error("Analysis failed", err, map[string]interface{}{
			"session_id": page.ID,
		})
		return err
	}

	s.log.Info("Analysis complete", map[string]interface{}{
		"session_id": page.ID,
		"fields":     len(page.Record()),
	})
	return nil
}

func (s *pageService) Property(page *session.Page) presenter.PropertyView {
	return presenter.Present(page.Record())
}

func (s *pageService) Reset(page *session.Page) *session.Page {
	if page != nil {
		s.store.Delete(page.ID)
	}
	fresh := s.store.Create()
	s.log.Info("Page session reset", map[string]interface{}{
		"session_id": fresh.ID,
	})
	return fresh
}
