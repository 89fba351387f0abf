// Package uploader holds the two upload slots and submits them for analysis.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// Messages written to the page's error state.
const (
	MissingBrochureMessage = "Please upload a property brochure"
	failurePrefix          = "Error processing files: "
)

// ValidationError is returned by Submit when a required slot is empty.
// No request is sent in that case.
type ValidationError struct {
	Slot   models.SlotName
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrMissingBrochure is the validation failure for an empty brochure slot.
var ErrMissingBrochure = &ValidationError{Slot: models.SlotBrochure, Reason: "missing brochure"}

// Is lets errors.Is match any ValidationError for the same slot.
func (e *ValidationError) Is(target error) bool {
	var ve *ValidationError
	if !errors.As(target, &ve) {
		return false
	}
	return ve.Slot == e.Slot
}

// Hooks are the parent page's state setters. The controller never reads the
// page's state, it only reports through these.
type Hooks struct {
	SetLoading func(bool)
	// SetError receives "" to clear the current error.
	SetError func(string)
	// OnUploadSuccess receives the new record and is responsible for
	// clearing the loading flag.
	OnUploadSuccess func(models.PropertyRecord)
}

// SlotState is a snapshot of one slot.
type SlotState struct {
	Name       models.SlotName `json:"name"`
	Field      string          `json:"field"`
	Label      string          `json:"label"`
	Accept     string          `json:"accept"`
	Required   bool            `json:"required"`
	File       *models.File    `json:"file,omitempty"`
	DragActive bool            `json:"drag_active"`
}

type slot struct {
	file       *models.File
	dragActive bool
}

// Controller owns the brochure and floor plan slots.
type Controller struct {
	mu     sync.Mutex
	slots  map[models.SlotName]*slot
	client analyzer.Client
	hooks  Hooks
	log    *logger.Logger
}

// New creates a Controller with both slots empty.
func New(client analyzer.Client, hooks Hooks, log *logger.Logger) *Controller {
	c := &Controller{
		slots:  make(map[models.SlotName]*slot, len(models.Slots)),
		client: client,
		hooks:  hooks,
		log:    log,
	}
	for _, name := range models.Slots {
		c.slots[name] = &slot{}
	}
	return c
}

func (c *Controller) slot(name models.SlotName) (*slot, error) {
	s, ok := c.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSlot, name)
	}
	return s, nil
}

// SelectFile puts file into the slot, replacing whatever it held.
// A nil file leaves the slot unchanged. The file type is not checked.
func (c *Controller) SelectFile(name models.SlotName, file *models.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(name, file)
}

func (c *Controller) selectLocked(name models.SlotName, file *models.File) error {
	s, err := c.slot(name)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}
	s.file = file
	c.log.Debug("File selected", map[string]interface{}{
		"slot": string(name),
		"file": file.Name,
		"size": file.Size,
	})
	return nil
}

// DragEnter marks the slot as a live drop target.
func (c *Controller) DragEnter(name models.SlotName) error {
	return c.setDrag(name, true)
}

// DragOver keeps the slot marked as a live drop target.
func (c *Controller) DragOver(name models.SlotName) error {
	return c.setDrag(name, true)
}

// DragLeave clears the slot's drop-target mark.
func (c *Controller) DragLeave(name models.SlotName) error {
	return c.setDrag(name, false)
}

func (c *Controller) setDrag(name models.SlotName, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.slot(name)
	if err != nil {
		return err
	}
	s.dragActive = active
	return nil
}

// Drop ends a drag over the slot and keeps only the first dropped file.
func (c *Controller) Drop(name models.SlotName, files []*models.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.slot(name)
	if err != nil {
		return err
	}
	s.dragActive = false

	if len(files) == 0 {
		return nil
	}
	if len(files) > 1 {
		c.log.Debug("Extra dropped files ignored", map[string]interface{}{
			"slot":    string(name),
			"dropped": len(files),
		})
	}
	return c.selectLocked(name, files[0])
}

// RemoveFile empties the slot. The other slot is not touched.
func (c *Controller) RemoveFile(name models.SlotName) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.slot(name)
	if err != nil {
		return err
	}
	s.file = nil
	return nil
}

// File returns the file held by the slot, or nil.
func (c *Controller) File(name models.SlotName) *models.File {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.slots[name]; ok {
		return s.file
	}
	return nil
}

// Slots returns a snapshot of both slots in display order.
func (c *Controller) Slots() []SlotState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SlotState, 0, len(models.Slots))
	for _, name := range models.Slots {
		s := c.slots[name]
		out = append(out, SlotState{
			Name:       name,
			Field:      name.FieldName(),
			Label:      name.Label(),
			Accept:     name.Accept(),
			Required:   name.Required(),
			File:       s.file,
			DragActive: s.dragActive,
		})
	}
	return out
}

// Submit sends the current slot contents to the analysis service.
//
// With an empty brochure slot it reports MissingBrochureMessage and returns
// ErrMissingBrochure without any network activity. Otherwise it raises the
// loading flag, clears the previous error and sends exactly one request.
// On failure the error is reported and loading is cleared; on success the
// record goes to OnUploadSuccess, which owns clearing loading.
//
// Concurrent calls are not coalesced: each one sends its own request.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	sub := analyzer.Submission{
		Brochure:  c.slots[models.SlotBrochure].file,
		FloorPlan: c.slots[models.SlotFloorPlan].file,
	}
	c.mu.Unlock()

	if sub.Brochure == nil {
		c.log.Warn("Submit without brochure", nil)
		c.setError(MissingBrochureMessage)
		return ErrMissingBrochure
	}

	c.setLoading(true)
	c.setError("")

	record, err := c.client.Analyze(ctx, sub)
	if err != nil {
		c.setError(failurePrefix + err.Error())
		c.setLoading(false)
		return fmt.Errorf("submit failed: %w", err)
	}

	if c.hooks.OnUploadSuccess != nil {
		c.hooks.OnUploadSuccess(record)
	}
	return nil
}

func (c *Controller) setLoading(v bool) {
	if c.hooks.SetLoading != nil {
		c.hooks.SetLoading(v)
	}
}

func (c *Controller) setError(msg string) {
	if c.hooks.SetError != nil {
		c.hooks.SetError(msg)
	}
}
