package uploader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// MockClient is a mock implementation of analyzer.Client for testing
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Analyze(ctx context.Context, sub analyzer.Submission) (models.PropertyRecord, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	record, ok := args.Get(0).(models.PropertyRecord)
	if !ok {
		return nil, args.Error(1)
	}
	return record, args.Error(1)
}

func (m *MockClient) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakePage mirrors the parent page: it owns loading, error and the record.
type fakePage struct {
	mu       sync.Mutex
	loading  bool
	err      string
	record   models.PropertyRecord
	loadings []bool
}

func (p *fakePage) hooks() Hooks {
	return Hooks{
		SetLoading: func(v bool) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.loading = v
			p.loadings = append(p.loadings, v)
		},
		SetError: func(msg string) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.err = msg
		},
		OnUploadSuccess: func(r models.PropertyRecord) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.record = r
			p.loading = false
		},
	}
}

func newTestController(client analyzer.Client) (*Controller, *fakePage) {
	page := &fakePage{}
	return New(client, page.hooks(), logger.New("test")), page
}

func file(name string) *models.File {
	return models.NewMemoryFile(name, "application/pdf", []byte(name))
}

func TestSelectFile_Replaces(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("first.pdf")))
	require.NoError(t, c.SelectFile(models.SlotBrochure, file("second.pdf")))

	assert.Equal(t, "second.pdf", c.File(models.SlotBrochure).Name)
	assert.Nil(t, c.File(models.SlotFloorPlan))
}

func TestSelectFile_NilIgnored(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("keep.pdf")))
	require.NoError(t, c.SelectFile(models.SlotBrochure, nil))

	assert.Equal(t, "keep.pdf", c.File(models.SlotBrochure).Name)
}

func TestSelectFile_NoTypeCheck(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	exe := models.NewMemoryFile("setup.exe", "application/x-msdownload", []byte("MZ"))
	require.NoError(t, c.SelectFile(models.SlotFloorPlan, exe))

	assert.Equal(t, "setup.exe", c.File(models.SlotFloorPlan).Name)
}

func TestUnknownSlot(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	assert.ErrorIs(t, c.SelectFile("cover", file("x.pdf")), models.ErrUnknownSlot)
	assert.ErrorIs(t, c.DragEnter("cover"), models.ErrUnknownSlot)
	assert.ErrorIs(t, c.Drop("cover", nil), models.ErrUnknownSlot)
	assert.ErrorIs(t, c.RemoveFile("cover"), models.ErrUnknownSlot)
	assert.Nil(t, c.File("cover"))
}

func TestDragState(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	dragActive := func(name models.SlotName) bool {
		for _, s := range c.Slots() {
			if s.Name == name {
				return s.DragActive
			}
		}
		t.Fatalf("slot %s missing", name)
		return false
	}

	require.NoError(t, c.DragEnter(models.SlotBrochure))
	assert.True(t, dragActive(models.SlotBrochure))
	assert.False(t, dragActive(models.SlotFloorPlan))

	require.NoError(t, c.DragOver(models.SlotBrochure))
	assert.True(t, dragActive(models.SlotBrochure))

	require.NoError(t, c.DragLeave(models.SlotBrochure))
	assert.False(t, dragActive(models.SlotBrochure))

	require.NoError(t, c.DragEnter(models.SlotFloorPlan))
	require.NoError(t, c.Drop(models.SlotFloorPlan, nil))
	assert.False(t, dragActive(models.SlotFloorPlan))
}

func TestDrop_FirstFileWins(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("old.pdf")))
	require.NoError(t, c.DragEnter(models.SlotBrochure))
	require.NoError(t, c.Drop(models.SlotBrochure, []*models.File{
		file("a.pdf"), file("b.pdf"), file("c.pdf"),
	}))

	assert.Equal(t, "a.pdf", c.File(models.SlotBrochure).Name)
	assert.False(t, c.Slots()[0].DragActive)
}

func TestDrop_EmptyKeepsFile(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("keep.pdf")))
	require.NoError(t, c.Drop(models.SlotBrochure, []*models.File{}))

	assert.Equal(t, "keep.pdf", c.File(models.SlotBrochure).Name)
}

func TestRemoveFile_LeavesOtherSlot(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("b.pdf")))
	require.NoError(t, c.SelectFile(models.SlotFloorPlan, file("f.pdf")))
	require.NoError(t, c.DragEnter(models.SlotFloorPlan))

	require.NoError(t, c.RemoveFile(models.SlotBrochure))

	assert.Nil(t, c.File(models.SlotBrochure))
	assert.Equal(t, "f.pdf", c.File(models.SlotFloorPlan).Name)
	assert.True(t, c.Slots()[1].DragActive)

	require.NoError(t, c.RemoveFile(models.SlotFloorPlan))
	assert.Nil(t, c.File(models.SlotFloorPlan))
}

func TestSlots_Snapshot(t *testing.T) {
	c, _ := newTestController(new(MockClient))

	slots := c.Slots()
	require.Len(t, slots, 2)

	assert.Equal(t, models.SlotBrochure, slots[0].Name)
	assert.Equal(t, "brochure", slots[0].Field)
	assert.True(t, slots[0].Required)
	assert.Equal(t, ".pdf,.docx,.jpg,.jpeg,.png", slots[0].Accept)

	assert.Equal(t, models.SlotFloorPlan, slots[1].Name)
	assert.Equal(t, "floor_plan", slots[1].Field)
	assert.False(t, slots[1].Required)
	assert.Equal(t, ".pdf,.jpg,.jpeg,.png", slots[1].Accept)
}

func TestSubmit_MissingBrochure(t *testing.T) {
	client := new(MockClient)
	c, page := newTestController(client)

	require.NoError(t, c.SelectFile(models.SlotFloorPlan, file("plan.pdf")))

	err := c.Submit(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBrochure)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, models.SlotBrochure, ve.Slot)

	assert.Equal(t, MissingBrochureMessage, page.err)
	assert.False(t, page.loading)
	assert.Empty(t, page.loadings, "loading must not be touched")
	client.AssertNotCalled(t, "Analyze")
}

func TestSubmit_SendsOccupiedSlots(t *testing.T) {
	brochure := file("brochure.pdf")
	plan := file("plan.pdf")

	tests := []struct {
		name      string
		floorPlan *models.File
	}{
		{name: "brochure only", floorPlan: nil},
		{name: "brochure and floor plan", floorPlan: plan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			c, _ := newTestController(client)

			require.NoError(t, c.SelectFile(models.SlotBrochure, brochure))
			if tt.floorPlan != nil {
				require.NoError(t, c.SelectFile(models.SlotFloorPlan, tt.floorPlan))
			}

			ctx := context.Background()
			expected := analyzer.Submission{Brochure: brochure, FloorPlan: tt.floorPlan}
			client.On("Analyze", ctx, expected).Return(models.PropertyRecord{}, nil).Once()

			require.NoError(t, c.Submit(ctx))
			client.AssertExpectations(t)
			client.AssertNumberOfCalls(t, "Analyze", 1)
		})
	}
}

func TestSubmit_Success(t *testing.T) {
	client := new(MockClient)
	c, page := newTestController(client)
	page.err = "previous failure"

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("b.pdf")))

	record := models.PropertyRecord{"price": models.Number(500000)}
	client.On("Analyze", mock.Anything, mock.Anything).Return(record, nil)

	require.NoError(t, c.Submit(context.Background()))

	assert.Empty(t, page.err, "prior error should be cleared")
	assert.Equal(t, record, page.record)
	assert.False(t, page.loading)
	// the controller only raises loading; the success callback lowers it
	assert.Equal(t, []bool{true}, page.loadings)
}

func TestSubmit_ServiceError(t *testing.T) {
	client := new(MockClient)
	c, page := newTestController(client)

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("b.pdf")))
	client.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, &analyzer.ServiceError{StatusCode: 500}).Once()

	err := c.Submit(context.Background())

	require.Error(t, err)
	status, ok := analyzer.IsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, 500, status)

	assert.Nil(t, page.record)
	assert.Contains(t, page.err, "500")
	assert.Contains(t, page.err, "Error processing files")
	assert.False(t, page.loading)
	assert.Equal(t, []bool{true, false}, page.loadings)
	client.AssertNumberOfCalls(t, "Analyze", 1)
}

func TestSubmit_TransportError(t *testing.T) {
	client := new(MockClient)
	c, page := newTestController(client)

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("b.pdf")))
	client.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, &analyzer.TransportError{Err: errors.New("connection refused")}).Once()

	err := c.Submit(context.Background())

	require.Error(t, err)
	assert.True(t, analyzer.IsTransportError(err))
	assert.Equal(t, "Error processing files: connection refused", page.err)
	assert.False(t, page.loading)
}

func TestSubmit_Concurrent(t *testing.T) {
	client := new(MockClient)
	c, _ := newTestController(client)

	require.NoError(t, c.SelectFile(models.SlotBrochure, file("b.pdf")))
	client.On("Analyze", mock.Anything, mock.Anything).Return(models.PropertyRecord{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Submit(context.Background())
		}()
	}
	wg.Wait()

	// no de-duplication: both submits reach the service
	client.AssertNumberOfCalls(t, "Analyze", 2)
}
