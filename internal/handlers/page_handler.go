package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/stwalsh4118/property-analyzer/internal/analyzer"
	apierrors "github.com/stwalsh4118/property-analyzer/internal/errors"
	"github.com/stwalsh4118/property-analyzer/internal/middleware"
	"github.com/stwalsh4118/property-analyzer/internal/models"
	"github.com/stwalsh4118/property-analyzer/internal/presenter"
	"github.com/stwalsh4118/property-analyzer/internal/services"
	"github.com/stwalsh4118/property-analyzer/internal/session"
	"github.com/stwalsh4118/property-analyzer/internal/uploader"
	"github.com/stwalsh4118/property-analyzer/internal/web"
)

// MIMEMsgpack is the content type for msgpack responses.
const MIMEMsgpack = "application/msgpack"

// Multipart field names accepted by the upload endpoints.
const (
	fieldFile  = "file"
	fieldFiles = "files"
)

// PageHandler serves the upload page and its JSON API.
type PageHandler struct {
	service   services.PageService
	maxUpload int64
}

// NewPageHandler creates a new PageHandler instance. maxUpload caps the size
// of a multipart request body in bytes.
func NewPageHandler(service services.PageService, maxUpload int64) *PageHandler {
	return &PageHandler{
		service:   service,
		maxUpload: maxUpload,
	}
}

// DragRequest is the body of the drag endpoint.
type DragRequest struct {
	Event string `json:"event" binding:"required,oneof=enter over leave"`
}

// indexPage is the template data for the upload page.
type indexPage struct {
	services.Snapshot
	Title          string
	LoadingMessage string
}

// Index handles GET / and renders the upload page.
func (h *PageHandler) Index(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	c.HTML(http.StatusOK, web.IndexTemplate, indexPage{
		Snapshot:       h.service.State(page),
		Title:          presenter.Title,
		LoadingMessage: presenter.LoadingMessage,
	})
}

// AnalyzeForm handles POST /analyze, the form fallback for browsers without
// script. Any files in the form are selected first; the outcome is shown on
// the page it redirects to.
func (h *PageHandler) AnalyzeForm(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	form, err := h.multipartForm(c)
	if err != nil {
		h.uploadError(c, err)
		return
	}

	for _, slot := range models.Slots {
		headers := form.File[slot.FieldName()]
		if len(headers) == 0 {
			continue
		}
		file, err := readUpload(headers[0])
		if err != nil {
			apierrors.BadRequest(c, "Could not read uploaded file", map[string]interface{}{
				"field": slot.FieldName(),
			})
			return
		}
		if err := h.service.SelectFile(page, string(slot), file); err != nil {
			apierrors.InternalServerError(c, "Failed to select file", err)
			return
		}
	}

	// Failures land in the page's error banner
	_ = h.service.Submit(c.Request.Context(), page)

	c.Redirect(http.StatusSeeOther, "/")
}

// State handles GET /api/v1/state.
func (h *PageHandler) State(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// PutFile handles PUT /api/v1/slots/:slot/file.
func (h *PageHandler) PutFile(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	form, err := h.multipartForm(c)
	if err != nil {
		h.uploadError(c, err)
		return
	}
	headers := form.File[fieldFile]
	if len(headers) == 0 {
		apierrors.BadRequest(c, "No file provided", map[string]interface{}{
			"field": fieldFile,
		})
		return
	}

	file, err := readUpload(headers[0])
	if err != nil {
		apierrors.BadRequest(c, "Could not read uploaded file", nil)
		return
	}

	if err := h.service.SelectFile(page, c.Param("slot"), file); err != nil {
		h.serviceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// DeleteFile handles DELETE /api/v1/slots/:slot/file.
func (h *PageHandler) DeleteFile(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	if err := h.service.RemoveFile(page, c.Param("slot")); err != nil {
		h.serviceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// Drag handles POST /api/v1/slots/:slot/drag.
func (h *PageHandler) Drag(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	var req DragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if err := h.service.Drag(page, c.Param("slot"), req.Event); err != nil {
		h.serviceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// Drop handles POST /api/v1/slots/:slot/drop. Any number of files may be
// sent under "files"; only the first is kept.
func (h *PageHandler) Drop(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	var files []*models.File
	if isMultipart(c) {
		form, err := h.multipartForm(c)
		if err != nil {
			h.uploadError(c, err)
			return
		}
		// Only the first file is read; the rest are discarded unread.
		if headers := form.File[fieldFiles]; len(headers) > 0 {
			first, err := readUpload(headers[0])
			if err != nil {
				apierrors.BadRequest(c, "Could not read dropped file", nil)
				return
			}
			files = make([]*models.File, len(headers))
			files[0] = first
			for i, fh := range headers[1:] {
				files[i+1] = &models.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Size: fh.Size}
			}
		}
	}

	if err := h.service.Drop(page, c.Param("slot"), files); err != nil {
		h.serviceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// Submit handles POST /api/v1/submit.
func (h *PageHandler) Submit(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}

	if err := h.service.Submit(c.Request.Context(), page); err != nil {
		h.serviceError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.service.State(page))
}

// Property handles GET /api/v1/property.
func (h *PageHandler) Property(c *gin.Context) {
	page := h.page(c)
	if page == nil {
		return
	}
	h.respond(c, http.StatusOK, h.service.Property(page))
}

// Reset handles POST /api/v1/session/reset.
func (h *PageHandler) Reset(c *gin.Context) {
	fresh := h.service.Reset(middleware.GetPage(c))
	middleware.BindPage(c, fresh)
	h.respond(c, http.StatusOK, h.service.State(fresh))
}

// page returns the request's page session, answering 500 when the session
// middleware is missing from the chain.
func (h *PageHandler) page(c *gin.Context) *session.Page {
	page := middleware.GetPage(c)
	if page == nil {
		apierrors.InternalServerError(c, "Page session unavailable", errors.New("session middleware not installed"))
	}
	return page
}

// serviceError maps service and upload errors to HTTP responses.
func (h *PageHandler) serviceError(c *gin.Context, err error) {
	var ve *uploader.ValidationError
	switch {
	case errors.Is(err, services.ErrInvalidSlot):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidDragEvent):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.As(err, &ve):
		apierrors.BadRequest(c, uploader.MissingBrochureMessage, map[string]interface{}{
			"slot": string(ve.Slot),
		})
	case analyzer.IsTransportError(err):
		apierrors.BadGateway(c, h.pageError(c, err), err, nil)
	default:
		if status, ok := analyzer.IsServiceError(err); ok {
			apierrors.BadGateway(c, h.pageError(c, err), err, map[string]interface{}{
				"status": status,
			})
			return
		}
		apierrors.InternalServerError(c, "An unexpected error occurred", err)
	}
}

// pageError is the message the page now shows, so API clients see the same text.
func (h *PageHandler) pageError(c *gin.Context, err error) string {
	if page := middleware.GetPage(c); page != nil {
		if msg := page.State().Error; msg != "" {
			return msg
		}
	}
	return err.Error()
}

func (h *PageHandler) multipartForm(c *gin.Context) (*multipart.Form, error) {
	if h.maxUpload > 0 {
		if c.Request.ContentLength > h.maxUpload {
			return nil, &http.MaxBytesError{Limit: h.maxUpload}
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	return c.MultipartForm()
}

func (h *PageHandler) uploadError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		apierrors.PayloadTooLarge(c, tooLarge.Limit)
		return
	}
	apierrors.BadRequest(c, "Expected a multipart/form-data body", nil)
}

// respond writes body as JSON, or as msgpack when the client asks for it.
func (h *PageHandler) respond(c *gin.Context, status int, body interface{}) {
	if c.NegotiateFormat(gin.MIMEJSON, MIMEMsgpack) != MIMEMsgpack {
		c.JSON(status, body)
		return
	}

	data, err := encodeMsgpack(body)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to encode response", err)
		return
	}
	c.Data(status, MIMEMsgpack, data)
}

// encodeMsgpack encodes v with its json tags so both formats share field names.
func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

// readUpload copies an uploaded part into memory. The multipart temp files
// are gone once the request ends, while the slot keeps the file until the
// next submit.
func readUpload(fh *multipart.FileHeader) (*models.File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return models.NewMemoryFile(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}
