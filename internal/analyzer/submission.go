package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// Multipart field names expected by the analysis service.
const (
	FieldBrochure  = "brochure"
	FieldFloorPlan = "floor_plan"
)

// ErrNoBrochure is returned when a submission is encoded without a brochure.
var ErrNoBrochure = errors.New("submission has no brochure")

// Submission is the multipart payload of one analysis request.
// FloorPlan is optional and omitted from the body when nil.
type Submission struct {
	Brochure  *models.File
	FloorPlan *models.File
}

// Encode writes the multipart body and returns it with its Content-Type.
func (s Submission) Encode() (*bytes.Buffer, string, error) {
	if s.Brochure == nil {
		return nil, "", ErrNoBrochure
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := writeFilePart(w, FieldBrochure, s.Brochure); err != nil {
		return nil, "", err
	}
	if s.FloorPlan != nil {
		if err := writeFilePart(w, FieldFloorPlan, s.FloorPlan); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFilePart keeps the file's own content type on the part; the service
// forwards it as the document's MIME type.
func writeFilePart(w *multipart.Writer, field string, f *models.File) error {
	contentType := f.ContentType
	if contentType == "" {
		contentType = models.DefaultContentType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", field, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to write %s part: %w", field, err)
	}
	return nil
}
