package models

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is used when a file's type cannot be determined.
const DefaultContentType = "application/octet-stream"

// File is a reference to a document held in an upload slot.
// The bytes are read lazily through Open so a reference can be replaced
// without any cleanup.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// NewMemoryFile wraps uploaded bytes. An empty contentType is resolved from
// the file extension, then from the content itself.
func NewMemoryFile(name, contentType string, data []byte) *File {
	if contentType == "" {
		contentType = detectContentType(name, data)
	}
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewDiskFile references a file on the local filesystem.
func NewDiskFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = sniffFile(path)
	}

	return &File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Open returns a reader over the file's bytes.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

func detectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if len(data) == 0 {
		return DefaultContentType
	}
	return mimetype.Detect(data).String()
}

func sniffFile(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return DefaultContentType
	}
	return mt.String()
}
