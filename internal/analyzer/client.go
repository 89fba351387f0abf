// Package analyzer talks to the external property analysis service.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/stwalsh4118/property-analyzer/internal/catalog"
	"github.com/stwalsh4118/property-analyzer/internal/logger"
	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// DefaultUploadPath is the service's analysis endpoint.
const DefaultUploadPath = "/upload"

// Client submits documents to the analysis service.
type Client interface {
	// Analyze sends one multipart POST and returns the decoded record.
	// Returns *ServiceError for a non-2xx status and *TransportError when the
	// request fails or the body is not a flat JSON object.
	// Analyze never retries.
	Analyze(ctx context.Context, sub Submission) (models.PropertyRecord, error)

	// Ping checks that the service origin answers at all.
	Ping(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	UploadPath string
	// HTTPClient defaults to a client without a timeout; the caller's context
	// is the only bound on a request.
	HTTPClient *http.Client
}

type client struct {
	baseURL  string
	endpoint string
	http     *http.Client
	schema   *jsonschema.Schema
	log      *logger.Logger
}

// NewClient creates a Client for the service at opts.BaseURL.
func NewClient(opts Options, log *logger.Logger) (Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, errors.New("analyzer base URL is required")
	}

	path := opts.UploadPath
	if path == "" {
		path = DefaultUploadPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	schema, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}

	return &client{
		baseURL:  base,
		endpoint: base + path,
		http:     httpClient,
		schema:   schema,
		log:      log.With(map[string]interface{}{"component": "analyzer"}),
	}, nil
}

func (c *client) Analyze(ctx context.Context, sub Submission) (models.PropertyRecord, error) {
	body, contentType, err := sub.Encode()
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	fields := map[string]interface{}{
		"url":        c.endpoint,
		"brochure":   sub.Brochure.Name,
		"body_bytes": body.Len(),
	}
	if sub.FloorPlan != nil {
		fields["floor_plan"] = sub.FloorPlan.Name
	}
	c.log.Debug("Sending documents to analysis service", fields)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("Analysis request failed", err, map[string]interface{}{"url": c.endpoint})
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		serr := &ServiceError{StatusCode: resp.StatusCode}
		c.log.Warn("Analysis service returned non-success status", map[string]interface{}{
			"url":         c.endpoint,
			"status_code": resp.StatusCode,
		})
		return nil, serr
	}

	record, err := c.decode(resp.Body)
	if err != nil {
		c.log.Error("Failed to decode analysis response", err, map[string]interface{}{"url": c.endpoint})
		return nil, &TransportError{Op: "decode response", Err: err}
	}

	done := map[string]interface{}{
		"url":         c.endpoint,
		"field_count": len(record),
	}
	if unknown := uncatalogued(record); len(unknown) > 0 {
		done["uncatalogued_fields"] = unknown
	}
	c.log.Info("Analysis completed", done)
	return record, nil
}

// uncatalogued lists the record keys that no catalog group shows, sorted.
func uncatalogued(record models.PropertyRecord) []string {
	var keys []string
	for key := range record {
		if _, ok := catalog.GroupOf(key); !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *client) decode(r io.Reader) (models.PropertyRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid JSON: trailing data after object")
	}
	if err := c.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", raw)
	}
	return models.RecordFromMap(obj)
}

func (c *client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &TransportError{Op: "create request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
