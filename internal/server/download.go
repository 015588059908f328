package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
	"github.com/desertthunder/tri/internal/tasks"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DefaultBodyLimit caps a /dl request body at 1 MiB.
const DefaultBodyLimit int64 = 1 << 20

const schemaURL = "https://tri.local/schemas/download.json"

//go:embed download.schema.json
var downloadSchema []byte

// DownloadRequest is the body of POST /dl. All four keys must be present.
type DownloadRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Hash  string `json:"hash"`
	Token string `json:"token"`
}

// DownloadResponse is the body of every /dl response.
type DownloadResponse struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Partial bool          `json:"partial,omitempty"`
	Tiers   []models.Tier `json:"tiers,omitempty"`
}

// DownloadHandler serves POST /dl.
type DownloadHandler struct {
	downloader Downloader
	schema     *jsonschema.Schema
	bodyLimit  int64
	verbose    bool
	logger     *log.Logger
}

// NewDownloadHandler compiles the request schema and returns the handler.
//
// A non-positive bodyLimit uses [DefaultBodyLimit]. When verbose is false,
// failure responses carry no error text.
func NewDownloadHandler(d Downloader, bodyLimit int64, verbose bool, logger *log.Logger) (*DownloadHandler, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &DownloadHandler{
		downloader: d,
		schema:     schema,
		bodyLimit:  bodyLimit,
		verbose:    verbose,
		logger:     logger,
	}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(downloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to load request schema: %w", err)
	}
	return c.Compile(schemaURL)
}

// Routes returns the HTTP routes this handler serves.
func (h *DownloadHandler) Routes() []string {
	return []string{"POST /dl"}
}

// ServeHTTP validates the body, runs the download, and maps the outcome to a status:
// 200 on success (possibly partial), 400 for a bad body or hash, 413 for an
// oversized body, and 500 for every download failure.
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := shared.WithLogger(h.logger, "request_id", RequestIDFrom(r.Context()))

	req, status, err := h.decode(w, r)
	if err != nil {
		logger.Warn("rejected download request", "status", status, "error", err)
		h.fail(w, status, err)
		return
	}

	out, err := h.downloader.Run(r.Context(), nil, tasks.Request{
		URL:   req.URL,
		Title: req.Title,
		Hash:  req.Hash,
		Token: req.Token,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidHash) {
			status = http.StatusBadRequest
		}
		h.fail(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, DownloadResponse{OK: true, Partial: out.Partial, Tiers: out.Tiers()})
}

// decode reads and validates the body, returning the status to report on failure.
func (h *DownloadHandler) decode(w http.ResponseWriter, r *http.Request) (DownloadRequest, int, error) {
	var req DownloadRequest

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: body exceeds %d bytes", shared.ErrInvalidRequest, tooLarge.Limit)
		}
		return req, http.StatusBadRequest, fmt.Errorf("%w: failed to read body: %v", shared.ErrInvalidRequest, err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("%w: body is not JSON: %v", shared.ErrInvalidRequest, err)
	}
	if err := h.schema.Validate(doc); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}

	if err := models.ValidateContentHash(req.Hash); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidHash, err)
	}

	return req, http.StatusOK, nil
}

func (h *DownloadHandler) fail(w http.ResponseWriter, status int, err error) {
	resp := DownloadResponse{OK: false}
	if h.verbose {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// HealthHandler serves GET /health.
type HealthHandler struct{}

// Routes returns the HTTP routes this handler serves.
func (HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
