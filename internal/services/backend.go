// HTTP gateway implementation of [Backend]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/shared"
)

// GatewayBackend talks to a streaming gateway that owns the session and decryption.
//
// Endpoints:
//
//	POST   /v1/sessions                                   -> {"session_id": "..."}
//	GET    /v1/sessions/{session}/tracks/{id}/files       -> {"files": [{"format": "...", "url": "..."}]}
//	GET    {file url}                                     -> decrypted bytes
//	DELETE /v1/sessions/{session}
type GatewayBackend struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayBackend creates a gateway client. client defaults to [http.DefaultClient].
func NewGatewayBackend(baseURL string, client *http.Client) *GatewayBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &GatewayBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type filesResponse struct {
	Files []gatewayFile `json:"files"`
}

type gatewayFile struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// Connect opens a gateway session authenticated with token.
func (g *GatewayBackend) Connect(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing access token", shared.ErrAuthFailed)
	}

	client := bearerClient(ctx, g.httpClient, token)

	var resp sessionResponse
	if err := g.doJSON(ctx, client, http.MethodPost, g.baseURL+"/v1/sessions", []byte("{}"), &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: gateway returned an empty session id", shared.ErrBackend)
	}

	return &gatewaySession{backend: g, client: client, id: resp.SessionID}, nil
}

// doJSON sends a request and decodes a JSON body into result when it is non-nil.
func (g *GatewayBackend) doJSON(ctx context.Context, client *http.Client, method, target string, body []byte, result any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode gateway response: %v", shared.ErrBackend, err)
	}
	return nil
}

// resolve turns a file URL from the gateway, absolute or relative, into an absolute URL.
func (g *GatewayBackend) resolve(ref string) (string, error) {
	base, err := url.Parse(g.baseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: gateway status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: gateway status %d", shared.ErrTrackNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: gateway status %d: %s", shared.ErrAPIRequest, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

type gatewaySession struct {
	backend *GatewayBackend
	client  *http.Client
	id      string
	once    sync.Once
}

// LoadVariants lists the track's files. Streams are opened lazily on first read.
func (s *gatewaySession) LoadVariants(ctx context.Context, ref models.TrackReference) ([]models.EncodedVariant, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackend, err)
	}

	target := fmt.Sprintf("%s/v1/sessions/%s/tracks/%s/files", s.backend.baseURL, url.PathEscape(s.id), url.PathEscape(ref.ID))

	var resp filesResponse
	if err := s.backend.doJSON(ctx, s.client, http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}

	variants := make([]models.EncodedVariant, 0, len(resp.Files))
	for _, f := range resp.Files {
		if f.URL == "" {
			closeVariants(variants)
			return nil, fmt.Errorf("%w: file %q has no url", shared.ErrBackend, f.Format)
		}
		fileURL, err := s.backend.resolve(f.URL)
		if err != nil {
			closeVariants(variants)
			return nil, fmt.Errorf("%w: bad file url %q: %v", shared.ErrBackend, f.URL, err)
		}
		variants = append(variants, models.EncodedVariant{
			Format: models.ParseFormat(f.Format),
			Source: &lazyStream{ctx: ctx, client: s.client, url: fileURL},
		})
	}

	return variants, nil
}

// Close deletes the gateway session. Failures are ignored; sessions expire on the gateway anyway.
func (s *gatewaySession) Close() error {
	s.once.Do(func() {
		target := fmt.Sprintf("%s/v1/sessions/%s", s.backend.baseURL, url.PathEscape(s.id))
		_ = s.backend.doJSON(context.Background(), s.client, http.MethodDelete, target, nil, nil)
	})
	return nil
}

func closeVariants(variants []models.EncodedVariant) {
	for _, v := range variants {
		_ = v.Close()
	}
}

// lazyStream opens its HTTP body on the first Read.
type lazyStream struct {
	ctx    context.Context
	client *http.Client
	url    string

	mu     sync.Mutex
	body   io.ReadCloser
	err    error
	closed bool
}

// Read opens the download on first use. The lock is released before reading
// the body so Close can interrupt a read in flight.
func (l *lazyStream) Read(p []byte) (int, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, fmt.Errorf("read from closed stream %s", l.url)
	}
	if l.body == nil && l.err == nil {
		l.body, l.err = l.open()
	}
	body, err := l.body, l.err
	l.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return body.Read(p)
}

func (l *lazyStream) open() (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(l.ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (l *lazyStream) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.body != nil {
		return l.body.Close()
	}
	return nil
}
