// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Gateway is a fake streaming gateway serving a fixed set of files for one track.
type Gateway struct {
	*httptest.Server
	Sessions atomic.Int32 // sessions opened
	Closed   atomic.Int32 // sessions deleted
}

// NewGateway starts a gateway that accepts token and serves files (format label -> body) for trackID.
// Other tracks answer 404. The server is closed when the test ends.
func NewGateway(t *testing.T, token, trackID string, files map[string]string) *Gateway {
	t.Helper()

	g := &Gateway{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.Sessions.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"session_id": "test-session"})
	})
	mux.HandleFunc("GET /v1/sessions/test-session/tracks/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != trackID {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		type file struct {
			Format string `json:"format"`
			URL    string `json:"url"`
		}
		listing := struct {
			Files []file `json:"files"`
		}{}
		for format := range files {
			listing.Files = append(listing.Files, file{Format: format, URL: "/files/" + format})
		}
		json.NewEncoder(w).Encode(listing)
	})
	mux.HandleFunc("GET /files/{format}", func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.PathValue("format")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, body)
	})
	mux.HandleFunc("DELETE /v1/sessions/test-session", func(w http.ResponseWriter, r *http.Request) {
		g.Closed.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Server.Close)
	return g
}

// NewSearchServer starts a Spotify search API stand-in that answers every query with trackID.
func NewSearchServer(t *testing.T, trackID string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]string{}
		if trackID != "" {
			items = append(items, map[string]string{"id": trackID, "name": r.URL.Query().Get("q")})
		}
		json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
	}))
	t.Cleanup(server.Close)
	return server
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
