// Spotify Web API search client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/desertthunder/tri/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

var trackURLPattern = regexp.MustCompile(`(?:spotify:track:|https://open\.spotify\.com/track/)([a-zA-Z0-9]+)`)

// ExtractTrackID returns the id from the first spotify:track:<id> or
// https://open.spotify.com/track/<id> match in s.
func ExtractTrackID(s string) (string, error) {
	m := trackURLPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("no spotify track reference in %q", s)
	}
	return m[1], nil
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifySearchResponse is the subset of /search we read.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService searches the Spotify catalog on behalf of a caller-supplied token.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a search client.
//
// baseURL defaults to the public API, client to [http.DefaultClient], and a
// non-positive rps disables rate limiting.
func NewSpotifyService(baseURL string, client *http.Client, rps float64) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &SpotifyService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchTrack returns the id of the single top track result for query.
func (s *SpotifyService) SearchTrack(ctx context.Context, query, token string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("%w: empty search query", shared.ErrTrackNotFound)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=1", url.QueryEscape(query))

	var result SpotifySearchResponse
	if err := s.doRequest(ctx, token, endpoint, &result); err != nil {
		return "", err
	}

	if len(result.Tracks.Items) == 0 || result.Tracks.Items[0].ID == "" {
		return "", fmt.Errorf("%w: no result for %q", shared.ErrTrackNotFound, query)
	}

	return result.Tracks.Items[0].ID, nil
}

// doRequest performs an authenticated GET against the Web API and decodes the JSON body.
func (s *SpotifyService) doRequest(ctx context.Context, token, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := bearerClient(ctx, s.httpClient, token).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}

	return nil
}

// bearerClient wraps base so every request carries token as a bearer credential.
func bearerClient(ctx context.Context, base *http.Client, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	client.Timeout = base.Timeout
	return client
}
