package musicclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const playbackAPIBase = "https://api.spotify.com/v1/me/player"

// SpotifyClient is the concrete Client: device-scoped playback control
// over the real Spotify Web API, using golang.org/x/oauth2 for the
// cached, auto-refreshing bearer token spec §6 requires.
type SpotifyClient struct {
	config     clientcredentials.Config
	httpClient *http.Client
	deviceID   string

	mu        sync.Mutex
	token     *oauth2.Token
	available bool
}

// NewSpotifyClient builds a client from client-credentials OAuth2 config.
// deviceID, if set, scopes playback commands to one Spotify Connect
// device; left empty, the user's currently active device is used.
func NewSpotifyClient(clientID, clientSecret, tokenURL, deviceID string) *SpotifyClient {
	return &SpotifyClient{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		deviceID:   deviceID,
	}
}

var _ Client = (*SpotifyClient)(nil)

// Authenticate fetches a fresh token from the client-credentials endpoint
// and caches it; do calls it again whenever the cached token is missing or
// expired, so repeated calls are harmless.
func (c *SpotifyClient) Authenticate(ctx context.Context) error {
	src := c.config.TokenSource(ctx)
	tok, err := src.Token()
	if err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return fmt.Errorf("musicclient: authenticate: %w", err)
	}
	c.mu.Lock()
	c.token = tok
	c.available = true
	c.mu.Unlock()
	return nil
}

func (c *SpotifyClient) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available && c.token != nil && c.token.Valid()
}

func (c *SpotifyClient) PlayContext(ctx context.Context, uri string) error {
	body, err := json.Marshal(map[string]string{"context_uri": uri})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/play", body)
}

func (c *SpotifyClient) Pause(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/pause", nil)
}

func (c *SpotifyClient) do(ctx context.Context, method, path string, body []byte) error {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok == nil || !tok.Valid() {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		tok = c.token
		c.mu.Unlock()
	}

	url := playbackAPIBase + path
	if c.deviceID != "" {
		url += "?device_id=" + c.deviceID
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return fmt.Errorf("musicclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
	}
	return fmt.Errorf("musicclient: %s %s: status %d", method, path, resp.StatusCode)
}
