// Package steam fetches player presence from the Steam Web API.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

const (
	// DefaultBaseURL is the public Steam Web API endpoint.
	DefaultBaseURL = "https://api.steampowered.com"
	// NotPlaying is the activity reported when the profile is not in game.
	NotPlaying = "Not playing anything"

	playerSummariesRoute = "/ISteamUser/GetPlayerSummaries/v2/"
	maxResponseBytes     = 1 << 20
)

var (
	// ErrPresenceUnavailable wraps every failure to obtain a presence record.
	ErrPresenceUnavailable = errors.New("presence unavailable")
	// ErrProfileNotFound is returned when Steam reports no player for the id.
	ErrProfileNotFound = fmt.Errorf("%w: profile not found", ErrPresenceUnavailable)
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "unauthorized, check the API key",
	http.StatusForbidden:           "forbidden, check the API key",
	http.StatusNotFound:            "data not found",
	http.StatusTooManyRequests:     "rate limit exceeded",
	http.StatusInternalServerError: "internal server error",
	http.StatusBadGateway:          "bad gateway",
	http.StatusServiceUnavailable:  "service unavailable",
	http.StatusGatewayTimeout:      "gateway timeout",
}

// Client is a read-only Steam Web API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root (useful for testing).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds the duration of a single request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// NewClient returns a client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("steam api key cannot be empty")
	}

	client := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

type playerSummaries struct {
	Response struct {
		Players []struct {
			SteamID       string `json:"steamid"`
			PersonaName   string `json:"personaname"`
			AvatarFull    string `json:"avatarfull"`
			GameExtraInfo string `json:"gameextrainfo"`
			GameID        string `json:"gameid"`
		} `json:"players"`
	} `json:"response"`
}

// FetchPresence returns the presence of profileID. Every failure wraps ErrPresenceUnavailable.
func (c *Client) FetchPresence(ctx context.Context, profileID string) (domain.PresenceRecord, error) {
	if strings.TrimSpace(profileID) == "" {
		return domain.PresenceRecord{}, fmt.Errorf("%w: empty profile id", ErrPresenceUnavailable)
	}

	data, err := c.request(ctx, profileID)
	if err != nil {
		return domain.PresenceRecord{}, fmt.Errorf("%w: %w", ErrPresenceUnavailable, err)
	}

	var summaries playerSummaries
	if err := json.Unmarshal(data, &summaries); err != nil {
		return domain.PresenceRecord{}, fmt.Errorf("%w: malformed response: %w", ErrPresenceUnavailable, err)
	}
	if len(summaries.Response.Players) == 0 {
		return domain.PresenceRecord{}, fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
	}

	player := summaries.Response.Players[0]
	activity := player.GameExtraInfo
	if activity == "" {
		activity = NotPlaying
	}

	return domain.PresenceRecord{
		ProfileID:   profileID,
		DisplayName: player.PersonaName,
		AvatarURL:   player.AvatarFull,
		Activity:    activity,
		GameID:      player.GameID,
	}, nil
}

func (c *Client) request(ctx context.Context, profileID string) ([]byte, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("steamids", profileID)
	endpoint := c.baseURL + playerSummariesRoute + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		// The URL carries the API key; report the transport error only.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		message, ok := statusMessages[res.StatusCode]
		if !ok {
			message = "unexpected status"
		}
		return nil, fmt.Errorf("steam api responded %d: %s", res.StatusCode, message)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
