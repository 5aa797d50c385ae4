// Package teamgen is the REST client for the TeamGenerator service, the
// authority for team and match reference data.
package teamgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 5 * time.Second

// Client fetches teams and matches from TeamGenerator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new TeamGenerator client.
//
// baseURL is the service root, e.g. "http://localhost:5252". A non-positive
// timeout selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAllTeams returns every team known to the authority.
func (c *Client) FetchAllTeams(ctx context.Context) ([]domain.Team, error) {
	body, err := c.doGet(ctx, "/api/TeamsData")
	if err != nil {
		return nil, fmt.Errorf("teamgen: get teams: %w", err)
	}

	var apiTeams []APITeam
	if err := json.Unmarshal(body, &apiTeams); err != nil {
		return nil, fmt.Errorf("teamgen: decode teams: %w", err)
	}

	teams := make([]domain.Team, 0, len(apiTeams))
	for _, t := range apiTeams {
		teams = append(teams, t.ToDomainTeam())
	}
	return teams, nil
}

// FetchAllMatches returns every match known to the authority.
func (c *Client) FetchAllMatches(ctx context.Context) ([]domain.Match, error) {
	body, err := c.doGet(ctx, "/api/Matches")
	if err != nil {
		return nil, fmt.Errorf("teamgen: get matches: %w", err)
	}

	var apiMatches []APIMatch
	if err := json.Unmarshal(body, &apiMatches); err != nil {
		return nil, fmt.Errorf("teamgen: decode matches: %w", err)
	}

	matches := make([]domain.Match, 0, len(apiMatches))
	for _, m := range apiMatches {
		matches = append(matches, m.ToDomainMatch())
	}
	return matches, nil
}

// GetTeam returns a single team. It returns domain.ErrNotFound on 404.
func (c *Client) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	body, err := c.doGet(ctx, "/api/TeamsData/"+url.PathEscape(id))
	if err != nil {
		return domain.Team{}, fmt.Errorf("teamgen: get team %s: %w", id, err)
	}

	var t APITeam
	if err := json.Unmarshal(body, &t); err != nil {
		return domain.Team{}, fmt.Errorf("teamgen: decode team: %w", err)
	}
	return t.ToDomainTeam(), nil
}

// GetMatch returns a single match. It returns domain.ErrNotFound on 404.
func (c *Client) GetMatch(ctx context.Context, id string) (domain.Match, error) {
	body, err := c.doGet(ctx, "/api/Matches/"+url.PathEscape(id))
	if err != nil {
		return domain.Match{}, fmt.Errorf("teamgen: get match %s: %w", id, err)
	}

	var m APIMatch
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.Match{}, fmt.Errorf("teamgen: decode match: %w", err)
	}
	return m.ToDomainMatch(), nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

var (
	_ domain.CatalogSource = (*Client)(nil)
	_ domain.CatalogLookup = (*Client)(nil)
)
