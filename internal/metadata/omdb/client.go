package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviweb/moviweb/internal/config"
)

var (
	ErrAPIKeyMissing     = errors.New("OMDb API key is not configured")
	ErrNotFound          = errors.New("not found on OMDb")
	ErrTimeout           = errors.New("OMDb request timed out")
	ErrConnection        = errors.New("failed to connect to OMDb")
	ErrMalformedResponse = errors.New("malformed OMDb response")
	ErrAPIError          = errors.New("OMDb API error")
)

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Search looks up movie candidates by title keyword.
// Results are returned in upstream order.
func (c *Client) Search(ctx context.Context, title string) ([]SearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if title == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("s", title)
	params.Set("type", "movie")

	var searchResp searchResponse
	if err := c.get(ctx, params, &searchResp); err != nil {
		return nil, err
	}

	if searchResp.Response == "False" {
		if isNotFoundError(searchResp.Error) {
			return nil, ErrNotFound
		}
		c.logger.Warn().Str("error", searchResp.Error).Str("title", title).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, searchResp.Error)
	}
	if searchResp.Response != "True" {
		return nil, fmt.Errorf("%w: missing response discriminator", ErrMalformedResponse)
	}

	results := make([]SearchResult, 0, len(searchResp.Search))
	for _, item := range searchResp.Search {
		results = append(results, SearchResult{
			Title:  item.Title,
			Year:   item.Year,
			ImdbID: item.ImdbID,
		})
	}

	c.logger.Debug().
		Str("title", title).
		Int("results", len(results)).
		Msg("searched OMDb")

	return results, nil
}

// GetByIMDbID fetches the full record for a title by IMDb ID.
func (c *Client) GetByIMDbID(ctx context.Context, imdbID string) (*MovieDetail, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if imdbID == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("i", imdbID)
	params.Set("plot", "short")

	var detailResp detailResponse
	if err := c.get(ctx, params, &detailResp); err != nil {
		return nil, err
	}

	if detailResp.Response == "False" {
		if isNotFoundError(detailResp.Error) {
			return nil, ErrNotFound
		}
		c.logger.Warn().Str("error", detailResp.Error).Str("imdbId", imdbID).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, detailResp.Error)
	}
	if detailResp.Response != "True" {
		return nil, fmt.Errorf("%w: missing response discriminator", ErrMalformedResponse)
	}

	detail := &MovieDetail{
		Title:    detailResp.Title,
		Director: emptyIfNA(detailResp.Director),
		Year:     emptyIfNA(detailResp.Year),
		Rating:   emptyIfNA(detailResp.ImdbRating),
		ImdbID:   detailResp.ImdbID,
		Plot:     emptyIfNA(detailResp.Plot),
	}

	c.logger.Debug().
		Str("imdbId", imdbID).
		Str("title", detail.Title).
		Msg("fetched OMDb detail")

	return detail, nil
}

// get performs a GET request against the OMDb endpoint and decodes the JSON
// body into out, classifying transport failures into the client's error set.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		c.logger.Error().Err(err).Msg("HTTP request failed")
		return fmt.Errorf("%w: %v", classified, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// classifyTransportError separates timeouts from connection failures.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrConnection
}

// isNotFoundError reports whether an OMDb business error means "no results",
// as opposed to a bad key or parameter problem.
func isNotFoundError(msg string) bool {
	switch msg {
	case "Movie not found!", "Incorrect IMDb ID.", "Series not found!":
		return true
	}
	return false
}

// emptyIfNA maps OMDb's "N/A" placeholder to an absent value.
func emptyIfNA(s string) string {
	if s == "N/A" {
		return ""
	}
	return s
}
