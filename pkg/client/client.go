// Package client provides the PokéAPI HTTP client: single-record lookups and
// the full listing, with retry, circuit breaking and typed errors.
// It performs no caching; that is the aggregator's responsibility.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// DefaultBaseURL is the public PokéAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Metric labels use templated endpoints to keep cardinality bounded.
const (
	endpointOne     = "/pokemon/{nameOrId}"
	endpointListing = "/pokemon/"
)

// errUpstreamNotFound marks a 404 inside the request pipeline. Callers turn it
// into a NotFoundError (single lookup) or a TransportError (listing).
var errUpstreamNotFound = errors.New("upstream returned 404")

// Client is the PokéAPI client.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root without trailing slash (e.g. https://pokeapi.co/api/v2).
	BaseURL string

	// UserAgent header sent with every request (REQUIRED).
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// ListingLimit is passed as ?limit= on the listing call. 0 keeps the upstream default.
	ListingLimit int

	// Retry controls backoff for retriable failures.
	Retry RetryConfig

	// Breaker controls the upstream circuit breaker.
	Breaker BreakerConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
		Breaker:   DefaultBreakerConfig(),
	}
}

// New creates a new PokéAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.ListingLimit < 0 {
		return nil, fmt.Errorf("listing_limit must be >= 0 (got %d)", cfg.ListingLimit)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := logging.NewLogger("pokeapi-client")

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}
	if !cfg.Breaker.Disabled {
		c.breaker = newBreaker(cfg.Breaker, logger)
	}

	return c, nil
}

// pokemonResponse is the subset of the upstream detail payload we map.
type pokemonResponse struct {
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	Height         int    `json:"height"`
	BaseExperience int    `json:"base_experience"`
}

// listResponse is the upstream listing payload.
type listResponse struct {
	Count   int                 `json:"count"`
	Results []pokemon.Reference `json:"results"`
}

// NormalizeID lower-cases and trims an identifier; upstream only accepts lowercase.
func NormalizeID(nameOrID string) string {
	return strings.ToLower(strings.TrimSpace(nameOrID))
}

// FetchOne looks up a single record by name or numeric id.
// Returns *NotFoundError when upstream has no such record and an error
// wrapping *TransportError for every other failure.
func (c *Client) FetchOne(ctx context.Context, nameOrID string) (*pokemon.Pokemon, error) {
	id := NormalizeID(nameOrID)
	if id == "" {
		return nil, &NotFoundError{NameOrID: nameOrID}
	}

	endpoint := "/pokemon/" + url.PathEscape(id)

	var payload *pokemonResponse
	err := c.get(ctx, "fetch_one", endpoint, endpointOne, &payload)
	if errors.Is(err, errUpstreamNotFound) {
		return nil, &NotFoundError{NameOrID: nameOrID}
	}
	if err != nil {
		return nil, err
	}

	if payload == nil {
		// a null body is upstream's way of saying "nothing here"
		return nil, &NotFoundError{NameOrID: nameOrID}
	}

	p := pokemon.New(payload.Name, payload.Weight, payload.Height, payload.BaseExperience)
	return &p, nil
}

// FetchListing retrieves the identifier listing in upstream order.
// Any failure, including a missing or malformed body, is a TransportError:
// without a listing there is nothing to aggregate.
func (c *Client) FetchListing(ctx context.Context) ([]pokemon.Reference, error) {
	endpoint := "/pokemon/"
	if c.config.ListingLimit > 0 {
		endpoint += "?limit=" + strconv.Itoa(c.config.ListingLimit)
	}

	var payload *listResponse
	err := c.get(ctx, "fetch_listing", endpoint, endpointListing, &payload)
	if errors.Is(err, errUpstreamNotFound) {
		return nil, &TransportError{
			Op:         "fetch_listing",
			Endpoint:   endpoint,
			StatusCode: http.StatusNotFound,
			Class:      ErrorClassClient,
			Err:        err,
		}
	}
	if err != nil {
		return nil, err
	}

	if payload == nil || payload.Results == nil {
		pokeapiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &TransportError{
			Op:       "fetch_listing",
			Endpoint: endpoint,
			Class:    ErrorClassDecode,
			Err:      ErrMalformedListing,
		}
	}

	c.logger.Debug().
		Int("count", payload.Count).
		Int("results", len(payload.Results)).
		Msg("Fetched listing")

	return payload.Results, nil
}

// get performs a GET with breaker and retry, decoding the body into out.
func (c *Client) get(ctx context.Context, op, endpoint, label string, out any) error {
	return c.execute(op, endpoint, func() error {
		return retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
			return c.attempt(ctx, op, endpoint, label, out)
		})
	})
}

// attempt performs exactly one HTTP round trip.
func (c *Client) attempt(ctx context.Context, op, endpoint, label string, out any) error {
	startTime := time.Now()
	defer func() {
		pokeapiRequestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Endpoint: endpoint, Class: ErrorClassClient, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := classifyRequestError(ctx)
		pokeapiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		pokeapiRequestsTotal.WithLabelValues(label, string(errClass)).Inc()
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Str("error_class", string(errClass)).Msg("HTTP request failed")
		return &TransportError{Op: op, Endpoint: endpoint, Class: errClass, Err: err}
	}
	defer resp.Body.Close()

	pokeapiRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		pokeapiNotFoundTotal.Inc()
		return errUpstreamNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		errClass := classifyStatus(resp.StatusCode)
		pokeapiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")
		return &TransportError{
			Op:         op,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Class:      errClass,
			Err:        errors.New(resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		pokeapiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &TransportError{
			Op:         op,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	return nil
}

// classifyRequestError distinguishes caller cancellation from network failure.
func classifyRequestError(ctx context.Context) ErrorClass {
	if ctx.Err() != nil {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}

// classifyStatus maps a non-2xx, non-404 status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
