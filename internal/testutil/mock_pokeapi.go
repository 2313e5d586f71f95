// Package testutil provides testing utilities for the PokéAPI client and aggregator.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MockResponse defines the behavior for a mock upstream endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPokeAPI is a configurable mock of the PokéAPI v2 pokemon endpoints.
// Records registered with AddPokemon appear in the listing in insertion order
// and are served from /pokemon/{name}.
type MockPokeAPI struct {
	server *httptest.Server
	mu     sync.RWMutex

	order     []string
	records   map[string]MockPokemon
	overrides map[string]MockResponse
	listing   *MockResponse

	// Tracking
	requestCount   int
	listingCount   int
	perName        map[string]int
	LastUserAgent  string
	LastRequestURI string
}

// MockPokemon is the upstream detail payload.
type MockPokemon struct {
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	Height         int    `json:"height"`
	BaseExperience int    `json:"base_experience"`
}

// NewMockPokeAPI creates a new mock upstream server.
func NewMockPokeAPI() *MockPokeAPI {
	mock := &MockPokeAPI{
		records:   make(map[string]MockPokemon),
		overrides: make(map[string]MockResponse),
		perName:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock API root, suitable as client BaseURL.
func (m *MockPokeAPI) URL() string {
	return m.server.URL + "/api/v2"
}

// Close shuts down the mock server.
func (m *MockPokeAPI) Close() {
	m.server.Close()
}

// AddPokemon registers a record and appends it to the listing.
func (m *MockPokeAPI) AddPokemon(name string, weight, height, baseExperience int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[name]; !exists {
		m.order = append(m.order, name)
	}
	m.records[name] = MockPokemon{Name: name, Weight: weight, Height: height, BaseExperience: baseExperience}
}

// AddListed appends a name to the listing without a backing record,
// so fetching it yields 404.
func (m *MockPokeAPI) AddListed(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, name)
}

// SetResponse overrides the response for /pokemon/{name}.
func (m *MockPokeAPI) SetResponse(name string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[name] = resp
}

// SetListingResponse overrides the listing response.
func (m *MockPokeAPI) SetListingResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listing = &resp
}

// GetRequestCount returns the total number of requests made to the server.
func (m *MockPokeAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetListingCount returns the number of listing requests.
func (m *MockPokeAPI) GetListingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listingCount
}

// GetFetchCount returns the number of detail requests for name.
func (m *MockPokeAPI) GetFetchCount(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.perName[name]
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.listingCount = 0
	m.perName = make(map[string]int)
	m.LastUserAgent = ""
	m.LastRequestURI = ""
}

func (m *MockPokeAPI) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v2")

	m.mu.Lock()
	m.requestCount++
	m.LastUserAgent = r.Header.Get("User-Agent")
	m.LastRequestURI = r.URL.RequestURI()
	if path == "/pokemon/" || path == "/pokemon" {
		m.listingCount++
	} else {
		m.perName[strings.TrimPrefix(path, "/pokemon/")]++
	}
	m.mu.Unlock()

	if path == "/pokemon/" || path == "/pokemon" {
		m.serveListing(w)
		return
	}

	if !strings.HasPrefix(path, "/pokemon/") {
		http.NotFound(w, r)
		return
	}
	m.serveDetail(w, strings.TrimPrefix(path, "/pokemon/"))
}

func (m *MockPokeAPI) serveListing(w http.ResponseWriter) {
	m.mu.RLock()
	override := m.listing
	results := make([]map[string]string, 0, len(m.order))
	for i, name := range m.order {
		results = append(results, map[string]string{
			"name": name,
			"url":  fmt.Sprintf("%s/api/v2/pokemon/%d/", m.server.URL, i+1),
		})
	}
	m.mu.RUnlock()

	if override != nil {
		writeResponse(w, *override)
		return
	}

	body, _ := json.Marshal(map[string]any{
		"count":    len(results),
		"next":     nil,
		"previous": nil,
		"results":  results,
	})
	writeResponse(w, NewOKResponse(string(body)))
}

func (m *MockPokeAPI) serveDetail(w http.ResponseWriter, name string) {
	m.mu.RLock()
	override, hasOverride := m.overrides[name]
	record, exists := m.records[name]
	m.mu.RUnlock()

	if hasOverride {
		writeResponse(w, override)
		return
	}
	if !exists {
		writeResponse(w, NewNotFoundResponse())
		return
	}

	body, _ := json.Marshal(record)
	writeResponse(w, NewOKResponse(string(body)))
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewOKResponse creates a standard 200 OK JSON response.
func NewOKResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates the upstream 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Not Found",
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return NewOKResponse(`{"name": "broken", "weight": `)
}
