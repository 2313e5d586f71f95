package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Sternrassler/pokeapi-ranker/internal/api"
	"github.com/Sternrassler/pokeapi-ranker/internal/config"
	"github.com/Sternrassler/pokeapi-ranker/internal/testutil"
	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// loadTestConfig loads the configuration against baseURL with no config
// file and no Redis tier.
func loadTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("os.Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("POKEAPI_BASE_URL", baseURL)
	t.Setenv("POKEAPI_BREAKER_ENABLED", "false")
	t.Setenv("POKEAPI_RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("RATE_LIMIT_DISABLED", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func newTestRouter(t *testing.T, mock *testutil.MockPokeAPI) http.Handler {
	t.Helper()
	cfg := loadTestConfig(t, mock.URL())

	pokeClient, err := client.New(cfg.ClientConfig())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = pokeClient.Close() })

	return api.NewRouter(newService(cfg, pokeClient, nil), routerConfig(cfg))
}

func TestHealthEndpoint(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	newTestRouter(t, mock).ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint_WithoutRedis(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	newTestRouter(t, mock).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestRankingEndToEnd(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	mock.AddPokemon("butterfree", 320, 11, 178)
	mock.AddPokemon("venusaur", 1000, 20, 263)
	mock.AddPokemon("pidgeot", 395, 15, 216)
	mock.AddPokemon("charizard", 905, 17, 267)
	mock.AddPokemon("blastoise", 855, 16, 265)

	router := newTestRouter(t, mock)

	tests := []struct {
		path string
		want string
	}{
		{"/api/pokemon/heaviest?limit=3", "venusaur,charizard,blastoise"},
		{"/api/pokemon/highest?limit=2", "venusaur,charizard"},
		{"/api/pokemon/most-experienced?limit=1", "charizard"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d, body %s", tt.path, w.Code, w.Body.String())
		}

		var items []pokemon.Pokemon
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("GET %s: decode: %v", tt.path, err)
		}
		names := make([]string, len(items))
		for i, p := range items {
			names[i] = p.Name
		}
		if got := strings.Join(names, ","); got != tt.want {
			t.Errorf("GET %s = %s, want %s", tt.path, got, tt.want)
		}
	}

	if mock.GetListingCount() != 1 {
		t.Errorf("listing requests = %d, want 1 (collection is cached)", mock.GetListingCount())
	}
}

func TestUpstreamDown(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	mock.SetListingResponse(testutil.NewServerErrorResponse())
	defer mock.Close()

	req := httptest.NewRequest("GET", "/api/pokemon", nil)
	w := httptest.NewRecorder()
	newTestRouter(t, mock).ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}

func TestRouterConfig(t *testing.T) {
	cfg := loadTestConfig(t, "http://localhost:1")
	rc := routerConfig(cfg)

	if rc.DefaultLimit != cfg.API.DefaultLimit || rc.MaxLimit != cfg.API.MaxLimit {
		t.Errorf("routerConfig() limits = %d/%d", rc.DefaultLimit, rc.MaxLimit)
	}
	if !rc.RateLimitDisabled {
		t.Error("RateLimitDisabled should carry over")
	}
}

func TestConnectRedis_Errors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := connectRedis(ctx, "://bad"); err == nil {
		t.Error("connectRedis() should reject an invalid URL")
	}
	if _, err := connectRedis(ctx, "redis://127.0.0.1:1/0"); err == nil {
		t.Error("connectRedis() should fail when Redis is unreachable")
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	cfg := loadTestConfig(t, mock.URL())
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}
