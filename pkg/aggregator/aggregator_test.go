package aggregator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/pokeapi-ranker/pkg/cache"
	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/fanout"
	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
	"github.com/Sternrassler/pokeapi-ranker/pkg/ranking"
)

// fakeFetcher is an in-memory Fetcher with call accounting.
type fakeFetcher struct {
	mu         sync.Mutex
	listing    []string
	records    map[string]pokemon.Pokemon
	failing    map[string]error
	listingErr error
	gate       chan struct{}

	listingCalls int
	fetchCalls   map[string]int
}

func newFakeFetcher(records ...pokemon.Pokemon) *fakeFetcher {
	f := &fakeFetcher{
		records:    make(map[string]pokemon.Pokemon),
		failing:    make(map[string]error),
		fetchCalls: make(map[string]int),
	}
	for _, p := range records {
		f.listing = append(f.listing, p.Name)
		f.records[p.Name] = p
	}
	return f
}

func (f *fakeFetcher) FetchListing(ctx context.Context) ([]pokemon.Reference, error) {
	f.mu.Lock()
	f.listingCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	refs := make([]pokemon.Reference, len(f.listing))
	for i, name := range f.listing {
		refs[i] = pokemon.Reference{Name: name, URL: "https://pokeapi.test/pokemon/" + name}
	}
	return refs, nil
}

func (f *fakeFetcher) FetchOne(ctx context.Context, nameOrID string) (*pokemon.Pokemon, error) {
	id := client.NormalizeID(nameOrID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls[id]++

	if err, ok := f.failing[id]; ok {
		return nil, err
	}
	p, ok := f.records[id]
	if !ok {
		return nil, &client.NotFoundError{NameOrID: nameOrID}
	}
	return &p, nil
}

func (f *fakeFetcher) totalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.fetchCalls {
		total += n
	}
	return total
}

func (f *fakeFetcher) listings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listingCalls
}

func starters() []pokemon.Pokemon {
	return []pokemon.Pokemon{
		pokemon.New("butterfree", 320, 11, 178),
		pokemon.New("venusaur", 1000, 20, 263),
		pokemon.New("pidgeot", 395, 15, 216),
		pokemon.New("charizard", 905, 17, 267),
		pokemon.New("blastoise", 855, 16, 265),
	}
}

func newTestService(f *fakeFetcher) *Service {
	return New(f, fanout.NewPool(fanout.Config{MaxConcurrency: 4, Timeout: time.Second}), cache.NewCollection(cache.Config{}))
}

func itemNames(items []pokemon.Pokemon) string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return strings.Join(out, ",")
}

func TestGetAll_ListingOrderAndCaching(t *testing.T) {
	f := newFakeFetcher(starters()...)
	svc := newTestService(f)
	ctx := context.Background()

	items, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if got := itemNames(items); got != "butterfree,venusaur,pidgeot,charizard,blastoise" {
		t.Errorf("GetAll() = %s, want listing order", got)
	}
	if f.totalFetches() != 5 {
		t.Errorf("fetches = %d, want 5", f.totalFetches())
	}

	again, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("second GetAll() error = %v", err)
	}
	if len(again) != 5 {
		t.Errorf("second GetAll() len = %d, want 5", len(again))
	}
	if f.listings() != 1 || f.totalFetches() != 5 {
		t.Errorf("cache hit refetched: listings=%d fetches=%d", f.listings(), f.totalFetches())
	}
}

func TestGetAll_PartialFailuresDiscarded(t *testing.T) {
	f := newFakeFetcher(starters()...)
	f.failing["venusaur"] = &client.TransportError{Class: client.ErrorClassServer, StatusCode: 500}
	f.listing = append(f.listing, "missingno")
	svc := newTestService(f)

	items, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v, per-record failures must not fail the aggregate", err)
	}
	if got := itemNames(items); got != "butterfree,pidgeot,charizard,blastoise" {
		t.Errorf("GetAll() = %s", got)
	}
}

func TestGetAll_TwoOfFiveFail(t *testing.T) {
	f := newFakeFetcher(starters()...)
	f.failing["pidgeot"] = &client.TransportError{Class: client.ErrorClassNetwork}
	f.failing["blastoise"] = &client.NotFoundError{NameOrID: "blastoise"}
	svc := newTestService(f)

	items, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
}

func TestGetAll_CircuitOpenFailsPopulation(t *testing.T) {
	f := newFakeFetcher(starters()...)
	rejected := &client.TransportError{Op: "fetch_one", Class: client.ErrorClassCircuitOpen, Err: errors.New("circuit breaker is open")}
	f.failing["charizard"] = rejected
	f.failing["blastoise"] = rejected
	svc := newTestService(f)
	ctx := context.Background()

	items, err := svc.GetAll(ctx)
	if !client.IsCircuitOpen(err) {
		t.Fatalf("GetAll() = %d items, err = %v; want circuit_open TransportError", len(items), err)
	}
	if !strings.Contains(err.Error(), "2 of 5") {
		t.Errorf("error = %v, want rejected count", err)
	}

	f.mu.Lock()
	delete(f.failing, "charizard")
	delete(f.failing, "blastoise")
	f.mu.Unlock()

	items, err = svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() after circuit closed error = %v", err)
	}
	if len(items) != 5 || f.listings() != 2 {
		t.Errorf("len=%d listings=%d, want 5/2 (aborted population must not be cached)", len(items), f.listings())
	}
}

func TestGetAll_ListingFailureNotCached(t *testing.T) {
	f := newFakeFetcher(starters()...)
	f.listingErr = &client.TransportError{Op: "fetch_listing", Class: client.ErrorClassServer, StatusCode: 503}
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.GetAll(ctx)
	if !client.IsTransport(err) {
		t.Fatalf("GetAll() error = %v, want TransportError", err)
	}
	if f.totalFetches() != 0 {
		t.Errorf("fetches = %d, want 0 after listing failure", f.totalFetches())
	}

	f.mu.Lock()
	f.listingErr = nil
	f.mu.Unlock()

	items, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() after recovery error = %v", err)
	}
	if len(items) != 5 || f.listings() != 2 {
		t.Errorf("len=%d listings=%d, want 5/2", len(items), f.listings())
	}
}

func TestGetAll_EmptyListing(t *testing.T) {
	svc := newTestService(newFakeFetcher())

	items, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

func TestGetAll_ConcurrentFirstPopulation(t *testing.T) {
	f := newFakeFetcher(starters()...)
	f.gate = make(chan struct{})
	svc := newTestService(f)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := svc.GetAll(context.Background())
			if err != nil {
				t.Errorf("GetAll() error = %v", err)
			}
			results <- len(items)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(results)

	for n := range results {
		if n != 5 {
			t.Errorf("caller got %d items, want 5", n)
		}
	}
	if f.listings() != 1 {
		t.Errorf("listing calls = %d, want 1", f.listings())
	}
	if f.totalFetches() != 5 {
		t.Errorf("fetches = %d, want 5", f.totalFetches())
	}
}

func TestTopByWeight(t *testing.T) {
	svc := newTestService(newFakeFetcher(starters()...))

	top, err := svc.TopByWeight(context.Background(), 5)
	if err != nil {
		t.Fatalf("TopByWeight() error = %v", err)
	}

	want := []struct {
		name   string
		weight int
	}{
		{"venusaur", 1000},
		{"charizard", 905},
		{"blastoise", 855},
		{"pidgeot", 395},
		{"butterfree", 320},
	}
	if len(top) != len(want) {
		t.Fatalf("len = %d, want %d", len(top), len(want))
	}
	for i, w := range want {
		if top[i].Name != w.name || top[i].Weight != w.weight {
			t.Errorf("top[%d] = %s/%d, want %s/%d", i, top[i].Name, top[i].Weight, w.name, w.weight)
		}
	}
}

func TestTopByHeightAndExperience(t *testing.T) {
	svc := newTestService(newFakeFetcher(starters()...))
	ctx := context.Background()

	highest, err := svc.TopByHeight(ctx, 2)
	if err != nil {
		t.Fatalf("TopByHeight() error = %v", err)
	}
	if got := itemNames(highest); got != "venusaur,charizard" {
		t.Errorf("TopByHeight(2) = %s", got)
	}

	experienced, err := svc.TopByExperience(ctx, 3)
	if err != nil {
		t.Fatalf("TopByExperience() error = %v", err)
	}
	if got := itemNames(experienced); got != "charizard,blastoise,venusaur" {
		t.Errorf("TopByExperience(3) = %s", got)
	}
}

func TestTop_InvalidLimitFetchesNothing(t *testing.T) {
	f := newFakeFetcher(starters()...)
	svc := newTestService(f)
	ctx := context.Background()

	checks := []func(context.Context, int) ([]pokemon.Pokemon, error){
		svc.TopByWeight, svc.TopByHeight, svc.TopByExperience,
	}
	for _, top := range checks {
		for _, limit := range []int{0, -3} {
			if _, err := top(ctx, limit); !errors.Is(err, ranking.ErrInvalidLimit) {
				t.Errorf("limit %d: error = %v, want ErrInvalidLimit", limit, err)
			}
		}
	}

	if f.listings() != 0 || f.totalFetches() != 0 {
		t.Errorf("invalid limit caused fetches: listings=%d fetches=%d", f.listings(), f.totalFetches())
	}
}

func TestTop_PropagatesListingFailure(t *testing.T) {
	f := newFakeFetcher(starters()...)
	f.listingErr = &client.TransportError{Class: client.ErrorClassNetwork}
	svc := newTestService(f)

	if _, err := svc.TopByWeight(context.Background(), 5); !client.IsTransport(err) {
		t.Errorf("TopByWeight() error = %v, want TransportError", err)
	}
}

func TestGetOne(t *testing.T) {
	f := newFakeFetcher(pokemon.New("pikachu", 60, 4, 112))
	svc := newTestService(f)
	ctx := context.Background()

	p, err := svc.GetOne(ctx, "PIKACHU")
	if err != nil {
		t.Fatalf("GetOne() error = %v", err)
	}
	if *p != pokemon.New("pikachu", 60, 4, 112) {
		t.Errorf("GetOne() = %+v", p)
	}

	_, _ = svc.GetOne(ctx, "pikachu")
	if f.fetchCalls["pikachu"] != 2 {
		t.Errorf("fetches = %d, want 2 (single lookups are not cached)", f.fetchCalls["pikachu"])
	}
	if f.listings() != 0 {
		t.Error("GetOne must not touch the collection")
	}
}

func TestGetOne_NotFound(t *testing.T) {
	svc := newTestService(newFakeFetcher())

	_, err := svc.GetOne(context.Background(), "missing")

	var nf *client.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("GetOne() error = %v, want NotFoundError", err)
	}
	if nf.NameOrID != "missing" {
		t.Errorf("NameOrID = %q, want %q", nf.NameOrID, "missing")
	}
}

func TestInvalidate(t *testing.T) {
	f := newFakeFetcher(starters()...)
	svc := newTestService(f)
	ctx := context.Background()

	_, _ = svc.GetAll(ctx)
	svc.Invalidate(ctx)
	_, _ = svc.GetAll(ctx)
	_, _ = svc.GetAll(ctx)

	if f.listings() != 2 {
		t.Errorf("listing calls = %d, want 2", f.listings())
	}
	if f.totalFetches() != 10 {
		t.Errorf("fetches = %d, want 10", f.totalFetches())
	}
}

func TestReady_WithoutRedis(t *testing.T) {
	svc := newTestService(newFakeFetcher())

	if err := svc.Ready(context.Background()); err != nil {
		t.Errorf("Ready() = %v, want nil", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	svc := New(newFakeFetcher(), nil, nil)

	if svc.pool == nil || svc.collection == nil {
		t.Fatal("New should supply a default pool and collection")
	}
	if svc.pool.Config().MaxConcurrency != fanout.DefaultConfig().MaxConcurrency {
		t.Errorf("pool concurrency = %d", svc.pool.Config().MaxConcurrency)
	}
}

func TestNew_PanicsWithoutFetcher(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("New should panic with nil fetcher")
		}
	}()
	New(nil, nil, nil)
}
