package ranking

import (
	"errors"
	"testing"

	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

func starters() []pokemon.Pokemon {
	return []pokemon.Pokemon{
		pokemon.New("butterfree", 320, 11, 178),
		pokemon.New("venusaur", 1000, 20, 263),
		pokemon.New("pidgeot", 395, 15, 216),
		pokemon.New("charizard", 905, 17, 267),
		pokemon.New("blastoise", 855, 16, 265),
	}
}

func names(items []pokemon.Pokemon) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func equalNames(got []pokemon.Pokemon, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Name != want[i] {
			return false
		}
	}
	return true
}

func TestTop(t *testing.T) {
	tests := []struct {
		name  string
		key   Key
		limit int
		want  []string
	}{
		{
			name:  "heaviest",
			key:   ByWeight,
			limit: 5,
			want:  []string{"venusaur", "charizard", "blastoise", "pidgeot", "butterfree"},
		},
		{
			name:  "heaviest top 2",
			key:   ByWeight,
			limit: 2,
			want:  []string{"venusaur", "charizard"},
		},
		{
			name:  "highest",
			key:   ByHeight,
			limit: 3,
			want:  []string{"venusaur", "charizard", "blastoise"},
		},
		{
			name:  "most experienced",
			key:   ByExperience,
			limit: 1,
			want:  []string{"charizard"},
		},
		{
			name:  "limit larger than collection",
			key:   ByWeight,
			limit: 50,
			want:  []string{"venusaur", "charizard", "blastoise", "pidgeot", "butterfree"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Top(starters(), tt.key, tt.limit)
			if err != nil {
				t.Fatalf("Top() error = %v", err)
			}
			if !equalNames(got, tt.want...) {
				t.Errorf("Top() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestTop_TiesKeepCollectionOrder(t *testing.T) {
	items := []pokemon.Pokemon{
		pokemon.New("first", 100, 1, 1),
		pokemon.New("heavy", 200, 1, 1),
		pokemon.New("second", 100, 1, 1),
		pokemon.New("third", 100, 1, 1),
	}

	got, err := Top(items, ByWeight, 3)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if !equalNames(got, "heavy", "first", "second") {
		t.Errorf("Top() = %v, want [heavy first second]", names(got))
	}
}

func TestTop_DoesNotModifyInput(t *testing.T) {
	items := starters()
	before := names(items)

	if _, err := Top(items, ByWeight, 3); err != nil {
		t.Fatalf("Top() error = %v", err)
	}

	if !equalNames(items, before...) {
		t.Errorf("input reordered to %v", names(items))
	}
}

func TestTop_EmptyCollection(t *testing.T) {
	got, err := Top(nil, ByHeight, 5)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Top(nil) = %#v, want empty slice", got)
	}
}

func TestTop_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -100} {
		if _, err := Top(starters(), ByWeight, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("Top(limit=%d) error = %v, want ErrInvalidLimit", limit, err)
		}
	}
}

func TestValidateLimit(t *testing.T) {
	if err := ValidateLimit(1); err != nil {
		t.Errorf("ValidateLimit(1) = %v", err)
	}
	if err := ValidateLimit(0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("ValidateLimit(0) = %v, want ErrInvalidLimit", err)
	}
}

func TestKey_String(t *testing.T) {
	tests := map[Key]string{
		ByWeight:     "weight",
		ByHeight:     "height",
		ByExperience: "experience",
		Key(9):       "key(9)",
	}
	for key, want := range tests {
		if got := key.String(); got != want {
			t.Errorf("Key(%d).String() = %q, want %q", int(key), got, want)
		}
	}
}
