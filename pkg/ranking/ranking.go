// Package ranking orders entity collections by a numeric attribute.
package ranking

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// ErrInvalidLimit is returned for a ranking limit below 1.
var ErrInvalidLimit = errors.New("limit must be at least 1")

// Key selects the attribute a ranking orders by.
type Key int

const (
	// ByWeight ranks by Weight.
	ByWeight Key = iota
	// ByHeight ranks by Height.
	ByHeight
	// ByExperience ranks by BaseExperience.
	ByExperience
)

// String returns the metric label of the key.
func (k Key) String() string {
	switch k {
	case ByWeight:
		return "weight"
	case ByHeight:
		return "height"
	case ByExperience:
		return "experience"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

func (k Key) value(p pokemon.Pokemon) int {
	switch k {
	case ByHeight:
		return p.Height
	case ByExperience:
		return p.BaseExperience
	default:
		return p.Weight
	}
}

// ValidateLimit rejects limits below 1.
func ValidateLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidLimit, limit)
	}
	return nil
}

// Top returns at most limit entities ordered by key, largest first. Equal
// values keep their order in items. items is not modified.
func Top(items []pokemon.Pokemon, key Key, limit int) ([]pokemon.Pokemon, error) {
	if err := ValidateLimit(limit); err != nil {
		return nil, err
	}

	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b pokemon.Pokemon) int {
		return cmp.Compare(key.value(b), key.value(a))
	})

	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []pokemon.Pokemon{}
	}
	return ranked, nil
}
