// Package pokemon defines the creature records served by the ranking API.
package pokemon

import "fmt"

// Pokemon is a single creature record.
//
// Weight and Height are kept in upstream units (hectograms and decimetres).
// Values are never mutated after construction; copies are handed out freely.
type Pokemon struct {
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	Height         int    `json:"height"`
	BaseExperience int    `json:"baseExperience"`
}

// New creates a Pokemon from its four attributes.
func New(name string, weight, height, baseExperience int) Pokemon {
	return Pokemon{
		Name:           name,
		Weight:         weight,
		Height:         height,
		BaseExperience: baseExperience,
	}
}

// WeightKg returns the weight in kilograms.
func (p Pokemon) WeightKg() float64 {
	return float64(p.Weight) / 10
}

// HeightM returns the height in metres.
func (p Pokemon) HeightM() float64 {
	return float64(p.Height) / 10
}

// String renders the record in human units.
func (p Pokemon) String() string {
	return fmt.Sprintf("Name: %s\nWeight: %.1f kg\nHeight: %.1f m\nBase Experience: %d",
		p.Name, p.WeightKg(), p.HeightM(), p.BaseExperience)
}

// Reference is one entry of the upstream listing: a name plus the
// locator of its detail resource. It only drives fetch fan-out.
type Reference struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Names returns the names of refs in listing order.
func Names(refs []Reference) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}
