package nav

import (
	"strings"

	"gatenav/internal/atlas"
	"gatenav/internal/graph"
)

// FieldFilter selects asteroid fields for a region search.
// The zero value matches every sector that has a field.
type FieldFilter struct {
	Ware         string `json:"ware"`
	MinOre       int64  `json:"min_ore"`
	MinAsteroids int    `json:"min_asteroids"`
}

// Predicate returns the filter as a region search predicate.
func (f FieldFilter) Predicate() graph.Predicate[atlas.AsteroidField] {
	ware := strings.ToLower(strings.TrimSpace(f.Ware))
	return func(field atlas.AsteroidField) bool {
		if ware != "" && strings.ToLower(field.Ware) != ware {
			return false
		}
		return field.Ore >= f.MinOre && field.Asteroids >= f.MinAsteroids
	}
}
