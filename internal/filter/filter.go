// Package filter decides which locations are visible on the map.
package filter

import (
	"fmt"
	"math"

	"studyspots/internal/model"
	"studyspots/internal/rating"
)

// Unbounded is the upper bound used for open ranges such as "100+".
const Unbounded = math.MaxInt

// MaxJSONInt is the largest integer a JavaScript client sends exactly.
// Upper bounds at or above it read as unbounded.
const MaxJSONInt = 1<<53 - 1

// Range is a closed occupancy interval. With Min <= 0 it places no
// constraint when Max <= 0 (the zero value, {0,0} on the wire) or when Max
// is at least MaxJSONInt.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) Unconstrained() bool {
	return r.Min <= 0 && (r.Max <= 0 || r.Max >= MaxJSONInt)
}

// Criteria is the filter panel state. Empty sets mean "any".
type Criteria struct {
	MinRating   int                `json:"minRating"`
	NoiseLevels []model.NoiseLevel `json:"noiseLevels"`
	Seating     []string           `json:"seating"`
	Amenities   []string           `json:"amenities"`
	Occupancy   Range              `json:"occupancyRange"`
}

func (c Criteria) Validate() error {
	if c.MinRating < 0 || c.MinRating > rating.Max {
		return fmt.Errorf("minRating must be within 0..%d", rating.Max)
	}
	if !c.Occupancy.Unconstrained() && c.Occupancy.Min > c.Occupancy.Max {
		return fmt.Errorf("occupancy min %d exceeds max %d", c.Occupancy.Min, c.Occupancy.Max)
	}
	return nil
}

// Matches reports whether loc, whose derived score is score, passes every
// active dimension of c. Seating is OR (any overlap), amenities are AND.
func Matches(loc model.Location, score int, c Criteria) bool {
	if score < c.MinRating {
		return false
	}
	if len(c.NoiseLevels) > 0 && !hasNoise(c.NoiseLevels, loc.NoiseLevel) {
		return false
	}
	if len(c.Seating) > 0 && !anySeating(loc.Seating, c.Seating) {
		return false
	}
	for _, a := range c.Amenities {
		if !loc.HasAmenity(a) {
			return false
		}
	}
	if c.Occupancy.Unconstrained() {
		return true
	}
	return InRange(string(loc.MaxOccupancy), c.Occupancy.Min, c.Occupancy.Max)
}

func hasNoise(levels []model.NoiseLevel, n model.NoiseLevel) bool {
	if n == "" {
		return false
	}
	for _, l := range levels {
		if l == n {
			return true
		}
	}
	return false
}

func anySeating(have model.Seating, want []string) bool {
	for _, w := range want {
		if have.Contains(w) {
			return true
		}
	}
	return false
}
