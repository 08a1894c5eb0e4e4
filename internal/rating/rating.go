// Package rating derives a location's 0-100 display score from its reviews.
package rating

import (
	"math"

	"studyspots/internal/model"
)

// Max is the top of the display scale; a 5 star review maps to it.
const Max = 100

const starsToScale = Max / 5

// Average returns round(mean(stars) * 20), or 0 when there are no reviews.
// Rounding is half away from zero.
func Average(reviews []model.Review) int {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return Scale(sum / float64(len(reviews)))
}

// Scale maps a star value onto the display scale. Seeding a new location
// uses it directly so that a single review location agrees with Average.
func Scale(stars float64) int {
	return int(math.Round(stars * starsToScale))
}

// ValidStars reports whether v is a half star step in (0, 5].
func ValidStars(v float64) bool {
	if v <= 0 || v > 5 {
		return false
	}
	return v*2 == math.Trunc(v*2)
}
