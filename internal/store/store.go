// Package store persists the locations and reviews collections. Both are
// insert-only: there is no update, delete or query by field.
package store

import (
	"context"
	"time"

	"studyspots/internal/model"
)

type Store interface {
	ListLocations(ctx context.Context) ([]model.Location, error)
	// InsertLocation stores loc and returns the id it was stored under.
	InsertLocation(ctx context.Context, loc model.Location) (string, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	// InsertReviews stores reviews and returns how many were new.
	InsertReviews(ctx context.Context, reviews []model.Review) (int, error)
	Close()
}

// assignID gives id-less documents a creation timestamp id, matching how
// the map client mints location ids.
func assignID(loc *model.Location) {
	if loc.ID == 0 {
		loc.ID = time.Now().UnixMilli()
	}
}
