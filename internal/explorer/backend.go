// Package explorer holds the map session state: which locations are
// visible, which one is selected, the add-location flow, and the review
// and location write paths. One Controller serves one map client.
package explorer

import (
	"context"

	"studyspots/internal/model"
)

// Backend is the locations/reviews store as seen by a session. Both
// store.Store and apiclient.Client satisfy it.
type Backend interface {
	ListLocations(ctx context.Context) ([]model.Location, error)
	InsertLocation(ctx context.Context, loc model.Location) (string, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	InsertReviews(ctx context.Context, reviews []model.Review) (int, error)
}
