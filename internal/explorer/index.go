package explorer

import (
	"hash/fnv"

	"studyspots/internal/model"
)

// reviewIndex groups reviews by location id, in arrival order.
type reviewIndex struct {
	byLocation map[int64][]model.Review
	seen       map[string]bool
}

func newReviewIndex() *reviewIndex {
	return &reviewIndex{
		byLocation: map[int64][]model.Review{},
		seen:       map[string]bool{},
	}
}

// add appends r under r.LocationID. Reviews already indexed under the same
// id are ignored.
func (ix *reviewIndex) add(r model.Review) bool {
	if r.ID != "" {
		if ix.seen[r.ID] {
			return false
		}
		ix.seen[r.ID] = true
	}
	ix.byLocation[r.LocationID] = append(ix.byLocation[r.LocationID], r)
	return true
}

func (ix *reviewIndex) of(locationID int64) []model.Review {
	return ix.byLocation[locationID]
}

func (ix *reviewIndex) copyOf(locationID int64) []model.Review {
	src := ix.byLocation[locationID]
	out := make([]model.Review, len(src))
	copy(out, src)
	return out
}

// legacyID gives documents without an id a stable one derived from the
// name, kept within the range a JSON number can carry exactly.
func legacyID(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	id := int64(h.Sum64() & (1<<53 - 1))
	if id == 0 {
		id = 1
	}
	return id
}
