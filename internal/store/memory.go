package store

import (
	"context"
	"strconv"
	"sync"

	"studyspots/internal/model"
)

// Memory keeps both collections in process. It backs tests and
// STORE_DRIVER=memory.
type Memory struct {
	mu        sync.RWMutex
	locations []model.Location
	reviews   []model.Review
	seen      map[string]bool
}

func NewMemory() *Memory {
	return &Memory{seen: map[string]bool{}}
}

func (m *Memory) ListLocations(ctx context.Context) ([]model.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Location, len(m.locations))
	copy(out, m.locations)
	return out, nil
}

func (m *Memory) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	assignID(&loc)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, loc)
	return strconv.FormatInt(loc.ID, 10), nil
}

func (m *Memory) ListReviews(ctx context.Context) ([]model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Review, len(m.reviews))
	copy(out, m.reviews)
	return out, nil
}

func (m *Memory) InsertReviews(ctx context.Context, reviews []model.Review) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range reviews {
		if r.ID == "" {
			r.ID = newReviewID()
		}
		if m.seen[r.ID] {
			continue
		}
		m.seen[r.ID] = true
		m.reviews = append(m.reviews, r)
		n++
	}
	return n, nil
}

func (m *Memory) Close() {}
