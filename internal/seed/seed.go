// Package seed bulk-loads locations and reviews from the JSON files the
// map shipped with, or from a spreadsheet.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"

	"studyspots/internal/model"
)

// Inserter is the write half of the locations/reviews API.
type Inserter interface {
	InsertLocation(ctx context.Context, loc model.Location) (string, error)
	InsertReviews(ctx context.Context, reviews []model.Review) (int, error)
}

// ParseLocationsJSON reads {"locations": [...]} or a bare array.
func ParseLocationsJSON(r io.Reader) ([]model.Location, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var locs []model.Location
		if err := json.Unmarshal(raw, &locs); err != nil {
			return nil, fmt.Errorf("decode locations: %w", err)
		}
		return locs, nil
	}
	var doc struct {
		Locations []model.Location `json:"locations"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return doc.Locations, nil
}

// ParseReviewsJSON reads {"<location name>": [review, ...]} and flattens it,
// stamping each review with its location name. Output is ordered by name.
func ParseReviewsJSON(r io.Reader) ([]model.Review, error) {
	var byName map[string][]model.Review
	if err := json.NewDecoder(r).Decode(&byName); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []model.Review
	for _, name := range names {
		for _, rev := range byName[name] {
			rev.LocationName = name
			out = append(out, rev)
		}
	}
	return out, nil
}

type Result struct {
	Locations int
	Reviews   int
	Failed    int
}

// Run posts every location one by one, then all reviews in one batch.
// A failed location is logged and counted; the rest continue.
func Run(ctx context.Context, dst Inserter, locs []model.Location, reviews []model.Review) (Result, error) {
	var res Result
	for _, loc := range locs {
		id, err := dst.InsertLocation(ctx, loc)
		if err != nil {
			log.Printf("insert %s: %v", loc.Name, err)
			res.Failed++
			continue
		}
		log.Printf("inserted %s (%s)", loc.Name, id)
		res.Locations++
	}
	if len(reviews) == 0 {
		return res, nil
	}
	n, err := dst.InsertReviews(ctx, reviews)
	if err != nil {
		return res, fmt.Errorf("insert reviews: %w", err)
	}
	res.Reviews = n
	return res, nil
}
