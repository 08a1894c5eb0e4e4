package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Review is one user rating of a location. LocationID is the join key;
// LocationName is kept for documents written before reviews carried ids.
type Review struct {
	ID           string    `json:"id" dynamodbav:"id"`
	ReviewText   string    `json:"reviewText" dynamodbav:"review_text"`
	Rating       float64   `json:"rating" dynamodbav:"rating"`
	LocationID   int64     `json:"locationId,omitempty" dynamodbav:"location_id,omitempty"`
	LocationName string    `json:"locationName" dynamodbav:"location_name"`
	Date         time.Time `json:"date" dynamodbav:"date"`
	IsFeatured   bool      `json:"isFeatured" dynamodbav:"is_featured"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON accepts the date formats found in seeded review files. An
// unreadable date decodes as the zero time rather than failing the batch.
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Date = parseDate(aux.Date)
	return nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
