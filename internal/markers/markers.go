// Package markers turns the visible locations into the marker set the map
// draws. The set is rebuilt from scratch on every change.
package markers

import (
	"studyspots/internal/filter"
	"studyspots/internal/model"
)

type Style string

const (
	Active   Style = "active"
	Inactive Style = "inactive"
)

// Properties is the attribute snapshot attached to a marker so the detail
// panel can be filled without going back to the location list.
type Properties struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Rating       int               `json:"generalRating"`
	Amenities    []string          `json:"amenities"`
	NoiseLevel   model.NoiseLevel  `json:"noiseLevel"`
	Seating      model.Seating     `json:"seating"`
	MaxOccupancy model.Occupancy   `json:"maxOccupancy"`
	Coordinates  model.Coordinates `json:"coordinates"`
}

type Marker struct {
	ID       int64             `json:"id"`
	Geometry model.Coordinates `json:"geometry"`
	Style    Style             `json:"style"`
	Props    Properties        `json:"properties"`
}

// Set is one full rendering. ActiveID is 0 when nothing is active.
type Set struct {
	Markers  []Marker `json:"markers"`
	ActiveID int64    `json:"activeId,omitempty"`
}

func (s Set) Find(id int64) (Marker, bool) {
	for _, m := range s.Markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

// Project renders every location that passes c. activeID only survives if
// its location is still visible; otherwise the returned ActiveID is 0.
func Project(locs []model.Location, scores map[int64]int, c filter.Criteria, activeID int64) Set {
	out := Set{Markers: make([]Marker, 0, len(locs))}
	for _, loc := range locs {
		score := scores[loc.ID]
		if !filter.Matches(loc, score, c) {
			continue
		}
		m := Marker{
			ID:       loc.ID,
			Geometry: loc.Coordinates,
			Style:    Inactive,
			Props: Properties{
				Name:         loc.Name,
				Description:  loc.Description,
				Rating:       score,
				Amenities:    loc.AmenityNames(),
				NoiseLevel:   loc.NoiseLevel,
				Seating:      loc.Seating,
				MaxOccupancy: loc.MaxOccupancy,
				Coordinates:  loc.Coordinates,
			},
		}
		if activeID != 0 && loc.ID == activeID {
			m.Style = Active
			out.ActiveID = activeID
		}
		out.Markers = append(out.Markers, m)
	}
	return out
}
