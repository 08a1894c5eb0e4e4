package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StatusInactive is the status every location is created with. Marker
// styling is derived from the session's active id, not from this field.
const StatusInactive = "inactive"

// Coordinates is an (x, y) position in the map's projected plane (EPSG:3857).
type Coordinates [2]float64

func (c Coordinates) X() float64 { return c[0] }
func (c Coordinates) Y() float64 { return c[1] }

type Amenity struct {
	Name string `json:"name" dynamodbav:"name"`
}

// Location is a study space document as stored by the locations collection.
type Location struct {
	ID            int64       `json:"id" dynamodbav:"id"`
	Name          string      `json:"name" dynamodbav:"name"`
	Coordinates   Coordinates `json:"coordinates" dynamodbav:"coordinates"`
	Status        string      `json:"status,omitempty" dynamodbav:"status,omitempty"`
	Description   string      `json:"description" dynamodbav:"description"`
	OtherData     string      `json:"otherData,omitempty" dynamodbav:"other_data,omitempty"`
	Campus        string      `json:"location,omitempty" dynamodbav:"campus,omitempty"`
	Image         string      `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Amenities     []Amenity   `json:"amenities" dynamodbav:"amenities"`
	NoiseLevel    NoiseLevel  `json:"noiseLevel" dynamodbav:"noise_level"`
	Seating       Seating     `json:"seating" dynamodbav:"seating"`
	MaxOccupancy  Occupancy   `json:"maxOccupancy" dynamodbav:"max_occupancy"`
	InitialRating float64     `json:"initialRating,omitempty" dynamodbav:"initial_rating,omitempty"`
	GeneralRating int         `json:"generalRating" dynamodbav:"general_rating"`
	Reviews       []Review    `json:"reviews,omitempty" dynamodbav:"reviews,omitempty"`
}

func (l Location) AmenityNames() []string {
	out := make([]string, 0, len(l.Amenities))
	for _, a := range l.Amenities {
		out = append(out, a.Name)
	}
	return out
}

func (l Location) HasAmenity(name string) bool {
	for _, a := range l.Amenities {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Seating is an ordered set of seating types. Older documents store it as a
// single comma separated string, newer ones as a list; both decode here and
// it always encodes as a list.
type Seating []string

func NewSeating(values ...string) Seating {
	seen := make(map[string]bool, len(values))
	out := make(Seating, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ParseSeating splits the legacy delimited form.
func ParseSeating(s string) Seating {
	return NewSeating(strings.Split(s, ",")...)
}

func (s Seating) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func (s Seating) String() string {
	return strings.Join(s, ", ")
}

func (s *Seating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = ParseSeating(raw)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewSeating(list...)
	return nil
}

// Occupancy is the capacity descriptor of a location: "min-max", "N+", or
// empty. Some seeded documents carry a bare number, which is kept as text.
type Occupancy string

func (o *Occupancy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*o = Occupancy(strings.TrimSpace(raw))
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*o = Occupancy(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}
