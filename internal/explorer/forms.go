package explorer

import (
	"errors"
	"fmt"
	"strings"

	"studyspots/internal/geo"
	"studyspots/internal/model"
	"studyspots/internal/rating"
)

var ErrUnknownLocation = errors.New("location not found")

// ValidationError reports bad user input. Nothing is mutated when one is
// returned.
type ValidationError struct {
	Field string `json:"field"`
	Code  string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

func invalid(field, code string) error {
	return &ValidationError{Field: field, Code: code}
}

// LocationForm mirrors the add-location modal fields.
type LocationForm struct {
	Name               string           `json:"name"`
	Coordinates        string           `json:"coordinates"`
	Description        string           `json:"description"`
	NoiseLevel         model.NoiseLevel `json:"noiseLevel"`
	Seating            []string         `json:"seating"`
	Rating             float64          `json:"rating"`
	ReviewText         string           `json:"reviewText"`
	Amenities          []string         `json:"amenities"`
	MaxOccupancy       model.Occupancy  `json:"maxOccupancy"`
	UseCustomOccupancy bool             `json:"useCustomOccupancy"`
	CustomMinOccupancy int              `json:"customMinOccupancy"`
	CustomMaxOccupancy int              `json:"customMaxOccupancy"`
}

func NewLocationForm() LocationForm {
	return LocationForm{CustomMinOccupancy: 1, CustomMaxOccupancy: 10}
}

type validLocation struct {
	coords    model.Coordinates
	occupancy model.Occupancy
}

func (f LocationForm) validate() (validLocation, error) {
	var v validLocation

	if strings.TrimSpace(f.Name) == "" {
		return v, invalid("name", "name_required")
	}
	if err := validateStars(f.Rating); err != nil {
		return v, err
	}
	if strings.TrimSpace(f.ReviewText) == "" {
		return v, invalid("reviewText", "review_text_required")
	}

	coords, err := geo.Parse(f.Coordinates)
	if err != nil {
		return v, invalid("coordinates", "invalid_coordinates")
	}
	v.coords = coords

	if f.UseCustomOccupancy {
		if f.CustomMinOccupancy < 0 || f.CustomMinOccupancy > f.CustomMaxOccupancy {
			return v, invalid("maxOccupancy", "invalid_occupancy_range")
		}
		v.occupancy = model.Occupancy(fmt.Sprintf("%d-%d", f.CustomMinOccupancy, f.CustomMaxOccupancy))
	} else {
		if f.MaxOccupancy == "" {
			return v, invalid("maxOccupancy", "occupancy_required")
		}
		if !model.ValidOccupancyPreset(f.MaxOccupancy) {
			return v, invalid("maxOccupancy", "invalid_occupancy")
		}
		v.occupancy = f.MaxOccupancy
	}

	if f.NoiseLevel != "" && !f.NoiseLevel.Valid() {
		return v, invalid("noiseLevel", "invalid_noise_level")
	}
	for _, s := range f.Seating {
		if !model.ValidSeating(s) {
			return v, invalid("seating", "invalid_seating")
		}
	}
	for _, a := range f.Amenities {
		if !model.ValidAmenity(a) {
			return v, invalid("amenities", "invalid_amenity")
		}
	}
	return v, nil
}

func validateStars(stars float64) error {
	if stars == 0 {
		return invalid("rating", "rating_required")
	}
	if !rating.ValidStars(stars) {
		return invalid("rating", "invalid_rating")
	}
	return nil
}
