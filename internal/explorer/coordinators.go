package explorer

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyspots/internal/model"
	"studyspots/internal/rating"
)

// SubmitReview records a review for a location, rescoring it in the same
// update, and relays it to the backend. A failed relay does not undo the
// local change.
func (c *Controller) SubmitReview(locationID int64, text string, stars float64) (model.Review, error) {
	if strings.TrimSpace(text) == "" {
		return model.Review{}, invalid("reviewText", "review_text_required")
	}
	if err := validateStars(stars); err != nil {
		return model.Review{}, err
	}

	var r model.Review
	err := c.update(func() error {
		i, ok := c.byID[locationID]
		if !ok {
			return ErrUnknownLocation
		}
		now := c.opts.Now()
		r = model.Review{
			ID:           fmt.Sprintf("rev-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
			ReviewText:   text,
			Rating:       stars,
			LocationID:   locationID,
			LocationName: c.locations[i].Name,
			Date:         now.UTC(),
		}
		c.index.add(r)
		c.rescore(locationID)
		c.enqueue(relayJob{what: "review " + r.ID, run: func(ctx context.Context) error {
			_, err := c.backend.InsertReviews(ctx, []model.Review{r})
			return err
		}})
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	return r, nil
}

// idSuffix spreads locations created in the same millisecond by different
// sessions. It must stay below 1000.
var idSuffix = func() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint16(u[:2]) % 1000)
}

// newLocationID is the creation millisecond followed by three random
// digits. Ids stay below 2^53 until the year 2255, so JSON clients read
// them exactly.
func newLocationID(now time.Time) int64 {
	return now.UnixMilli()*1000 + idSuffix()
}

// CreateLocation validates the add-location form, adds the location with
// its creator's seed review, closes the modal and relays both records.
func (c *Controller) CreateLocation(form LocationForm) (model.Location, error) {
	valid, err := form.validate()
	if err != nil {
		return model.Location{}, err
	}

	var loc model.Location
	err = c.update(func() error {
		now := c.opts.Now()
		id := newLocationID(now)
		for {
			if _, taken := c.byID[id]; !taken {
				break
			}
			id++
		}

		name := strings.TrimSpace(form.Name)
		seed := model.Review{
			ID:           fmt.Sprintf("rev-initial-%d", id),
			ReviewText:   form.ReviewText,
			Rating:       form.Rating,
			LocationID:   id,
			LocationName: name,
			Date:         now.UTC(),
		}
		amenities := make([]model.Amenity, 0, len(form.Amenities))
		for _, a := range form.Amenities {
			amenities = append(amenities, model.Amenity{Name: a})
		}
		loc = model.Location{
			ID:            id,
			Name:          name,
			Coordinates:   valid.coords,
			Status:        model.StatusInactive,
			Description:   form.Description,
			OtherData:     fmt.Sprintf("Additional info about %s.", name),
			Campus:        c.opts.Campus,
			Amenities:     amenities,
			NoiseLevel:    form.NoiseLevel,
			Seating:       model.NewSeating(form.Seating...),
			MaxOccupancy:  valid.occupancy,
			InitialRating: form.Rating,
			GeneralRating: rating.Scale(form.Rating),
			Reviews:       []model.Review{seed},
		}

		local := loc
		local.Reviews = nil
		c.byID[id] = len(c.locations)
		c.locations = append(c.locations, local)
		c.index.add(seed)
		c.rescore(id)
		if c.scores[id] != loc.GeneralRating {
			log.Printf("seed score %d disagrees with aggregate %d for %q", loc.GeneralRating, c.scores[id], name)
		}

		c.form = FormState{Draft: NewLocationForm()}
		if c.mode == AwaitingMapPick {
			c.mode = Idle
		}

		doc := loc
		c.enqueue(relayJob{what: "location " + name, run: func(ctx context.Context) error {
			if _, err := c.backend.InsertLocation(ctx, doc); err != nil {
				return err
			}
			_, err := c.backend.InsertReviews(ctx, []model.Review{seed})
			return err
		}})
		return nil
	})
	if err != nil {
		return model.Location{}, err
	}
	return loc, nil
}
