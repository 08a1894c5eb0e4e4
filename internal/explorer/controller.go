package explorer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"studyspots/internal/filter"
	"studyspots/internal/geo"
	"studyspots/internal/markers"
	"studyspots/internal/model"
	"studyspots/internal/rating"
)

type Options struct {
	// RelayTimeout bounds each write-through to the backend.
	RelayTimeout time.Duration
	// Campus is stamped on created locations.
	Campus string
	// OnChange receives the view after state changes, outside the lock.
	// Calls never overlap and arrive in version order. A view superseded
	// while an earlier call is still running is skipped.
	OnChange func(View)
	Now      func() time.Time
}

// Controller owns one session's locations, review index and UI state.
// Every exported method runs to completion under the controller's lock.
type Controller struct {
	backend Backend
	opts    Options

	mu        sync.Mutex
	version   uint64
	loaded    bool
	locations []model.Location
	byID      map[int64]int
	index     *reviewIndex
	scores    map[int64]int
	filters   filter.Criteria
	activeID  int64
	mode      Mode
	filterUI  bool
	form      FormState
	rendered  markers.Set
	notices   []Notice
	pending   *View

	pubMu sync.Mutex

	relayMu  sync.Mutex
	queue    []relayJob
	draining bool
	relays   sync.WaitGroup
}

func New(backend Backend, opts Options) *Controller {
	if opts.RelayTimeout <= 0 {
		opts.RelayTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		backend: backend,
		opts:    opts,
		byID:    map[int64]int{},
		index:   newReviewIndex(),
		scores:  map[int64]int{},
		form:    FormState{Draft: NewLocationForm()},
	}
}

// update applies fn under the lock, re-renders the markers and publishes
// the resulting view.
func (c *Controller) update(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.render()
	c.version++
	if c.opts.OnChange != nil {
		v := c.view()
		c.pending = &v
	}
	c.mu.Unlock()

	c.publish()
	return nil
}

// publish hands pending views to OnChange. Whoever holds pubMu delivers
// the newest pending view until none is left; everyone else returns at
// once and leaves their view to the holder.
func (c *Controller) publish() {
	if c.opts.OnChange == nil {
		return
	}
	for {
		if !c.pubMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			v := c.pending
			c.pending = nil
			c.mu.Unlock()
			if v == nil {
				break
			}
			c.opts.OnChange(*v)
		}
		c.pubMu.Unlock()

		// A view may have been left between the last check and Unlock.
		c.mu.Lock()
		again := c.pending != nil
		c.mu.Unlock()
		if !again {
			return
		}
	}
}

// Load fetches both collections and builds the session state. Markers are
// only rendered once both have arrived. On failure the session continues
// with no locations and a load_failed notice.
func (c *Controller) Load(ctx context.Context) error {
	locs, err := c.backend.ListLocations(ctx)
	var reviews []model.Review
	if err == nil {
		reviews, err = c.backend.ListReviews(ctx)
	}

	if err != nil {
		log.Printf("load locations/reviews: %v", err)
		_ = c.update(func() error {
			c.loaded = true
			c.pushNotice(NoticeLoadFailed, "Could not load study spaces.")
			return nil
		})
		return fmt.Errorf("load: %w", err)
	}

	return c.update(func() error {
		c.merge(locs, reviews)
		c.loaded = true
		return nil
	})
}

func (c *Controller) merge(locs []model.Location, reviews []model.Review) {
	c.locations = make([]model.Location, 0, len(locs))
	c.byID = make(map[int64]int, len(locs))
	c.index = newReviewIndex()
	c.scores = make(map[int64]int, len(locs))

	byName := make(map[string]int64, len(locs))
	for _, loc := range locs {
		if loc.ID == 0 {
			loc.ID = legacyID(loc.Name)
		}
		if _, dup := c.byID[loc.ID]; dup {
			log.Printf("skip location %q: duplicate id %d", loc.Name, loc.ID)
			continue
		}
		if _, ok := byName[loc.Name]; !ok {
			byName[loc.Name] = loc.ID
		}
		for _, r := range loc.Reviews {
			r.LocationID = loc.ID
			c.index.add(r)
		}
		loc.Reviews = nil
		c.byID[loc.ID] = len(c.locations)
		c.locations = append(c.locations, loc)
	}

	orphans := 0
	for _, r := range reviews {
		id := r.LocationID
		if _, ok := c.byID[id]; !ok {
			id, ok = byName[r.LocationName]
			if !ok {
				orphans++
				continue
			}
		}
		r.LocationID = id
		c.index.add(r)
	}
	if orphans > 0 {
		log.Printf("dropped %d reviews with no matching location", orphans)
	}

	for _, loc := range c.locations {
		c.rescore(loc.ID)
	}
}

func (c *Controller) rescore(id int64) {
	score := rating.Average(c.index.of(id))
	c.scores[id] = score
	if i, ok := c.byID[id]; ok {
		c.locations[i].GeneralRating = score
	}
}

// render rebuilds the marker set. An active location that is no longer
// visible is deactivated and its panel closed.
func (c *Controller) render() {
	if !c.loaded {
		c.rendered = markers.Set{}
		return
	}
	c.rendered = markers.Project(c.locations, c.scores, c.filters, c.activeID)
	if c.activeID != 0 && c.rendered.ActiveID == 0 {
		c.activeID = 0
		if c.mode == LocationSelected {
			c.mode = Idle
		}
	}
}

func (c *Controller) pushNotice(kind NoticeKind, msg string) {
	c.notices = append(c.notices, Notice{Kind: kind, Message: msg, At: c.opts.Now()})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *Controller) view() View {
	v := View{
		Version:         c.version,
		Mode:            c.mode,
		Loading:         !c.loaded,
		Filters:         c.filters,
		FilterPanelOpen: c.filterUI,
		Markers:         append([]markers.Marker(nil), c.rendered.Markers...),
		ActiveID:        c.activeID,
		Form:            c.form,
		Notices:         append([]Notice(nil), c.notices...),
	}
	if v.Markers == nil {
		v.Markers = []markers.Marker{}
	}
	if c.mode == LocationSelected && c.activeID != 0 {
		if m, ok := c.rendered.Find(c.activeID); ok {
			v.Panel = &Panel{
				LocationID: m.ID,
				Location:   m.Props,
				Rating:     m.Props.Rating,
				Reviews:    c.index.copyOf(m.ID),
			}
		}
	}
	return v
}

// Score is the derived rating of a location, 0 if it is unknown.
func (c *Controller) Score(locationID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scores[locationID]
}

// Locations returns a copy of the session's location list.
func (c *Controller) Locations() []model.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Location(nil), c.locations...)
}

// HandleMapClick is the single entry point for clicks on the map. While a
// point pick is pending the click always supplies the coordinate, even if
// it landed on a marker. Otherwise a click on a marker toggles it and a
// click on empty map does nothing.
func (c *Controller) HandleMapClick(click MapClick) error {
	return c.update(func() error {
		if c.mode == AwaitingMapPick {
			return c.capturePick(click)
		}
		if click.FeatureID == 0 {
			return nil
		}
		return c.toggle(click.FeatureID)
	})
}

// SelectMarker toggles a marker directly. It is ignored while a point pick
// is pending.
func (c *Controller) SelectMarker(id int64) error {
	return c.update(func() error {
		if c.mode == AwaitingMapPick {
			return nil
		}
		return c.toggle(id)
	})
}

func (c *Controller) toggle(id int64) error {
	if _, ok := c.rendered.Find(id); !ok {
		return ErrUnknownLocation
	}
	if c.activeID == id {
		c.activeID = 0
		c.mode = Idle
		return nil
	}
	c.activeID = id
	c.mode = LocationSelected
	return nil
}

func (c *Controller) capturePick(click MapClick) error {
	p, err := geo.ToNative(click.Coordinate, click.Projection)
	if err != nil {
		return invalid("projection", "unsupported_projection")
	}
	c.form.Draft.Coordinates = geo.Format(p)
	c.form.SeedCoordinate = &p
	c.form.Open = true
	c.mode = Idle
	return nil
}

func (c *Controller) ClosePanel() error {
	return c.update(func() error {
		c.activeID = 0
		if c.mode == LocationSelected {
			c.mode = Idle
		}
		return nil
	})
}

func (c *Controller) SetFilters(f filter.Criteria) error {
	if err := f.Validate(); err != nil {
		return invalid("filters", "invalid_filters")
	}
	return c.update(func() error {
		c.filters = f
		return nil
	})
}

func (c *Controller) SetFilterPanel(open bool) error {
	return c.update(func() error {
		c.filterUI = open
		return nil
	})
}

// OpenAddLocation shows the add-location modal, keeping any draft. A
// pending point pick is abandoned.
func (c *Controller) OpenAddLocation() error {
	return c.update(func() error {
		c.form.Open = true
		if c.mode == AwaitingMapPick {
			c.mode = Idle
		}
		return nil
	})
}

// RequestMapPick closes the modal, keeping draft, and waits for the next
// map click to supply its coordinates. Any selection is cleared.
func (c *Controller) RequestMapPick(draft LocationForm) error {
	return c.update(func() error {
		c.form.Draft = draft
		c.form.Open = false
		c.activeID = 0
		c.mode = AwaitingMapPick
		return nil
	})
}

// CancelAddLocation closes the modal, drops the draft and any pending pick.
func (c *Controller) CancelAddLocation() error {
	return c.update(func() error {
		c.form = FormState{Draft: NewLocationForm()}
		if c.mode == AwaitingMapPick {
			c.mode = Idle
		}
		return nil
	})
}
