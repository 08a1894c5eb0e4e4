package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyspots/internal/filter"
	"studyspots/internal/markers"
	"studyspots/internal/model"
	"studyspots/internal/rating"
	"studyspots/internal/store"
)

type flakyBackend struct {
	*store.Memory
	failList   bool
	failInsert bool
}

func (f *flakyBackend) ListLocations(ctx context.Context) ([]model.Location, error) {
	if f.failList {
		return nil, errors.New("connection refused")
	}
	return f.Memory.ListLocations(ctx)
}

func (f *flakyBackend) InsertReviews(ctx context.Context, rs []model.Review) (int, error) {
	if f.failInsert {
		return 0, errors.New("502 bad gateway")
	}
	return f.Memory.InsertReviews(ctx, rs)
}

func (f *flakyBackend) InsertLocation(ctx context.Context, loc model.Location) (string, error) {
	if f.failInsert {
		return "", errors.New("502 bad gateway")
	}
	return f.Memory.InsertLocation(ctx, loc)
}

func clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func campus(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	for _, loc := range []model.Location{
		{ID: 1, Name: "Bapst", NoiseLevel: model.NoiseSilent, Coordinates: model.Coordinates{-7922674.95, 5211429.2},
			Seating:      model.NewSeating("Desk Chairs"),
			Amenities:    []model.Amenity{{Name: "Historical Site"}, {Name: "Quiet Zone"}},
			MaxOccupancy: "50-100"},
		{ID: 2, Name: "O'Neill", NoiseLevel: model.NoiseQuiet, Coordinates: model.Coordinates{-7922600, 5211350},
			Seating: model.ParseSeating("Desk Chairs, Couches"), MaxOccupancy: "100+"},
		{ID: 3, Name: "Eagle's Nest", NoiseLevel: model.NoiseLoud, Coordinates: model.Coordinates{-7922750, 5211500},
			Seating: model.NewSeating("Booths"), MaxOccupancy: "10-20"},
	} {
		_, err := m.InsertLocation(ctx, loc)
		require.NoError(t, err)
	}
	_, err := m.InsertReviews(ctx, []model.Review{
		{ID: "r1", ReviewText: "Plenty of outlets", Rating: 4, LocationName: "O'Neill"},
		{ID: "r2", ReviewText: "Always a seat", Rating: 5, LocationName: "O'Neill"},
		{ID: "r3", ReviewText: "Loud at lunch", Rating: 2.5, LocationID: 3, LocationName: "Eagle's Nest"},
		{ID: "r4", ReviewText: "Nobody knows this place", Rating: 1, LocationName: "Demolished Hall"},
	})
	require.NoError(t, err)
	return m
}

func loaded(t *testing.T, b Backend) *Controller {
	t.Helper()
	c := New(b, Options{Now: clock(), Campus: "Boston College"})
	require.NoError(t, c.Load(context.Background()))
	return c
}

func activeMarkers(v View) []int64 {
	var ids []int64
	for _, m := range v.Markers {
		if m.Style == markers.Active {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func TestLoadBarrier(t *testing.T) {
	c := New(campus(t), Options{Now: clock()})
	v := c.View()
	assert.True(t, v.Loading)
	assert.Empty(t, v.Markers)

	require.NoError(t, c.Load(context.Background()))
	v = c.View()
	assert.False(t, v.Loading)
	assert.Len(t, v.Markers, 3)
}

func TestLoadJoinsReviewsAndScores(t *testing.T) {
	c := loaded(t, campus(t))

	assert.Equal(t, 0, c.Score(1))
	assert.Equal(t, 90, c.Score(2))
	assert.Equal(t, 50, c.Score(3))

	for _, loc := range c.Locations() {
		assert.Equal(t, c.Score(loc.ID), loc.GeneralRating, loc.Name)
	}
}

func TestLoadMergesEmbeddedReviews(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seed := model.Review{ID: "rev-initial-1", ReviewText: "Mine", Rating: 3, LocationName: "Fulton"}
	_, err := m.InsertLocation(ctx, model.Location{ID: 7, Name: "Fulton", Reviews: []model.Review{seed}})
	require.NoError(t, err)
	_, err = m.InsertReviews(ctx, []model.Review{seed, {ID: "x", Rating: 5, LocationID: 7, LocationName: "Fulton"}})
	require.NoError(t, err)

	c := loaded(t, m)
	assert.Equal(t, 80, c.Score(7))
	assert.Nil(t, c.Locations()[0].Reviews)
}

func TestLoadGivesLegacyLocationsStableIDs(t *testing.T) {
	c := New(store.NewMemory(), Options{})
	c.merge([]model.Location{{Name: "Higgins"}}, []model.Review{{ID: "h", Rating: 2, LocationName: "Higgins"}})
	c.loaded = true

	locs := c.Locations()
	require.Len(t, locs, 1)
	assert.Equal(t, legacyID("Higgins"), locs[0].ID)
	assert.NotZero(t, locs[0].ID)
	assert.Equal(t, 40, c.Score(locs[0].ID))
}

func TestLoadFailureLeavesEmptySession(t *testing.T) {
	c := New(&flakyBackend{Memory: campus(t), failList: true}, Options{Now: clock()})
	err := c.Load(context.Background())
	require.Error(t, err)

	v := c.View()
	assert.False(t, v.Loading)
	assert.Empty(t, v.Markers)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeLoadFailed, v.Notices[0].Kind)
}

func TestMarkerClicksAreMutuallyExclusive(t *testing.T) {
	c := loaded(t, campus(t))

	require.NoError(t, c.HandleMapClick(MapClick{FeatureID: 1}))
	v := c.View()
	assert.Equal(t, LocationSelected, v.Mode)
	assert.Equal(t, []int64{1}, activeMarkers(v))
	require.NotNil(t, v.Panel)
	assert.Equal(t, "Bapst", v.Panel.Location.Name)

	require.NoError(t, c.HandleMapClick(MapClick{FeatureID: 2}))
	v = c.View()
	assert.Equal(t, []int64{2}, activeMarkers(v))
	require.NotNil(t, v.Panel)
	assert.Equal(t, 90, v.Panel.Rating)
	assert.Len(t, v.Panel.Reviews, 2)

	require.NoError(t, c.HandleMapClick(MapClick{FeatureID: 2}))
	v = c.View()
	assert.Equal(t, Idle, v.Mode)
	assert.Empty(t, activeMarkers(v))
	assert.Nil(t, v.Panel)

	for _, id := range []int64{3, 1, 1, 2, 3, 3, 2} {
		require.NoError(t, c.SelectMarker(id))
		assert.LessOrEqual(t, len(activeMarkers(c.View())), 1)
	}
	assert.Equal(t, []int64{2}, activeMarkers(c.View()))
}

func TestClickOnEmptyMapDoesNothing(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SelectMarker(1))
	before := c.View()

	require.NoError(t, c.HandleMapClick(MapClick{Coordinate: model.Coordinates{10, 10}}))
	after := c.View()
	assert.Equal(t, before.ActiveID, after.ActiveID)
	assert.Equal(t, LocationSelected, after.Mode)
}

func TestClickOnUnknownMarker(t *testing.T) {
	c := loaded(t, campus(t))
	assert.ErrorIs(t, c.SelectMarker(99), ErrUnknownLocation)
}

func TestClosePanel(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SelectMarker(3))
	require.NoError(t, c.ClosePanel())

	v := c.View()
	assert.Equal(t, Idle, v.Mode)
	assert.Zero(t, v.ActiveID)
	assert.Nil(t, v.Panel)
}

func TestFilterHidesActiveLocation(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SelectMarker(3))

	require.NoError(t, c.SetFilters(filter.Criteria{
		NoiseLevels: []model.NoiseLevel{model.NoiseSilent, model.NoiseQuiet},
	}))
	v := c.View()
	assert.Len(t, v.Markers, 2)
	assert.Zero(t, v.ActiveID)
	assert.Nil(t, v.Panel)
	assert.Equal(t, Idle, v.Mode)

	// A later filter that shows it again does not bring the selection back.
	require.NoError(t, c.SetFilters(filter.Criteria{}))
	assert.Empty(t, activeMarkers(c.View()))
}

func TestFilterKeepsVisibleActiveLocation(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SelectMarker(2))
	require.NoError(t, c.SetFilters(filter.Criteria{MinRating: 85}))

	v := c.View()
	require.Len(t, v.Markers, 1)
	assert.Equal(t, int64(2), v.ActiveID)
	assert.NotNil(t, v.Panel)
}

func TestRenderedMarkersMatchPredicate(t *testing.T) {
	c := loaded(t, campus(t))
	crit := filter.Criteria{Seating: []string{"Couches", "Booths"}, Occupancy: filter.Range{Min: 15, Max: 60}}
	require.NoError(t, c.SetFilters(crit))

	var want []int64
	for _, loc := range c.Locations() {
		if filter.Matches(loc, c.Score(loc.ID), crit) {
			want = append(want, loc.ID)
		}
	}
	var got []int64
	for _, m := range c.View().Markers {
		got = append(got, m.ID)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []int64{3}, got)
}

func TestSetFiltersRejectsInvalid(t *testing.T) {
	c := loaded(t, campus(t))
	var verr *ValidationError
	require.ErrorAs(t, c.SetFilters(filter.Criteria{MinRating: 150}), &verr)
	assert.Equal(t, "invalid_filters", verr.Code)
	assert.Len(t, c.View().Markers, 3)
}

func TestFilterPanelToggle(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SetFilterPanel(true))
	assert.True(t, c.View().FilterPanelOpen)
	require.NoError(t, c.SetFilterPanel(false))
	assert.False(t, c.View().FilterPanelOpen)
}

func TestReviewRoundTrip(t *testing.T) {
	m := campus(t)
	c := loaded(t, m)
	require.NoError(t, c.SelectMarker(1))

	r, err := c.SubmitReview(1, "Great spot", 4.5)
	require.NoError(t, err)
	assert.Equal(t, "Bapst", r.LocationName)
	assert.Equal(t, int64(1), r.LocationID)
	assert.Regexp(t, `^rev-\d+-[0-9a-f]{8}$`, r.ID)
	assert.Equal(t, 90, c.Score(1))

	_, err = c.SubmitReview(1, "Cold in winter", 3.5)
	require.NoError(t, err)
	assert.Equal(t, 80, c.Score(1))

	v := c.View()
	require.NotNil(t, v.Panel)
	assert.Equal(t, 80, v.Panel.Rating)
	require.Len(t, v.Panel.Reviews, 2)
	assert.Equal(t, "Great spot", v.Panel.Reviews[0].ReviewText)
	assert.Equal(t, "Cold in winter", v.Panel.Reviews[1].ReviewText)

	c.Wait()
	stored, err := m.ListReviews(context.Background())
	require.NoError(t, err)
	var forBapst []model.Review
	for _, s := range stored {
		if s.LocationID == 1 {
			forBapst = append(forBapst, s)
		}
	}
	require.Len(t, forBapst, 2)
	assert.Equal(t, "Great spot", forBapst[0].ReviewText)
}

func TestSubmitReviewValidation(t *testing.T) {
	c := loaded(t, campus(t))
	cases := []struct {
		text  string
		stars float64
		code  string
	}{
		{"", 4, "review_text_required"},
		{"   \n", 4, "review_text_required"},
		{"ok", 0, "rating_required"},
		{"ok", 3.3, "invalid_rating"},
		{"ok", 6, "invalid_rating"},
	}
	for _, tc := range cases {
		_, err := c.SubmitReview(1, tc.text, tc.stars)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "%q/%v", tc.text, tc.stars)
		assert.Equal(t, tc.code, verr.Code)
	}
	assert.Equal(t, 0, c.Score(1))
	assert.Equal(t, uint64(1), c.View().Version, "no state change after the load")
}

func TestSubmitReviewUnknownLocation(t *testing.T) {
	c := loaded(t, campus(t))
	_, err := c.SubmitReview(404, "Where is this", 3)
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestRelayFailureKeepsLocalReview(t *testing.T) {
	b := &flakyBackend{Memory: campus(t), failInsert: true}
	c := loaded(t, b)

	_, err := c.SubmitReview(1, "Great spot", 4.5)
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, 90, c.Score(1))
	v := c.View()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeRelayFailed, v.Notices[0].Kind)

	stored, _ := b.Memory.ListReviews(context.Background())
	assert.Len(t, stored, 4)
}

func TestRapidReviewsAreAllCounted(t *testing.T) {
	m := campus(t)
	c := loaded(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stars := 4.0
			if i%2 == 0 {
				stars = 5
			}
			_, err := c.SubmitReview(3, "busy", stars)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	c.Wait()

	// 2.5 plus ten 4s and ten 5s.
	assert.Equal(t, rating.Scale((2.5+40+50)/21), c.Score(3))

	stored, _ := m.ListReviews(context.Background())
	assert.Len(t, stored, 24)
}

func pickDraft() LocationForm {
	f := NewLocationForm()
	f.Name = "Devlin Lounge"
	f.Description = "Sunny corner"
	f.NoiseLevel = model.NoiseQuiet
	f.Seating = []string{"Couches"}
	f.Rating = 4
	f.ReviewText = "Comfy"
	f.Amenities = []string{"Water Fountain"}
	f.MaxOccupancy = "10-20"
	return f
}

func TestMapPickRoundTrip(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.SelectMarker(2))
	require.NoError(t, c.OpenAddLocation())
	assert.True(t, c.View().Form.Open)

	draft := pickDraft()
	require.NoError(t, c.RequestMapPick(draft))
	v := c.View()
	assert.Equal(t, AwaitingMapPick, v.Mode)
	assert.False(t, v.Form.Open)
	assert.Zero(t, v.ActiveID)

	// Marker toggling is suppressed while waiting.
	require.NoError(t, c.SelectMarker(1))
	assert.Equal(t, AwaitingMapPick, c.View().Mode)
	assert.Empty(t, activeMarkers(c.View()))

	// The click lands on a marker; the point pick wins.
	require.NoError(t, c.HandleMapClick(MapClick{
		Coordinate: model.Coordinates{-7922600.004, 5211350.5},
		FeatureID:  1,
	}))
	v = c.View()
	assert.Equal(t, Idle, v.Mode)
	assert.Empty(t, activeMarkers(v))
	assert.True(t, v.Form.Open)
	require.NotNil(t, v.Form.SeedCoordinate)
	assert.Equal(t, model.Coordinates{-7922600.004, 5211350.5}, *v.Form.SeedCoordinate)

	want := draft
	want.Coordinates = "-7922600.00, 5211350.50"
	assert.Equal(t, want, v.Form.Draft)
}

func TestMapPickConvertsLonLat(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.RequestMapPick(pickDraft()))
	require.NoError(t, c.HandleMapClick(MapClick{
		Coordinate: model.Coordinates{-71.1685, 42.3355},
		Projection: "EPSG:4326",
	}))
	v := c.View()
	assert.Equal(t, "-7922441.18, 5211368.96", v.Form.Draft.Coordinates)
}

func TestMapPickRejectsUnknownProjection(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.RequestMapPick(pickDraft()))
	var verr *ValidationError
	require.ErrorAs(t, c.HandleMapClick(MapClick{Projection: "EPSG:2249"}), &verr)
	assert.Equal(t, AwaitingMapPick, c.View().Mode)
}

func TestCancelAddLocationClearsPick(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.RequestMapPick(pickDraft()))
	require.NoError(t, c.CancelAddLocation())

	v := c.View()
	assert.Equal(t, Idle, v.Mode)
	assert.False(t, v.Form.Open)
	assert.Equal(t, NewLocationForm(), v.Form.Draft)

	// The next click is an ordinary click again.
	require.NoError(t, c.HandleMapClick(MapClick{FeatureID: 1}))
	assert.Equal(t, LocationSelected, c.View().Mode)
}

func TestCreateLocation(t *testing.T) {
	m := campus(t)
	c := loaded(t, m)
	require.NoError(t, c.OpenAddLocation())

	form := pickDraft()
	form.Coordinates = "-7922500, 5211400"
	form.Seating = []string{"Couches", "Desk Chairs", "Couches"}
	form.Rating = 3.5
	loc, err := c.CreateLocation(form)
	require.NoError(t, err)

	assert.Equal(t, "Devlin Lounge", loc.Name)
	assert.Equal(t, model.StatusInactive, loc.Status)
	assert.Equal(t, "Boston College", loc.Campus)
	assert.Equal(t, "Additional info about Devlin Lounge.", loc.OtherData)
	assert.Equal(t, model.Coordinates{-7922500, 5211400}, loc.Coordinates)
	assert.Equal(t, model.Seating{"Couches", "Desk Chairs"}, loc.Seating)
	assert.Equal(t, 70, loc.GeneralRating)
	assert.Equal(t, loc.GeneralRating, c.Score(loc.ID))
	require.Len(t, loc.Reviews, 1)
	assert.Equal(t, fmt.Sprintf("rev-initial-%d", loc.ID), loc.Reviews[0].ID)
	assert.Equal(t, loc.ID, loc.Reviews[0].LocationID)

	v := c.View()
	assert.Len(t, v.Markers, 4)
	assert.False(t, v.Form.Open)
	assert.Len(t, c.Locations(), 4)

	c.Wait()
	storedLocs, _ := m.ListLocations(context.Background())
	require.Len(t, storedLocs, 4)
	assert.Len(t, storedLocs[3].Reviews, 1)
	storedReviews, _ := m.ListReviews(context.Background())
	assert.Equal(t, loc.Reviews[0].ID, storedReviews[len(storedReviews)-1].ID)

	// Reload from the store: the seed review is not double counted.
	again := loaded(t, m)
	assert.Equal(t, 70, again.Score(loc.ID))
}

func TestCreateLocationIDsAreUnique(t *testing.T) {
	fixed := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	c := New(campus(t), Options{Now: func() time.Time { return fixed }})
	require.NoError(t, c.Load(context.Background()))

	a, err := c.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)
	b, err := c.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 80, c.Score(a.ID))
	assert.Equal(t, 80, c.Score(b.ID))
}

func withCoords(f LocationForm) LocationForm {
	f.Coordinates = "1, 2"
	return f
}

func TestCreateLocationValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*LocationForm)
		field string
		code  string
	}{
		{"no name", func(f *LocationForm) { f.Name = " " }, "name", "name_required"},
		{"no rating", func(f *LocationForm) { f.Rating = 0 }, "rating", "rating_required"},
		{"no review", func(f *LocationForm) { f.ReviewText = "" }, "reviewText", "review_text_required"},
		{"one coordinate", func(f *LocationForm) { f.Coordinates = "-7922600" }, "coordinates", "invalid_coordinates"},
		{"text coordinate", func(f *LocationForm) { f.Coordinates = "north, 5211350" }, "coordinates", "invalid_coordinates"},
		{"no occupancy", func(f *LocationForm) { f.MaxOccupancy = "" }, "maxOccupancy", "occupancy_required"},
		{"unknown preset", func(f *LocationForm) { f.MaxOccupancy = "3-4" }, "maxOccupancy", "invalid_occupancy"},
		{"custom min over max", func(f *LocationForm) {
			f.UseCustomOccupancy = true
			f.CustomMinOccupancy = 12
			f.CustomMaxOccupancy = 4
		}, "maxOccupancy", "invalid_occupancy_range"},
		{"unknown noise", func(f *LocationForm) { f.NoiseLevel = "Roaring" }, "noiseLevel", "invalid_noise_level"},
		{"unknown seating", func(f *LocationForm) { f.Seating = []string{"Beanbags"} }, "seating", "invalid_seating"},
		{"unknown amenity", func(f *LocationForm) { f.Amenities = []string{"Sauna"} }, "amenities", "invalid_amenity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := loaded(t, campus(t))
			f := withCoords(pickDraft())
			tc.edit(&f)

			_, err := c.CreateLocation(f)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.code, verr.Code)
			assert.Len(t, c.Locations(), 3)
		})
	}
}

func TestCreateLocationCustomOccupancy(t *testing.T) {
	c := loaded(t, campus(t))
	f := withCoords(pickDraft())
	f.MaxOccupancy = ""
	f.UseCustomOccupancy = true
	f.CustomMinOccupancy = 5
	f.CustomMaxOccupancy = 12

	loc, err := c.CreateLocation(f)
	require.NoError(t, err)
	assert.Equal(t, model.Occupancy("5-12"), loc.MaxOccupancy)
}

func TestCreateLocationRelayFailure(t *testing.T) {
	b := &flakyBackend{Memory: campus(t), failInsert: true}
	c := loaded(t, b)

	loc, err := c.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)
	c.Wait()

	assert.Len(t, c.Locations(), 4)
	assert.Equal(t, 80, c.Score(loc.ID))
	v := c.View()
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeRelayFailed, v.Notices[0].Kind)
}

func TestOnChangeReceivesEveryUpdate(t *testing.T) {
	var mu sync.Mutex
	var versions []uint64
	c := New(campus(t), Options{Now: clock(), OnChange: func(v View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	}})
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectMarker(1))
	require.NoError(t, c.ClosePanel())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, versions)
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Idle, LocationSelected, AwaitingMapPick} {
		b, err := m.MarshalText()
		require.NoError(t, err)
		var back Mode
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, m, back)
	}
	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("dancing")))
}

func TestOnChangeDeliversNewestViewLast(t *testing.T) {
	var mu sync.Mutex
	var got []View
	entered := make(chan struct{})
	unblock := make(chan struct{})
	c := New(campus(t), Options{Now: clock(), OnChange: func(v View) {
		if v.Version == 2 {
			close(entered)
			<-unblock
		}
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}})
	require.NoError(t, c.Load(context.Background()))

	selected := make(chan error, 1)
	go func() { selected <- c.SelectMarker(1) }()
	<-entered

	// Closing the panel while the selection is still being delivered must
	// neither wait for it nor be overtaken by it.
	require.NoError(t, c.ClosePanel())
	close(unblock)
	require.NoError(t, <-selected)

	final := c.View()
	mu.Lock()
	defer mu.Unlock()
	var versions []uint64
	for _, v := range got {
		versions = append(versions, v.Version)
	}
	assert.Equal(t, []uint64{1, 2, 3}, versions)
	last := got[len(got)-1]
	assert.Equal(t, final.Version, last.Version)
	assert.Nil(t, last.Panel)
	assert.Zero(t, last.ActiveID)
}

func TestOnChangeVersionsOnlyMoveForward(t *testing.T) {
	var mu sync.Mutex
	var versions []uint64
	c := New(campus(t), Options{Now: clock(), OnChange: func(v View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	}})
	require.NoError(t, c.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.SetFilterPanel(i%2 == 0))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, c.View().Version, versions[len(versions)-1])
}

func TestCreateLocationEndsPendingPick(t *testing.T) {
	c := loaded(t, campus(t))
	require.NoError(t, c.RequestMapPick(pickDraft()))

	_, err := c.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)
	assert.Equal(t, Idle, c.View().Mode)

	// The next click on a marker selects it instead of reopening the form.
	require.NoError(t, c.HandleMapClick(MapClick{Coordinate: model.Coordinates{1, 2}, FeatureID: 1}))
	v := c.View()
	assert.Equal(t, LocationSelected, v.Mode)
	assert.False(t, v.Form.Open)
	assert.Equal(t, NewLocationForm(), v.Form.Draft)
}

func TestLocationIDsDifferAcrossSessions(t *testing.T) {
	orig := idSuffix
	t.Cleanup(func() { idSuffix = orig })
	next := int64(0)
	idSuffix = func() int64 {
		next++
		return next
	}

	fixed := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }
	shared := campus(t)
	a := New(shared, Options{Now: now})
	b := New(shared, Options{Now: now})
	require.NoError(t, a.Load(context.Background()))
	require.NoError(t, b.Load(context.Background()))

	la, err := a.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)
	lb, err := b.CreateLocation(withCoords(pickDraft()))
	require.NoError(t, err)

	assert.NotEqual(t, la.ID, lb.ID)
	assert.NotEqual(t, la.Reviews[0].ID, lb.Reviews[0].ID)
	assert.Equal(t, fixed.UnixMilli(), la.ID/1000)
	assert.Equal(t, fixed.UnixMilli(), lb.ID/1000)
}

func TestNewLocationIDStaysJSONSafe(t *testing.T) {
	now := time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		id := newLocationID(now)
		assert.Equal(t, now.UnixMilli(), id/1000)
		assert.Less(t, id, int64(1)<<53)
	}
}
