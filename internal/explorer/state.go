package explorer

import (
	"fmt"
	"time"

	"studyspots/internal/filter"
	"studyspots/internal/markers"
	"studyspots/internal/model"
)

type Mode int

const (
	Idle Mode = iota
	LocationSelected
	AwaitingMapPick
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case LocationSelected:
		return "location_selected"
	case AwaitingMapPick:
		return "awaiting_map_pick"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	for _, candidate := range []Mode{Idle, LocationSelected, AwaitingMapPick} {
		if candidate.String() == string(b) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}

// MapClick is a raw click on the map. Coordinate is in Projection
// (EPSG:3857 when empty). FeatureID is set when the click hit a marker.
type MapClick struct {
	Coordinate model.Coordinates `json:"coordinate"`
	Projection string            `json:"projection,omitempty"`
	FeatureID  int64             `json:"featureId,omitempty"`
}

type NoticeKind string

const (
	NoticeLoadFailed  NoticeKind = "load_failed"
	NoticeRelayFailed NoticeKind = "relay_failed"
)

// Notice is a non-blocking message for the map client.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

const maxNotices = 20

// FormState is the add-location modal. Draft survives closing the modal to
// pick a point on the map.
type FormState struct {
	Open           bool               `json:"open"`
	Draft          LocationForm       `json:"draft"`
	SeedCoordinate *model.Coordinates `json:"seedCoordinate,omitempty"`
}

// Panel is the detail side panel for the active location.
type Panel struct {
	LocationID int64              `json:"locationId"`
	Location   markers.Properties `json:"location"`
	Rating     int                `json:"generalRating"`
	Reviews    []model.Review     `json:"reviews"`
}

// View is a read-only snapshot handed to the map client after every change.
type View struct {
	Version         uint64           `json:"version"`
	Mode            Mode             `json:"mode"`
	Loading         bool             `json:"loading"`
	Filters         filter.Criteria  `json:"filters"`
	FilterPanelOpen bool             `json:"filterPanelOpen"`
	Markers         []markers.Marker `json:"markers"`
	ActiveID        int64            `json:"activeId,omitempty"`
	Panel           *Panel           `json:"panel,omitempty"`
	Form            FormState        `json:"form"`
	Notices         []Notice         `json:"notices"`
}
