package model

type NoiseLevel string

const (
	NoiseSilent   NoiseLevel = "Silent"
	NoiseQuiet    NoiseLevel = "Quiet"
	NoiseModerate NoiseLevel = "Moderate"
	NoiseLoud     NoiseLevel = "Loud"
)

var NoiseLevels = []NoiseLevel{NoiseSilent, NoiseQuiet, NoiseModerate, NoiseLoud}

func (n NoiseLevel) Valid() bool {
	for _, v := range NoiseLevels {
		if v == n {
			return true
		}
	}
	return false
}

var SeatingOptions = []string{
	"Desk Chairs",
	"Cushioned Chairs",
	"Couches",
	"Booths",
}

var AmenityCatalog = []string{
	"Water Fountain",
	"Quiet Zone",
	"Study Rooms",
	"Projector",
	"Classrooms",
	"Historical Site",
	"Conference Rooms",
	"Cafeteria Nearby",
	"Desks",
	"Tables",
	"Printer",
	"Whiteboard",
	"Whiteboards",
}

var OccupancyPresets = []Occupancy{
	"1-5",
	"5-10",
	"10-20",
	"20-30",
	"30-50",
	"50-100",
	"100+",
}

func ValidSeating(v string) bool { return contains(SeatingOptions, v) }

func ValidAmenity(v string) bool { return contains(AmenityCatalog, v) }

func ValidOccupancyPreset(o Occupancy) bool {
	for _, p := range OccupancyPresets {
		if p == o {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
