package seed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"studyspots/internal/model"
)

// ParseLocationsXLSX reads locations from the first sheet of a workbook.
// The first row is a header; recognised columns are name, x, y,
// description, noise level, seating, amenities, max occupancy and id.
// Seating and amenities cells are comma separated.
func ParseLocationsXLSX(path string) ([]model.Location, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	h := rows[0]
	col := map[string]int{
		"name":        headerIndex(h, "name"),
		"x":           headerIndex(h, "x", "coordinate x"),
		"y":           headerIndex(h, "y", "coordinate y"),
		"description": headerIndex(h, "description"),
		"noise":       headerIndex(h, "noise level", "noiselevel", "noise"),
		"seating":     headerIndex(h, "seating"),
		"amenities":   headerIndex(h, "amenities"),
		"occupancy":   headerIndex(h, "max occupancy", "maxoccupancy", "occupancy"),
		"id":          headerIndex(h, "id"),
	}
	for _, required := range []string{"name", "x", "y"} {
		if col[required] < 0 {
			return nil, fmt.Errorf("sheet %s: missing %q column", sheet, required)
		}
	}

	var out []model.Location
	for i, row := range rows[1:] {
		name := cell(row, col["name"])
		if name == "" {
			continue
		}
		x, errX := strconv.ParseFloat(cell(row, col["x"]), 64)
		y, errY := strconv.ParseFloat(cell(row, col["y"]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("row %d (%s): invalid coordinates", i+2, name)
		}

		loc := model.Location{
			Name:         name,
			Coordinates:  model.Coordinates{x, y},
			Status:       model.StatusInactive,
			Description:  cell(row, col["description"]),
			NoiseLevel:   model.NoiseLevel(cell(row, col["noise"])),
			Seating:      model.ParseSeating(cell(row, col["seating"])),
			MaxOccupancy: model.Occupancy(cell(row, col["occupancy"])),
		}
		for _, a := range splitList(cell(row, col["amenities"])) {
			loc.Amenities = append(loc.Amenities, model.Amenity{Name: a})
		}
		if s := cell(row, col["id"]); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s): invalid id %q", i+2, name, s)
			}
			loc.ID = id
		}
		out = append(out, loc)
	}
	return out, nil
}

func headerIndex(headers []string, candidates ...string) int {
	for i, h := range headers {
		hl := strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if hl == c {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
