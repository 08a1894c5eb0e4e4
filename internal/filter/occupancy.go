package filter

import (
	"strconv"
	"strings"
)

// InRange checks a location's occupancy descriptor against [min, max].
// Missing or unparsable descriptors always match.
func InRange(occupancy string, min, max int) bool {
	occupancy = strings.TrimSpace(occupancy)
	if occupancy == "" {
		return true
	}

	if lo, hi, ok := parseSpan(occupancy); ok {
		return !(max < lo || min > hi)
	}

	v, err := strconv.Atoi(occupancy)
	if err != nil {
		return true
	}
	return min <= v && v <= max
}

// parseSpan reads "lo-hi", "lo-hi+" and "lo+". ok is false when the value
// is not a span; a span with unparsable bounds is reported as [0, Unbounded]
// so that it matches any filter.
func parseSpan(s string) (lo, hi int, ok bool) {
	if i := strings.Index(s, "-"); i > 0 {
		lo, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil {
			return 0, Unbounded, true
		}
		rest := strings.TrimSpace(s[i+1:])
		if strings.HasSuffix(rest, "+") {
			return lo, Unbounded, true
		}
		hi, err := strconv.Atoi(rest)
		if err != nil {
			return 0, Unbounded, true
		}
		return lo, hi, true
	}
	if strings.HasSuffix(s, "+") {
		lo, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "+")))
		if err != nil {
			return 0, Unbounded, true
		}
		return lo, Unbounded, true
	}
	return 0, 0, false
}
