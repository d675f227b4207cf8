package extract

import (
	"regexp"
	"strconv"
)

var markerPattern = regexp.MustCompile(`\[(\d{1,3})\]`)

// Markers extracts bracketed numeric citation markers from research prose,
// in order of first appearance. Markers are 1-indexed positions into the
// raw grounding record list; the upstream model is instructed to follow that
// convention but is not guaranteed to, so callers must tolerate out-of-range
// values.
func Markers(prose string) []int {
	matches := markerPattern.FindAllStringSubmatch(prose, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var markers []int
	for _, m := range matches {
		k, err := strconv.Atoi(m[1])
		if err != nil || k == 0 {
			continue
		}
		if !seen[k] {
			seen[k] = true
			markers = append(markers, k)
		}
	}

	return markers
}
