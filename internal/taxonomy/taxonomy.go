// Package taxonomy defines the fixed vocabulary of cognitive distortions
// and maps free-text labels onto it.
//
// The thirteen canonical distortions carry IDs 1..13 in a fixed order;
// ID 0 is reserved for "no distortion applies / unknown". Normalization
// is pure and total: any input yields either a canonical ID or no match,
// never an error.
package taxonomy

import "strings"

// UnknownID is the reserved distortion ID for thoughts where no canonical
// distortion applies or the label could not be mapped.
const UnknownID = 0

// UnknownName is the display name of the reserved catch-all distortion.
const UnknownName = "UnknownDistortion"

// Canonical lists the thirteen distortion display names in ID order:
// Canonical[i] has distortion ID i+1.
var Canonical = [...]string{
	"All-or-Nothing Thinking",
	"Overgeneralizing",
	"Labeling",
	"Fortune Telling",
	"Mind Reading",
	"Emotional Reasoning",
	"Should Statements",
	"Personalizing",
	"Disqualifying the Positive",
	"Catastrophizing",
	"Comparing and Despairing",
	"Blaming",
	"Negative Feeling or Emotion",
}

// lowerToID maps the lowercase form of each canonical name to its ID.
var lowerToID = func() map[string]int {
	m := make(map[string]int, len(Canonical))
	for i, name := range Canonical {
		m[strings.ToLower(name)] = i + 1
	}
	return m
}()

// Name returns the display name for a distortion ID.
// UnknownID and out-of-range IDs return UnknownName.
func Name(id int) string {
	if id < 1 || id > len(Canonical) {
		return UnknownName
	}
	return Canonical[id-1]
}

// Normalize maps a free-text label to a canonical distortion ID.
//
// Matching is case-insensitive. When the label holds several
// comma-separated names only the first is considered. Empty input and
// the literal "none" yield no match. Unmatched labels yield no match;
// callers log them for manual review rather than failing.
func Normalize(label string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" || normalized == "none" {
		return 0, false
	}
	first, _, _ := strings.Cut(normalized, ",")
	id, ok := lowerToID[strings.TrimSpace(first)]
	return id, ok
}

// NormalizeExact maps a label to a canonical distortion ID by exact
// display-name match after trimming surrounding whitespace.
func NormalizeExact(label string) (int, bool) {
	stripped := strings.TrimSpace(label)
	for i, name := range Canonical {
		if stripped == name {
			return i + 1, true
		}
	}
	return 0, false
}
