// Package report projects match results into user-facing output: display
// labels, matched/unmatched categories, the per-photo summary, and the
// annotated image. It never touches the ledger or the roster.
package report

import (
	"fmt"
	"sort"

	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// Category classifies a detection for downstream rendering.
type Category string

const (
	CategoryMatched   Category = "matched"
	CategoryUnmatched Category = "unmatched"
)

// Label renders the display label for one detection: "Name (93.5%)" for an
// accepted match, the literal "Unknown" otherwise.
func Label(r recognition.MatchResult) string {
	if !r.Accepted {
		return recognition.UnknownName
	}
	return fmt.Sprintf("%s (%.1f%%)", r.Name, r.Confidence*100)
}

// CategoryOf classifies one detection.
func CategoryOf(r recognition.MatchResult) Category {
	if r.Accepted {
		return CategoryMatched
	}
	return CategoryUnmatched
}

// RecognizedNames returns the distinct accepted identity names for a photo
// in lexicographic order.
func RecognizedNames(results []recognition.MatchResult) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range results {
		if r.Accepted && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	sort.Strings(names)
	return names
}
