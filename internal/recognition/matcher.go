package recognition

import (
	"math"

	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// UnknownName is reported for detections that matched nothing well enough.
// The nearest-but-rejected identity is deliberately not leaked.
const UnknownName = "Unknown"

// MatchResult is the outcome of matching one detected face against the roster.
type MatchResult struct {
	Box        faceapi.Box `json:"box"`
	Name       string      `json:"name"`
	Distance   float64     `json:"distance"`
	Confidence float64     `json:"confidence"`
	Accepted   bool        `json:"accepted"`
}

// Match finds the known identity nearest to the detected embedding. The scan
// runs in roster load order and keeps the first identity on exact distance
// ties, so repeated calls with the same inputs return identical results. A
// match is accepted when the best distance does not exceed the threshold
// (inclusive). An empty identity list short-circuits without computing any
// distance.
func Match(embedding []float32, identities []roster.Identity, threshold float64) (MatchResult, error) {
	if len(identities) == 0 {
		return MatchResult{
			Name:     UnknownName,
			Distance: math.Inf(1),
		}, nil
	}

	bestDist := math.Inf(1)
	bestName := ""
	for _, id := range identities {
		dist, err := CosineDistance(embedding, id.Embedding)
		if err != nil {
			return MatchResult{}, err
		}
		if dist < bestDist {
			bestDist = dist
			bestName = id.Name
		}
	}

	accepted := bestDist <= threshold
	name := UnknownName
	if accepted {
		name = bestName
	}

	return MatchResult{
		Name:       name,
		Distance:   bestDist,
		Confidence: Confidence(bestDist, threshold),
		Accepted:   accepted,
	}, nil
}
