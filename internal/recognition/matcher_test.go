package recognition

import (
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/roster"
)

func TestMatchNearestIdentity(t *testing.T) {
	identities := []roster.Identity{
		{Name: "Alice", Embedding: []float32{1, 0, 0}},
		{Name: "Bob", Embedding: []float32{0, 1, 0}},
		{Name: "Carol", Embedding: []float32{0, 0, 1}},
	}

	// Much closer to Bob than to the others.
	got, err := Match([]float32{0.1, 1, 0.1}, identities, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Accepted {
		t.Fatal("expected match to be accepted")
	}
	if got.Name != "Bob" {
		t.Errorf("expected Bob, got %s", got.Name)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("confidence out of range: %v", got.Confidence)
	}
}

func TestMatchRejectedReportsUnknown(t *testing.T) {
	identities := []roster.Identity{
		{Name: "Alice", Embedding: []float32{1, 0}},
	}

	// Orthogonal, distance 1, far above the threshold.
	got, err := Match([]float32{0, 1}, identities, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accepted {
		t.Fatal("expected match to be rejected")
	}
	if got.Name != UnknownName {
		t.Errorf("rejected match must not leak the nearest name, got %s", got.Name)
	}
	if got.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", got.Confidence)
	}
}

func TestMatchThresholdInclusive(t *testing.T) {
	identities := []roster.Identity{
		{Name: "Alice", Embedding: []float32{1, 0}},
	}

	// Orthogonal pair, distance exactly 1, threshold exactly 1.
	got, err := Match([]float32{0, 1}, identities, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Accepted {
		t.Errorf("distance equal to threshold must be accepted, got distance %v", got.Distance)
	}
	if got.Name != "Alice" {
		t.Errorf("expected Alice, got %s", got.Name)
	}
}

func TestMatchTieKeepsFirstIdentity(t *testing.T) {
	// Two identities at exactly the same distance from the probe. The
	// first one in load order must win on every run.
	identities := []roster.Identity{
		{Name: "First", Embedding: []float32{1, 0}},
		{Name: "Second", Embedding: []float32{1, 0}},
	}

	for i := 0; i < 10; i++ {
		got, err := Match([]float32{1, 0}, identities, 0.4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "First" {
			t.Fatalf("run %d: tie broken towards %s, expected First", i, got.Name)
		}
	}
}

func TestMatchEmptyIdentities(t *testing.T) {
	got, err := Match([]float32{1, 0}, nil, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accepted {
		t.Error("expected no acceptance against empty identity list")
	}
	if got.Name != UnknownName {
		t.Errorf("expected %s, got %s", UnknownName, got.Name)
	}
	if !math.IsInf(got.Distance, 1) {
		t.Errorf("expected infinite distance, got %v", got.Distance)
	}
}

func TestMatchDimensionMismatch(t *testing.T) {
	identities := []roster.Identity{
		{Name: "Alice", Embedding: []float32{1, 0, 0}},
	}

	if _, err := Match([]float32{1, 0}, identities, 0.4); err == nil {
		t.Error("expected error for mismatched embedding dimensions")
	}
}

func TestMatchDeterministic(t *testing.T) {
	identities := []roster.Identity{
		{Name: "Alice", Embedding: []float32{0.9, 0.1, 0.2}},
		{Name: "Bob", Embedding: []float32{0.1, 0.8, 0.3}},
	}
	probe := []float32{0.85, 0.15, 0.25}

	first, err := Match(probe, identities, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := Match(probe, identities, 0.4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != first {
			t.Fatalf("run %d: result changed: %+v vs %+v", i, got, first)
		}
	}
}
