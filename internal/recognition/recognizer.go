package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// Detector locates faces in a photo. Implemented by faceapi.Client.
type Detector interface {
	ExtractFaces(ctx context.Context, imageData []byte) ([]faceapi.Box, error)
}

// Embedder computes one embedding for a single-face image. Implemented by
// faceapi.Client.
type Embedder interface {
	Represent(ctx context.Context, imageData []byte) ([]float32, error)
}

// MarkEvent records one ledger interaction during a photo run.
type MarkEvent struct {
	Name       string         `json:"name"`
	Outcome    ledger.Outcome `json:"-"`
	Confidence float64        `json:"confidence"`
}

// PhotoResult is everything a single recognition run produced.
type PhotoResult struct {
	Image   image.Image   `json:"-"`
	Results []MatchResult `json:"results"`
	Marks   []MarkEvent   `json:"marks"`
}

// Recognizer runs the detect, crop, embed, match, mark cycle for one photo
// at a time against a fixed roster.
type Recognizer struct {
	detector  Detector
	embedder  Embedder
	roster    *roster.Roster
	ledger    ledger.Ledger
	threshold float64
	quiet     bool
}

// New creates a recognizer. Quiet suppresses per-face skip warnings, for
// machine-readable output modes.
func New(detector Detector, embedder Embedder, ros *roster.Roster, led ledger.Ledger, threshold float64, quiet bool) *Recognizer {
	return &Recognizer{
		detector:  detector,
		embedder:  embedder,
		roster:    ros,
		ledger:    led,
		threshold: threshold,
		quiet:     quiet,
	}
}

// Threshold returns the cosine distance threshold in effect.
func (r *Recognizer) Threshold() float64 {
	return r.threshold
}

// ProcessPhoto recognizes known identities in one photo and marks attendance
// for every accepted match. Faces whose crop fails to embed are skipped with
// a warning; a ledger write failure aborts the run so no record is silently
// lost. Returns roster.ErrNoIdentities when the roster is empty; matching
// against nothing is a terminal state, not a quiet no-op.
func (r *Recognizer) ProcessPhoto(ctx context.Context, imageData []byte, now time.Time) (*PhotoResult, error) {
	if r.roster.Empty() {
		return nil, roster.ErrNoIdentities
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()

	boxes, err := r.detector.ExtractFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	if !r.quiet {
		fmt.Printf("Detected %d face(s)\n", len(boxes))
	}

	result := &PhotoResult{Image: img}
	for i, box := range boxes {
		box = box.ClampTo(bounds.Dx(), bounds.Dy())

		crop, err := encodeCrop(img, box)
		if err != nil {
			r.warnf("Warning: skipping face %d: %v\n", i, err)
			continue
		}

		emb, err := r.embedder.Represent(ctx, crop)
		if err != nil {
			r.warnf("Warning: skipping face %d (embedding failed): %v\n", i, err)
			continue
		}

		match, err := Match(emb, r.roster.Identities(), r.threshold)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		match.Box = box
		result.Results = append(result.Results, match)

		if !match.Accepted {
			continue
		}

		outcome, err := r.ledger.Mark(ctx, match.Name, match.Confidence, now)
		if err != nil {
			return nil, fmt.Errorf("failed to mark attendance for %s: %w", match.Name, err)
		}
		result.Marks = append(result.Marks, MarkEvent{
			Name:       match.Name,
			Outcome:    outcome,
			Confidence: ledger.RoundConfidence(match.Confidence),
		})
	}

	return result, nil
}

// encodeCrop cuts the box out of the photo and re-encodes it as JPEG for the
// embedder.
func encodeCrop(img image.Image, box faceapi.Box) ([]byte, error) {
	rect := image.Rect(0, 0, box.W, box.H)
	crop := image.NewRGBA(rect)
	src := image.Pt(img.Bounds().Min.X+box.X, img.Bounds().Min.Y+box.Y)
	draw.Draw(crop, rect, img, src, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Recognizer) warnf(format string, args ...any) {
	if !r.quiet {
		fmt.Printf(format, args...)
	}
}
