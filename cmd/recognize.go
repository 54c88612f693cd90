package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/report"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize known people in a group photo and mark attendance",
	Long: `Recognize known people in a group photo and mark attendance.

This command:
1. Loads reference embeddings for everyone in the faces directory
2. Detects faces in the photo and embeds each face crop
3. Matches each face against the roster by cosine distance
4. Marks attendance (once per person per day) for accepted matches
5. Saves an annotated copy of the photo to the output directory

Examples:
  # Recognize a classroom photo
  face-attendance recognize -i classroom.jpg

  # Stricter matching (lower threshold = stricter)
  face-attendance recognize -i classroom.jpg --threshold 0.30

  # Different embedding model and detector backend
  face-attendance recognize -i classroom.jpg --model ArcFace --backend retinaface

  # Use the roster enrolled in PostgreSQL instead of re-embedding files
  face-attendance recognize -i classroom.jpg --from-db

  # Machine-readable output, no annotated image
  face-attendance recognize -i classroom.jpg --json --no-annotate`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("image", "i", "", "Path to the group photo (required)")
	recognizeCmd.Flags().Float64("threshold", 0, "Maximum cosine distance for a match (default: model-specific)")
	recognizeCmd.Flags().String("model", "", "Embedding model identifier (default: EMBEDDING_MODEL)")
	recognizeCmd.Flags().String("backend", "", "Face detector backend identifier (default: DETECTOR_BACKEND)")
	recognizeCmd.Flags().Bool("from-db", false, "Load the roster from PostgreSQL instead of the faces directory")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
	recognizeCmd.Flags().Bool("no-annotate", false, "Skip writing the annotated image")
	recognizeCmd.MarkFlagRequired("image")
}

// recognizeOutput is the JSON document for --json mode.
type recognizeOutput struct {
	Image      string          `json:"image"`
	Model      string          `json:"model"`
	Threshold  float64         `json:"threshold"`
	Faces      []recognizeFace `json:"faces"`
	Recognized []string        `json:"recognized"`
	Marks      []recognizeMark `json:"marks"`
	Annotated  string          `json:"annotated,omitempty"`
}

type recognizeFace struct {
	Box        faceapi.Box     `json:"box"`
	Label      string          `json:"label"`
	Category   report.Category `json:"category"`
	Distance   float64         `json:"distance"`
	Confidence float64         `json:"confidence"`
	Accepted   bool            `json:"accepted"`
}

type recognizeMark struct {
	Name       string  `json:"name"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	imagePath := mustGetString(cmd, "image")
	jsonOutput := mustGetBool(cmd, "json")
	noAnnotate := mustGetBool(cmd, "no-annotate")
	fromDB := mustGetBool(cmd, "from-db")

	cfg := config.Load()
	overrideEmbedding(cfg, mustGetString(cmd, "model"), mustGetString(cmd, "backend"))
	threshold := cfg.ResolveThreshold(mustGetFloat64(cmd, "threshold"))

	client := faceapi.NewClient(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Detector)
	ctx := cmd.Context()

	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	led, err := openLedger(cfg, pool)
	if err != nil {
		return err
	}

	ros, err := loadRoster(ctx, cfg, client, pool, fromDB, jsonOutput)
	if err != nil {
		return err
	}
	if ros.Empty() {
		if jsonOutput {
			return fmt.Errorf("no known identities loaded from '%s'", cfg.Faces.Dir)
		}
		fmt.Printf("No known faces loaded. Put reference photos in '%s' with the file name\n", cfg.Faces.Dir)
		fmt.Printf("as the person's name (e.g. %s/Alice.jpg) and run again.\n", cfg.Faces.Dir)
		return nil
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Processing group photo: %s (%d known identities, threshold %.2f)\n",
			imagePath, ros.Len(), threshold)
	}

	now := time.Now()
	rec := recognition.New(client, client, ros, led, threshold, jsonOutput)
	result, err := rec.ProcessPhoto(ctx, imageData, now)
	if err != nil {
		return err
	}

	annotatedPath := ""
	if !noAnnotate && len(result.Results) > 0 {
		annotated := report.Annotate(result.Image, result.Results)
		annotatedPath, err = report.SaveAnnotated(cfg.Output.Dir, annotated, now)
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return printRecognizeJSON(imagePath, cfg.Embedding.Model, threshold, annotatedPath, result)
	}

	printRecognizeText(result, annotatedPath)
	return nil
}

func printRecognizeJSON(imagePath, model string, threshold float64, annotatedPath string, result *recognition.PhotoResult) error {
	out := recognizeOutput{
		Image:      imagePath,
		Model:      model,
		Threshold:  threshold,
		Faces:      make([]recognizeFace, 0, len(result.Results)),
		Recognized: report.RecognizedNames(result.Results),
		Marks:      make([]recognizeMark, 0, len(result.Marks)),
		Annotated:  annotatedPath,
	}
	for _, m := range result.Results {
		out.Faces = append(out.Faces, recognizeFace{
			Box:        m.Box,
			Label:      report.Label(m),
			Category:   report.CategoryOf(m),
			Distance:   m.Distance,
			Confidence: m.Confidence,
			Accepted:   m.Accepted,
		})
	}
	for _, m := range result.Marks {
		out.Marks = append(out.Marks, recognizeMark{
			Name:       m.Name,
			Outcome:    m.Outcome.String(),
			Confidence: m.Confidence,
		})
	}
	if out.Recognized == nil {
		out.Recognized = []string{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printRecognizeText(result *recognition.PhotoResult, annotatedPath string) {
	for _, m := range result.Results {
		fmt.Printf("  %s\n", report.Label(m))
	}
	for _, m := range result.Marks {
		switch m.Outcome {
		case ledger.Marked:
			fmt.Printf("Attendance marked for %s (conf %.1f%%)\n", m.Name, m.Confidence*100)
		case ledger.AlreadyMarked:
			fmt.Printf("%s is already marked present today\n", m.Name)
		}
	}
	if annotatedPath != "" {
		fmt.Printf("Saved annotated image -> %s\n", annotatedPath)
	}

	if recognized := report.RecognizedNames(result.Results); len(recognized) > 0 {
		fmt.Printf("Recognized: %s\n", strings.Join(recognized, ", "))
	} else {
		fmt.Println("No matches above threshold. You can lower the threshold if needed.")
	}
}
