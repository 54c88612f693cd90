package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/ledger/postgres"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Work with the known-identity roster",
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities derivable from the faces directory",
	Long: `List the identities that the faces directory would produce, without
calling the embedding server.`,
	RunE: runRosterList,
}

var rosterSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Embed all reference photos and enroll them in PostgreSQL",
	Long: `Embed every reference photo in the faces directory and store the
embeddings in PostgreSQL, so later runs can use --from-db instead of
re-embedding the whole directory.

Requires DATABASE_URL.`,
	RunE: runRosterSync,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterListCmd)
	rosterCmd.AddCommand(rosterSyncCmd)

	rosterSyncCmd.Flags().String("model", "", "Embedding model identifier (default: EMBEDDING_MODEL)")
	rosterSyncCmd.Flags().String("backend", "", "Face detector backend identifier (default: DETECTOR_BACKEND)")
}

func runRosterList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	files, err := roster.ListImageFiles(cfg.Faces.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No reference photos found in '%s'.\n", cfg.Faces.Dir)
		return nil
	}

	for _, f := range files {
		fmt.Println(roster.IdentityName(f))
	}
	fmt.Printf("\n%d identit(ies) in '%s'\n", len(files), cfg.Faces.Dir)
	return nil
}

func runRosterSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	overrideEmbedding(cfg, mustGetString(cmd, "model"), mustGetString(cmd, "backend"))
	ctx := cmd.Context()

	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	if pool == nil {
		return errors.New("DATABASE_URL environment variable is required")
	}
	defer pool.Close()

	client := faceapi.NewClient(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Detector)

	ros, err := roster.Load(ctx, cfg.Faces.Dir, client, false)
	if err != nil {
		return err
	}
	if ros.Empty() {
		return fmt.Errorf("no usable reference photos in '%s'", cfg.Faces.Dir)
	}

	store := postgres.NewRosterStore(pool)
	for _, id := range ros.Identities() {
		if err := store.Upsert(ctx, id, cfg.Embedding.Model); err != nil {
			return err
		}
	}

	fmt.Printf("Enrolled %d identit(ies) for model %s\n", ros.Len(), cfg.Embedding.Model)
	return nil
}
