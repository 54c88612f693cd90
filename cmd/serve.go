package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web API",
	Long: `Start the attendance web API.

The server loads the roster once at startup and then accepts photo uploads
on POST /api/v1/recognize; every accepted match marks attendance the same
way the recognize command does. GET /api/v1/attendance and GET /api/v1/roster
expose the ledger and the loaded roster.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Float64("threshold", 0, "Maximum cosine distance for a match (default: model-specific)")
	serveCmd.Flags().Bool("from-db", false, "Load the roster from PostgreSQL instead of the faces directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	fromDB := mustGetBool(cmd, "from-db")

	cfg := config.Load()
	threshold := cfg.ResolveThreshold(mustGetFloat64(cmd, "threshold"))
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

	client := faceapi.NewClient(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Detector)

	fmt.Println("Loading roster...")
	ros, err := loadRoster(ctx, cfg, client, pool, fromDB, false)
	if err != nil {
		return err
	}
	fmt.Printf("Roster loaded: %d identit(ies), threshold %.2f\n", ros.Len(), threshold)
	if ros.Empty() {
		fmt.Println("Warning: roster is empty, every recognize request will be rejected")
	}

	rec := recognition.New(client, client, ros, led, threshold, true)
	server := web.NewServer(cfg, host, port, rec, led, ros)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
