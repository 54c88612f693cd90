package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/faceapi"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/ledger/postgres"
	"github.com/kozaktomas/face-attendance/internal/roster"
)

// openDatabase connects to Postgres and applies migrations when DATABASE_URL
// is set. Returns nil without error when it is not.
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, nil
}

// openLedger picks the attendance ledger backend: Postgres when a pool is
// available, the CSV file otherwise.
func openLedger(cfg *config.Config, pool *postgres.Pool) (ledger.Ledger, error) {
	if pool != nil {
		return postgres.NewLedger(pool), nil
	}
	l, err := ledger.NewCSV(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attendance ledger: %w", err)
	}
	return l, nil
}

// loadRoster loads known identities either from the faces directory (embeds
// every reference photo) or from the enrolled roster in Postgres.
func loadRoster(ctx context.Context, cfg *config.Config, client *faceapi.Client, pool *postgres.Pool, fromDB, quiet bool) (*roster.Roster, error) {
	if fromDB {
		if pool == nil {
			return nil, errors.New("--from-db requires DATABASE_URL to be set")
		}
		identities, err := postgres.NewRosterStore(pool).LoadIdentities(ctx, client.Model())
		if err != nil {
			return nil, fmt.Errorf("failed to load roster from database: %w", err)
		}
		return roster.FromIdentities(identities)
	}
	return roster.Load(ctx, cfg.Faces.Dir, client, quiet)
}

// overrideEmbedding applies command-line model/backend overrides to the
// loaded configuration.
func overrideEmbedding(cfg *config.Config, model, backend string) {
	if model != "" {
		cfg.Embedding.Model = model
	}
	if backend != "" {
		cfg.Embedding.Detector = backend
	}
}
