package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/wholesale/internal/seed"
	"github.com/vladislavdragonenkov/wholesale/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	dsnEnv         = "WHS_POSTGRES_DSN"
)

func main() {
	var (
		direction string
		steps     int
		dsn       string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status|seed")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+dsnEnv+")")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv(dsnEnv))
	}
	if dsn == "" {
		fail("%s (or -dsn) is required", dsnEnv)
	}
	direction = strings.ToLower(strings.TrimSpace(direction))
	if !supportedDirection(direction) {
		fail("unsupported direction: %s (use up|down|status|seed)", direction)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := execute(ctx, store, direction, steps, os.Stdout); err != nil {
		fail("%v", err)
	}
}

func supportedDirection(direction string) bool {
	switch direction {
	case "up", "down", "status", "seed":
		return true
	}
	return false
}

func execute(ctx context.Context, store *postgres.Store, direction string, steps int, out io.Writer) error {
	switch direction {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
	case "down":
		if err := store.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
	case "seed":
		summary, err := seed.Run(ctx, seed.Repositories{
			Catalog:   store.Catalog(),
			Customers: store.Customers(),
			Users:     store.Users(),
			Safes:     store.Safes(),
		}, log.WithField("component", "migrate"))
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		_, _ = fmt.Fprintf(out, "seed ok: created=%d existing=%d\n", summary.Created, summary.Existing)
		return nil
	case "status":
	default:
		return fmt.Errorf("unsupported direction: %s", direction)
	}

	state, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, _ = fmt.Fprintln(out, formatState(direction, state))
	return nil
}

func formatState(direction string, state postgres.MigrationState) string {
	prefix := "migration status"
	if direction != "status" {
		prefix = "migrate " + direction + " ok"
	}
	line := fmt.Sprintf("%s: version=%d applied=%d", prefix, state.Version, state.Applied)
	if len(state.Pending) > 0 {
		line += " pending=" + strings.Join(state.Pending, ",")
	}
	return line
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
