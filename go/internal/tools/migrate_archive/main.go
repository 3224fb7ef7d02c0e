package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mcdev12/salapix/go/internal/archive"
	"github.com/mcdev12/salapix/go/internal/dbconfig"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ping %s@%s/%s: %v\n", cfg.User, cfg.Host, cfg.Database, err)
		os.Exit(1)
	}

	// 2) Apply the archive schema
	if _, err := pool.Exec(ctx, archive.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Print summary
	var outcomes, participants int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM draw_outcomes`).Scan(&outcomes); err != nil {
		fmt.Fprintf(os.Stderr, "count outcomes: %v\n", err)
		os.Exit(1)
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM draw_outcome_participants`).Scan(&participants); err != nil {
		fmt.Fprintf(os.Stderr, "count participants: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf(
		"Archive schema ready on %s: %d outcomes, %d participant rows\n",
		cfg.Database, outcomes, participants,
	)
}
