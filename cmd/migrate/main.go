// Command migrate applies, rolls back or lists the PostgreSQL schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"coinpulse/internal/adapters/config"
	pgclient "coinpulse/internal/adapters/postgres"
	"coinpulse/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "Overall timeout")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-timeout 1m] up|down|status")
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := pgclient.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer client.Close()

	migrator := pgclient.NewMigrator(client, log)

	switch command {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = printStatus(ctx, migrator)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Errorw("Migration command failed", "command", command, "error", err)
		os.Exit(1)
	}
	log.Infow("✅ Migration command complete", "command", command, "database", cfg.Postgres.Database)
}

func printStatus(ctx context.Context, migrator *pgclient.Migrator) error {
	migrations, err := migrator.Status(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		state := "pending"
		if m.AppliedAt != nil {
			state = "applied " + m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Printf("%04d  %-32s  %s\n", m.Version, m.Name, state)
	}
	return nil
}
