package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/database"
	"wedding-rsvp/internal/database/migrations"
	"wedding-rsvp/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	action := flag.String("action", "up", "up, down, steps or version")
	steps := flag.Int("n", 1, "number of steps for -action=steps (negative rolls back)")
	dir := flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWriterLogger(os.Stdout)

	if *dir != "" {
		cfg.Database.MigrationsDir = *dir
	}

	bunDB, err := database.OpenPostgres(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: cfg.Database.MigrationsDir}, log)
	// Closing the runner also closes bunDB.
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
	}()

	switch *action {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "steps":
		err = runner.Steps(*steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	default:
		err = fmt.Errorf("unknown action %q", *action)
	}
	if err != nil {
		log.Error("MIGRATE", err.Error())
		os.Exit(1)
	}
}
