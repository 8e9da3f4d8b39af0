// Command migrate applies the Postgres order store schema.
//
//	migrate [-path file://migrations] up|down|version|force <version>
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/logging"
)

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(os.Getenv("APP_ENV"), "migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	path := flag.String("path", "", "migrations source URL (default $MIGRATIONS_PATH or file://migrations)")
	flag.Parse()

	if err := run(logger, sourceURL(*path), os.Getenv("POSTGRES_URL"), flag.Args()); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
}

func sourceURL(flagValue string) string {
	for _, v := range []string{flagValue, os.Getenv("MIGRATIONS_PATH")} {
		if v != "" {
			return v
		}
	}
	return "file://migrations"
}

func run(logger *zap.Logger, source, dsn string, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: migrate [-path url] <up|down|version|force N>")
	}
	if dsn == "" {
		return errors.New("POSTGRES_URL is required")
	}

	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		v, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("force version %q: %w", args[1], convErr)
		}
		err = m.Force(v)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("nothing to migrate", zap.String("command", args[0]))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	logger.Info("migration complete", zap.String("command", args[0]))
	return nil
}
