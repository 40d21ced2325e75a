// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up
//	migrate down [steps]
//	migrate version
package main

import (
	"fmt"
	"os"
	"strconv"

	"mohandz-service/internal/config"
	"mohandz-service/internal/db"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	_ = godotenv.Load()
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up | down [steps] | version")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "up":
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrate up failed", zap.Error(err))
		}
		logger.Info("migrations applied")

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n < 1 {
				logger.Fatal("steps must be a positive integer", zap.String("steps", os.Args[2]))
			}
			steps = n
		}
		if err := db.RollbackMigrations(cfg.DatabaseURL, steps); err != nil {
			logger.Fatal("migrate down failed", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", steps))

	case "version":
		v, dirty, err := db.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to read migration version", zap.Error(err))
		}
		logger.Info("migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}
