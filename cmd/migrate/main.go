// Command migrate creates or updates the database tables and exits.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sahilchouksey/devcamper-api/config"
	"github.com/sahilchouksey/devcamper-api/database"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Errorf("Migration failed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM(env)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Infof("All migrations completed, %d tables up to date", len(model.Models()))
	return nil
}
