package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sahilchouksey/devcamper-api/config"
	"github.com/sahilchouksey/devcamper-api/database"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
)

func main() {
	importData := flag.Bool("i", false, "import users, bootcamps and courses from the seed files")
	destroyData := flag.Bool("d", false, "delete all bootcamps and courses")
	dir := flag.String("data", "", "seed file directory (defaults to SEED_DATA_PATH)")
	flag.Parse()

	if *importData == *destroyData {
		fmt.Fprintln(os.Stderr, "usage: seed -i | -d [-data dir]")
		os.Exit(2)
	}

	if err := run(*importData, *dir); err != nil {
		logger.Errorf("Seeding failed: %v", err)
		os.Exit(1)
	}
}

func run(importData bool, dir string) error {
	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM(env)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return err
	}

	ctx := context.Background()
	db := store.GetDB()
	seeder := database.NewSeeder(db, services.NewCourseService(db))

	if !importData {
		return seeder.DestroyData(ctx)
	}

	if dir == "" {
		dir = env.SEED_DATA_PATH
	}
	if err := seeder.SeedAdminUser(ctx, env.ADMIN_EMAIL, env.ADMIN_PASSWORD); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return seeder.ImportData(ctx, dir)
}
