package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cancha/internal/database"
	"cancha/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// OverridesFile lists schedule overrides to load into the store.
type OverridesFile struct {
	Overrides []service.OverrideRequest `yaml:"horarios"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		overridesPath = flag.String("horarios", "configs/horarios.yaml", "path to horarios.yaml")
		dbPath        = flag.String("db", "./data/cancha.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*overridesPath)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	var file OverridesFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse overrides: %w", err)
	}
	if len(file.Overrides) == 0 {
		return fmt.Errorf("no overrides in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.ListOverrides(ctx)
	if err != nil {
		return fmt.Errorf("list overrides: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		seen[o.DateStart.String()+"/"+o.DateEnd.String()] = struct{}{}
	}

	schedules := service.NewScheduleService(db, &logger)
	created, skipped := 0, 0
	for _, req := range file.Overrides {
		if _, ok := seen[req.DateStart+"/"+req.DateEnd]; ok {
			skipped++
			continue
		}
		if _, err = schedules.Create(ctx, req); err != nil {
			return fmt.Errorf("create %s..%s: %w", req.DateStart, req.DateEnd, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}
