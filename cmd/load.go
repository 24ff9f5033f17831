package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/reframelab/reframe/db"
	"github.com/reframelab/reframe/internal/config"
	"github.com/reframelab/reframe/internal/database"
	"github.com/reframelab/reframe/internal/dataset"
	"github.com/reframelab/reframe/internal/ollama"
)

// runLoad wipes and reloads the dataset tables from the three CSV
// sources.
func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	definitions := fs.String("definitions", "", "distortion description CSV")
	examples := fs.String("examples", "", "distortion examples CSV")
	reframes := fs.String("reframes", "", "reframing dataset CSV")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if *definitions == "" || *examples == "" || *reframes == "" {
		return fmt.Errorf("all of --definitions, --examples and --reframes are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	client := ollama.NewClient(cfg.OllamaHost, cfg.GenerateModel, cfg.EmbedModel)

	loader, err := dataset.NewLoader(pool, client, logger)
	if err != nil {
		return fmt.Errorf("creating loader: %w", err)
	}

	stats, err := loader.Run(ctx, dataset.Sources{
		Definitions: *definitions,
		Examples:    *examples,
		Reframes:    *reframes,
	})
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	fmt.Printf("Loaded %d distortions, %d examples, %d reframes\n",
		stats.Distortions, stats.Examples, stats.Reframes)
	for _, name := range stats.SkippedLabels {
		fmt.Printf("Skipped distortion without id: %s\n", name)
	}
	return nil
}
