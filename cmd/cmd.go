// Package cmd provides CLI commands for the reframe service.
//
// Commands:
//   - serve: web UI and analysis pipeline
//   - load: destructive dataset reload from CSV files
//   - normalize: map distortion labels in a CSV to canonical ids
//
// Signal handling and graceful shutdown are implemented for serve via
// context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the reframe CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "load":
		return runLoad(os.Args[2:])
	case "normalize":
		return runNormalize(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Reframe - Cognitive reframing assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reframe serve                Start the web UI (default: localhost:8080)")
	fmt.Println("  reframe load [flags]         Reload the datasets from CSV files")
	fmt.Println("  reframe normalize [flags]    Map distortion labels in a CSV to ids")
	fmt.Println("  reframe --version            Show version information")
	fmt.Println("  reframe --help               Show this help")
	fmt.Println()
	fmt.Println("Load flags:")
	fmt.Println("  --definitions FILE           Distortion description CSV")
	fmt.Println("  --examples FILE              Distortion examples CSV")
	fmt.Println("  --reframes FILE              Reframing dataset CSV")
	fmt.Println()
	fmt.Println("Normalize flags:")
	fmt.Println("  --in FILE                    Input CSV with a Distortion column")
	fmt.Println("  --out FILE                   Output CSV with a Distortion_ID column")
	fmt.Println("  --exact                      Require exact display-name matches")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_URL                 Optional: PostgreSQL connection URL")
	fmt.Println("  REFRAME_OLLAMA_HOST          Optional: Ollama base URL")
	fmt.Println("  DEBUG                        Optional: Enable debug logging")
}
