package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jasonsutter87/marketing-lead-generation/internal/config"
	"github.com/jasonsutter87/marketing-lead-generation/internal/export"
)

func runExport(args []string) error {
	var configPath, outputPath string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "leadtap.yaml", "Path to config file")
	fs.StringVar(&outputPath, "output", "leads.csv", "Output file path")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: leadtap export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  leadtap export\n")
		fmt.Fprintf(os.Stderr, "  leadtap export -output ./out/leads.csv\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	leads, err := store.LoadLeads(context.Background())
	if err != nil {
		return fmt.Errorf("loading leads: %w", err)
	}
	if len(leads) == 0 {
		return fmt.Errorf("no leads in store")
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, leads); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d leads to %s\n", len(leads), outputPath)
	return nil
}
