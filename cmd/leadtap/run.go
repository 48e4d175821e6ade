package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jasonsutter87/marketing-lead-generation/internal/config"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/detect"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/geo"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/overpass"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/pipeline"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/rotation"
	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
	"github.com/jasonsutter87/marketing-lead-generation/internal/tui"
)

func runRun(args []string) error {
	var (
		configPath, category, location string
		radius, limit                  int
		filter, check, dryRun, showUI  bool
	)

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "leadtap.yaml", "Path to config file")
	fs.StringVar(&category, "category", "", "Run a specific category (with -location; skips rotation)")
	fs.StringVar(&location, "location", "", "Run a specific location (with -category; skips rotation)")
	fs.IntVar(&radius, "radius", 0, "Search radius in meters (default: config)")
	fs.IntVar(&limit, "limit", 0, "Max businesses per run (default: config)")
	fs.BoolVar(&filter, "filter", false, "Keep only leads with tracking detected")
	fs.BoolVar(&check, "check", false, "Attach tracking results without filtering")
	fs.BoolVar(&dryRun, "dry-run", false, "Run without persisting anything")
	fs.BoolVar(&showUI, "progress", false, "Show interactive progress view")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: leadtap run [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  leadtap run                                 # next rotation combination\n")
		fmt.Fprintf(os.Stderr, "  leadtap run -category dentist -location \"Los Angeles\" -filter\n")
		fmt.Fprintf(os.Stderr, "  leadtap run -progress -limit 10\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if (category == "") != (location == "") {
		return fmt.Errorf("-category and -location must be given together")
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}

	params := model.RunParams{
		Category:     category,
		Location:     location,
		RadiusMeters: cfg.Run.RadiusMeters,
		Limit:        cfg.Run.Limit,
		Filter:       cfg.Run.Filter,
		Check:        cfg.Run.Check,
		DryRun:       dryRun,
	}
	if radius > 0 {
		params.RadiusMeters = radius
	}
	if limit > 0 {
		params.Limit = limit
	}
	// Flags override config only when set.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "filter":
			params.Filter = filter
		case "check":
			params.Check = check
		}
	})
	if params.Filter {
		params.Check = true
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		Categories:   cfg.Rotation.Categories,
		Locations:    cfg.Rotation.Locations,
		GeocodeDelay: cfg.Run.GeocodeDelay,
		SearchDelay:  cfg.Run.SearchDelay,
	}

	oneOff := category != ""

	var events chan tui.Event
	if showUI {
		events = make(chan tui.Event, 16)
		opts.OnProgress = func(completed, total int, name, status string) {
			events <- tui.Event{Completed: completed, Total: total, Name: name, Status: status}
		}
	} else {
		opts.OnProgress = func(completed, total int, name, status string) {
			log.Info("website checked",
				zap.Int("completed", completed),
				zap.Int("total", total),
				zap.String("name", name),
				zap.String("status", status),
			)
		}
	}

	p := pipeline.New(
		geo.NewResolver(cfg.Upstream.NominatimURL, cfg.Upstream.UserAgent),
		overpass.NewClient(cfg.Upstream.OverpassURL, cfg.Upstream.UserAgent),
		detect.NewDetector(cfg.Run.DetectDelay),
		store,
		log,
		opts,
	)

	execute := func() (*model.RunResult, error) {
		defer func() {
			if events != nil {
				close(events)
			}
		}()
		if oneOff {
			return p.RunOnce(ctx, params)
		}
		return p.RunNext(ctx, params)
	}

	var res *model.RunResult
	if showUI {
		title, titleLoc := category, location
		if !oneOff {
			if state, err := store.LoadRotation(ctx); err == nil {
				title, titleLoc = rotation.Current(state, cfg.Rotation.Categories, cfg.Rotation.Locations)
			}
		}
		res, err = tui.Run(title, titleLoc, execute, events)
	} else {
		res, err = execute()
	}
	if err != nil {
		return err
	}

	if res.Err != nil {
		return res.Err
	}

	fmt.Fprintf(os.Stderr, "%s: %d businesses, %d leads added, %d total leads\n",
		res.State, res.BusinessesFound, res.LeadsAdded, res.TotalLeads)
	return nil
}
