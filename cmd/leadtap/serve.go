package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jasonsutter87/marketing-lead-generation/internal/config"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/detect"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/geo"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/overpass"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/pipeline"
	"github.com/jasonsutter87/marketing-lead-generation/internal/metrics"
	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
	"github.com/jasonsutter87/marketing-lead-generation/internal/server"
)

func runServe(args []string) error {
	var configPath, addr string

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "leadtap.yaml", "Path to config file")
	fs.StringVar(&addr, "addr", "", "Listen address (default: config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: leadtap serve [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  SERVER_SECRET=s3cret leadtap serve\n")
		fmt.Fprintf(os.Stderr, "  leadtap serve -addr :9090\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Server.Secret == "" {
		return fmt.Errorf("server.secret (SERVER_SECRET) is required for serve")
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	srv := server.New(store, cfg.Server.Secret, cfg.Rotation.Categories, cfg.Rotation.Locations, log, registry)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Interval trigger: one rotation run per tick, serialized.
	if cfg.Run.Interval > 0 {
		p := pipeline.New(
			geo.NewResolver(cfg.Upstream.NominatimURL, cfg.Upstream.UserAgent),
			overpass.NewClient(cfg.Upstream.OverpassURL, cfg.Upstream.UserAgent),
			detect.NewDetector(cfg.Run.DetectDelay),
			store,
			log,
			pipeline.Options{
				Categories:   cfg.Rotation.Categories,
				Locations:    cfg.Rotation.Locations,
				GeocodeDelay: cfg.Run.GeocodeDelay,
				SearchDelay:  cfg.Run.SearchDelay,
			},
		)
		go runOnInterval(ctx, p, cfg, m, log)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("serving",
		zap.String("addr", cfg.Server.Addr),
		zap.Duration("run_interval", cfg.Run.Interval),
		zap.String("storage", cfg.Storage.Backend),
	)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runOnInterval(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) {
	ticker := time.NewTicker(cfg.Run.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := p.RunNext(ctx, model.RunParams{
				RadiusMeters: cfg.Run.RadiusMeters,
				Limit:        cfg.Run.Limit,
				Filter:       cfg.Run.Filter,
				Check:        cfg.Run.Check,
			})
			if err != nil {
				log.Error("scheduled run failed", zap.Error(err))
				continue
			}
			m.ObserveRun(res)
			if res.Err != nil {
				log.Warn("scheduled run ended in failure state", zap.Error(res.Err))
			}
		}
	}
}
