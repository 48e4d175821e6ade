package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jasonsutter87/marketing-lead-generation/internal/config"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/storage"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			if err := runRun(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "serve":
			if err := runServe(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "version":
			fmt.Println("leadtap " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	printUsage()
	os.Exit(2)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `leadtap - lead generation from open geographic data

Usage:
  leadtap run [flags]     Execute one pipeline run (rotation or explicit combo)
  leadtap serve [flags]   Serve the lead collection; optionally run on an interval
  leadtap export [flags]  Export the lead collection to CSV
  leadtap version         Show version

Run 'leadtap run --help', 'leadtap serve --help' or 'leadtap export --help' for flags.
`)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func openStore(cfg config.StorageConfig) (*storage.Store, error) {
	var kv storage.KV
	var err error
	switch cfg.Backend {
	case "redis":
		kv, err = storage.NewRedisKV(cfg.RedisAddr, cfg.RedisDB)
	default:
		kv, err = storage.NewSQLiteKV(cfg.Path)
	}
	if err != nil {
		return nil, err
	}
	return storage.NewStore(kv), nil
}
