package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	textembed "github.com/localrivet/textembed"
	"github.com/localrivet/textembed/internal/config"
	"github.com/localrivet/textembed/internal/errortypes"
	"github.com/localrivet/textembed/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFilename, "path to the configuration file")
	modelID := flag.String("model", "", "model repository id, e.g. sentence-transformers/all-MiniLM-L6-v2")
	revision := flag.String("revision", "", "model repository revision")
	usePTH := flag.Bool("use-pth", false, "load the legacy pytorch checkpoint instead of safetensors")
	serve := flag.Bool("serve", false, "expose the model as an MCP server on stdio")
	text := flag.String("text", "", "embed this text, print the vector as JSON, and exit")
	flag.Parse()

	cfg, err := config.LoadConfigWithPath(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// Flags override the config file.
	if *modelID != "" {
		cfg.Model.ID = *modelID
	}
	if *revision != "" {
		cfg.Model.Revision = *revision
	}
	if *usePTH {
		cfg.Model.UsePTH = true
	}

	appLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(appLogger)

	appLogger.Info("textembed starting",
		"model_id", cfg.Model.ID, "revision", cfg.Model.Revision,
		"encoder", cfg.Encoder.Provider)

	model, err := textembed.CreateWithConfig(cfg, appLogger)
	if err != nil {
		errortypes.LogError(appLogger, err)
		appLogger.Error("Failed to load model")
		os.Exit(1)
	}
	defer model.Close()

	switch {
	case *text != "":
		embedding, err := model.Predict(*text)
		if err != nil {
			errortypes.LogError(appLogger, err)
			appLogger.Error("Failed to embed text")
			os.Exit(1)
		}
		if err := json.NewEncoder(os.Stdout).Encode(embedding); err != nil {
			appLogger.Error("Failed to write embedding", "error", err)
			os.Exit(1)
		}

	case *serve:
		setupSignalHandler(model, appLogger)
		appLogger.Info("Starting MCP server on stdio")
		if err := model.Serve(); err != nil {
			errortypes.LogError(appLogger, err)
			appLogger.Error("MCP server failed")
			os.Exit(1)
		}

	default:
		appLogger.Error("Nothing to do: pass --text or --serve")
		flag.Usage()
		os.Exit(2)
	}
}

// setupSignalHandler closes the model on SIGINT/SIGTERM so the embedding
// cache is flushed before exit.
func setupSignalHandler(model *textembed.Model, log *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully")
		if err := model.Close(); err != nil {
			log.Error("Error closing model during shutdown", "error", err)
		}
		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
