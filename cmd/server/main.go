package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"folio-terminal/internal/config"
	"folio-terminal/internal/logging"
	"folio-terminal/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("load .env", "err", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatal("configure logging", "err", err)
	}
	logging.Install(logger)

	runtime, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("build ssh server", "err", err)
	}

	if err := runtime.Run(context.Background()); err != nil {
		logger.Fatal("run ssh server", "err", err)
	}
}
