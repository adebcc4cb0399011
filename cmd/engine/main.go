package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/app"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/config"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/util"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		util.NewLogger("info").Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.LogLevel)
	creds := config.LoadCredentials()

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := app.New(ctx, *cfg, creds, log)
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("engine exited")
	}
	log.Info().Msg("shutdown complete")
}
