package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/you/storefront/internal/app"
	"github.com/you/storefront/internal/config"
	"github.com/you/storefront/internal/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	if err := app.Run(cfg, zlog); err != nil {
		zlog.Fatal("app failed", zap.Error(err))
	}
}
