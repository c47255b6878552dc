package main

import (
	"context"
	"fmt"
	"os"

	"orderup/internal/config"
	"orderup/internal/db"
	"orderup/internal/logging"
	menurepo "orderup/internal/repository/menu"
	restaurantrepo "orderup/internal/repository/restaurant"
	"orderup/internal/seed"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New("orderup-seed", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	res, err := seed.Apply(ctx, restaurantrepo.NewPostgres(pool, logger), menurepo.NewPostgres(pool, logger), logger)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied",
		zap.Int("restaurants", res.Restaurants),
		zap.Int("categories", res.Categories),
		zap.Int("items", res.Items),
	)
}
