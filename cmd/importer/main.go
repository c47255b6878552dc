package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"orderup/internal/cache"
	"orderup/internal/config"
	"orderup/internal/db"
	"orderup/internal/importer"
	"orderup/internal/logging"
	menurepo "orderup/internal/repository/menu"
	restaurantrepo "orderup/internal/repository/restaurant"
	catalogsvc "orderup/internal/service/catalog"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to menu CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New("orderup-importer", cfg.LogLevel)
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	restaurants := restaurantrepo.NewPostgres(pool, logger)
	menus := menurepo.NewPostgres(pool, logger)
	imp := importer.NewCSVImporter(f, restaurants, menus)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err), zap.Int("imported", count))
	}

	// Drop cached menus so the API serves the new prices.
	if cfg.RedisAddr != "" {
		catalog := catalogsvc.New(restaurants, menus, cache.NewRedisCache(cfg.RedisAddr, "orderup-api"), cfg.CatalogCacheTTL, logger)
		for _, id := range imp.RestaurantIDs() {
			catalog.Invalidate(ctx, id)
		}
	}

	logger.Info("menu imported",
		zap.String("file", filePath),
		zap.Int("items", count),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
	)
}
