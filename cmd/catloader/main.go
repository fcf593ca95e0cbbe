// catloader loads the reference equipment dataset into the catalog database.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	equipcat "github.com/fieldline/equipcat"
	"github.com/fieldline/equipcat/internal/config"
	logpkg "github.com/fieldline/equipcat/internal/logger"
	"github.com/fieldline/equipcat/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Loading reference dataset",
		zap.String("version", version.Full()),
		zap.String("env", env),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	client, err := equipcat.New(
		equipcat.WithAddrs(cfg.Database.Addrs...),
		equipcat.WithAuth(cfg.Database.Username, cfg.Database.Password),
		equipcat.WithDB(cfg.Database.DB),
	)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Seed(ctx); err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	summary, err := client.Summary(ctx)
	if err != nil {
		logger.Fatal("Failed to read back summary", zap.Error(err))
	}

	logger.Info("Dataset loaded",
		zap.Int("models", summary.TotalModels),
		zap.Int("manufacturers", summary.TotalManufacturers),
		zap.Int("categories", len(summary.ByCategory)),
		zap.Duration("took", time.Since(start)),
	)
}
