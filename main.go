package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/cppla/cookbook/config"
	"github.com/cppla/cookbook/middleware"
	"github.com/cppla/cookbook/routes"
	"github.com/cppla/cookbook/store"
	"github.com/cppla/cookbook/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	recipes := store.NewRecipeStore(db)
	cache := utils.NewCache(cfg, logger)

	r := routes.SetupRouter(cfg, routes.Deps{
		Recipes: recipes,
		Cache:   cache,
		Metrics: middleware.NewMetrics(),
		Logger:  logger,
	})

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	serveErr := utils.GraceServer(":"+cfg.AppPort, r, logger)

	if err := cache.Close(); err != nil {
		logger.Warn("close cache", zap.Error(err))
	}
	if err := recipes.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
	if serveErr != nil {
		logger.Fatal("server stopped with error", zap.Error(serveErr))
	}
}
