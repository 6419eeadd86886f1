package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/cookbook/config"
	"github.com/cppla/cookbook/controllers"
	"github.com/cppla/cookbook/middleware"
	"github.com/cppla/cookbook/store"
	"github.com/cppla/cookbook/utils"
)

// Deps are the long lived objects the HTTP layer is built from.
type Deps struct {
	Recipes *store.RecipeStore
	Cache   *utils.Cache
	Metrics *middleware.Metrics
	Logger  *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = middleware.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())

	// Access log goes to its own rolling file; fall back to the app logger
	accessLog := deps.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			deps.Logger.Warn("access log file unavailable", zap.Error(err))
		}
	}
	r.Use(utils.AccessLog(accessLog))
	r.Use(utils.Recovery(deps.Logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(deps.Metrics.Middleware())

	healthController := controllers.NewHealthController(deps.Recipes)
	recipeController := controllers.NewRecipeController(deps.Recipes, deps.Cache, deps.Metrics, deps.Logger)

	r.GET("/health", healthController.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	recipes := r.Group("/recipes")
	recipes.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)))
	recipes.GET("", recipeController.ListRecipes)
	recipes.GET("/:id", recipeController.GetRecipe)
	recipes.POST("", recipeController.CreateRecipe)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "route not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusMethodNotAllowed, utils.CodeMethodNotAllowed, "method not allowed")
	})

	return r
}
