package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cookbook/store"
	"github.com/cppla/cookbook/utils"
)

// HealthController reports whether the service can reach its database.
type HealthController struct {
	recipes *store.RecipeStore
}

func NewHealthController(recipes *store.RecipeStore) *HealthController {
	return &HealthController{recipes: recipes}
}

// Health answers 200 when the database responds to a ping, 503 otherwise.
func (h *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.recipes.Ping(pingCtx); err != nil {
		utils.Error(ctx, http.StatusServiceUnavailable, utils.CodeUnavailable, "database unavailable")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
