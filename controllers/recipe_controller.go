package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/cookbook/middleware"
	"github.com/cppla/cookbook/models"
	"github.com/cppla/cookbook/store"
	"github.com/cppla/cookbook/utils"
)

const (
	recipeListCacheKey      = "cache:recipes:list"
	recipeListGenerationKey = "cache:recipes:list:gen"
)

// listCacheKey scopes a cached list to the generation read before the query ran,
// so a list that raced with a write is stored under a key nobody reads anymore.
func listCacheKey(gen int64) string {
	return recipeListCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// RecipeController serves the recipe list, detail and create endpoints.
type RecipeController struct {
	recipes *store.RecipeStore
	cache   *utils.Cache
	metrics *middleware.Metrics
	logger  *zap.Logger
}

// NewRecipeController wires the handlers to their collaborators. cache may be nil.
func NewRecipeController(recipes *store.RecipeStore, cache *utils.Cache, metrics *middleware.Metrics, logger *zap.Logger) *RecipeController {
	return &RecipeController{
		recipes: recipes,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

type ingredientRequest struct {
	Name *string `json:"name" binding:"required,min=1"`
}

// createRecipeRequest uses pointers so a missing key is told apart from a zero value.
type createRecipeRequest struct {
	Title       *string              `json:"title" binding:"required,min=1"`
	CookingTime *int                 `json:"cooking_time" binding:"required"`
	Description *string              `json:"description"`
	Ingredients *[]ingredientRequest `json:"ingredients" binding:"required,dive"`
}

func (r *createRecipeRequest) toNewRecipe() models.NewRecipe {
	names := make([]string, 0, len(*r.Ingredients))
	for _, ing := range *r.Ingredients {
		names = append(names, *ing.Name)
	}
	return models.NewRecipe{
		Title:       *r.Title,
		CookingTime: *r.CookingTime,
		Description: r.Description,
		Ingredients: names,
	}
}

// ListRecipes returns all recipe summaries, most viewed first.
func (c *RecipeController) ListRecipes(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	gen, cacheable := c.cache.Generation(reqCtx, recipeListGenerationKey)
	if cacheable {
		if b, ok := c.cache.GetBytes(reqCtx, listCacheKey(gen)); ok {
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	items, err := c.recipes.ListRecipes(reqCtx)
	if err != nil {
		c.storageFailure(ctx, err, "failed to list recipes")
		return
	}

	b, err := json.Marshal(items)
	if err != nil {
		c.storageFailure(ctx, err, "failed to encode recipes")
		return
	}
	if cacheable {
		c.cache.SetBytes(reqCtx, listCacheKey(gen), b)
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

// GetRecipe returns one recipe with its ingredients and counts the read as a view.
func (c *RecipeController) GetRecipe(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// well formed but beyond any stored id
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, store.ErrRecipeNotFound.Error())
		return
	}
	if err != nil {
		utils.ErrorWithData(ctx, http.StatusUnprocessableEntity, utils.CodeValidation, "invalid request", []FieldError{
			{Field: "id", Reason: "must be an integer"},
		})
		return
	}
	if id <= 0 {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, store.ErrRecipeNotFound.Error())
		return
	}

	recipe, err := c.recipes.IncrementViews(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrRecipeNotFound) {
			utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, store.ErrRecipeNotFound.Error())
			return
		}
		c.storageFailure(ctx, err, "failed to load recipe")
		return
	}

	c.cache.Bump(ctx.Request.Context(), recipeListGenerationKey)
	c.metrics.RecipeViews.Inc()
	ctx.JSON(http.StatusOK, recipe)
}

// CreateRecipe validates the payload and stores the recipe with its ingredients atomically.
func (c *RecipeController) CreateRecipe(ctx *gin.Context) {
	var req createRecipeRequest
	if err := ctx.ShouldBindWith(&req, strictJSON{}); err != nil {
		writeBindError(ctx, err)
		return
	}

	recipe, err := c.recipes.CreateRecipe(ctx.Request.Context(), req.toNewRecipe())
	if err != nil {
		c.storageFailure(ctx, err, "failed to create recipe")
		return
	}

	c.cache.Bump(ctx.Request.Context(), recipeListGenerationKey)
	c.metrics.RecipesCreated.Inc()
	c.logger.Info("recipe created",
		zap.Uint("recipe_id", recipe.ID),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.String("request_id", utils.RequestID(ctx)),
	)
	ctx.JSON(http.StatusCreated, recipe)
}

func (c *RecipeController) storageFailure(ctx *gin.Context, err error, message string) {
	c.logger.Error(message, zap.Error(err), zap.String("request_id", utils.RequestID(ctx)))
	utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, message)
}
