package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/cookbook/models"
)

// ErrRecipeNotFound is returned when no recipe row carries the requested id.
var ErrRecipeNotFound = errors.New("recipe not found")

// StorageError wraps a failure reported by the database driver.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RecipeStore is the data access object for recipes and their ingredients.
// Each exported method runs inside its own transaction.
type RecipeStore struct {
	db *gorm.DB
}

// NewRecipeStore wraps an opened gorm connection. The store owns it from now on.
func NewRecipeStore(db *gorm.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// unitOfWork commits when fn returns nil and rolls back on error or panic.
func (s *RecipeStore) unitOfWork(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err == nil || errors.Is(err, ErrRecipeNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ListRecipes returns every recipe, most viewed first, quicker dishes first among equals.
func (s *RecipeStore) ListRecipes(ctx context.Context) ([]models.RecipeSummary, error) {
	items := []models.RecipeSummary{}
	err := s.unitOfWork(ctx, "list recipes", func(tx *gorm.DB) error {
		return tx.Model(&models.Recipe{}).
			Select("id", "title", "views", "cooking_time").
			Order("views DESC").
			Order("cooking_time ASC").
			Order("id ASC").
			Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetRecipe loads a recipe and its ingredients without touching the view counter.
func (s *RecipeStore) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := s.unitOfWork(ctx, "get recipe", func(tx *gorm.DB) error {
		var err error
		recipe, err = loadRecipe(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// IncrementViews bumps the view counter by one and returns the refreshed recipe.
// The bump is a single UPDATE so concurrent readers never lose an increment.
func (s *RecipeStore) IncrementViews(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := s.unitOfWork(ctx, "increment views", func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecipeNotFound
		}
		var err error
		recipe, err = loadRecipe(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateRecipe inserts the recipe and then its ingredients in input order.
// Nothing is persisted unless every insert succeeds.
func (s *RecipeStore) CreateRecipe(ctx context.Context, in models.NewRecipe) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := s.unitOfWork(ctx, "create recipe", func(tx *gorm.DB) error {
		row := models.Recipe{
			Title:       in.Title,
			CookingTime: in.CookingTime,
			Description: in.Description,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		for _, name := range in.Ingredients {
			ing := models.Ingredient{Name: name, RecipeID: row.ID}
			if err := tx.Create(&ing).Error; err != nil {
				return err
			}
		}
		var err error
		recipe, err = loadRecipe(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// DeleteRecipe removes a recipe. Its ingredients go with it through the foreign key cascade.
func (s *RecipeStore) DeleteRecipe(ctx context.Context, id uint) error {
	return s.unitOfWork(ctx, "delete recipe", func(tx *gorm.DB) error {
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecipeNotFound
		}
		return nil
	})
}

// CountRecipes returns the number of stored recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Count(&n).Error; err != nil {
		return 0, &StorageError{Op: "count recipes", Err: err}
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (s *RecipeStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RecipeStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// loadRecipe fetches the recipe row and then its ingredients, both through tx.
func loadRecipe(tx *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := tx.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	recipe.Ingredients = []models.Ingredient{}
	if err := tx.Where("recipe_id = ?", recipe.ID).Order("id ASC").Find(&recipe.Ingredients).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}
