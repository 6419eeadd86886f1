package models

import (
	"time"

	"gorm.io/gorm"
)

// Recipe is a dish together with the ingredients it owns.
// Ingredients are removed by the database when their recipe is deleted.
type Recipe struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	CookingTime int          `gorm:"not null" json:"cooking_time"`
	Views       int          `gorm:"not null;default:0;index" json:"views"`
	Description *string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	Ingredients []Ingredient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredients"`
}

// BeforeCreate stamps the creation time in UTC. It is never touched again.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// AfterFind normalizes timestamps read back from drivers that attach a local zone.
func (r *Recipe) AfterFind(tx *gorm.DB) error {
	r.CreatedAt = r.CreatedAt.UTC()
	return nil
}

// RecipeSummary is the row shape served by the recipe list.
type RecipeSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Views       int    `json:"views"`
	CookingTime int    `json:"cooking_time"`
}

// NewRecipe carries already validated fields for a recipe about to be inserted.
type NewRecipe struct {
	Title       string
	CookingTime int
	Description *string
	Ingredients []string
}
