package models

// Ingredient names one component of exactly one recipe.
type Ingredient struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	RecipeID uint   `gorm:"index;not null" json:"recipe_id"`
}
