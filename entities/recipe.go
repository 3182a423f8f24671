package entities

type Recipe struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AuthorID    uint   `gorm:"not null;index" json:"author_id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Text        string `gorm:"type:text;not null" json:"text"`
	ImageURL    string `json:"image_url"`
	CookingTime int    `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`

	Author            *User               `gorm:"foreignKey:AuthorID"`
	Tags              []*Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	IngredientAmounts []*IngredientAmount `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;index" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit"`
}

// IngredientAmount is the quantified link between a recipe and one ingredient.
type IngredientAmount struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:amount >= 1" json:"amount"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index" json:"recipe_id"`

	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

type Cart struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"user_id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index" json:"recipe_id"`

	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}
