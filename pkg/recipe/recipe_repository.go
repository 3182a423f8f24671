package recipe

import (
	"context"
	"foodgram/domain"
	"foodgram/entities"

	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		// Transaction runs fn against a repository bound to one database
		// transaction. fn must only use the repository it is given.
		Transaction(ctx context.Context, fn func(repo RecipeRepository) error) error

		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe) error
		ReplaceTags(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag) error
		ReplaceIngredientAmounts(ctx context.Context, recipeID uint, amounts []*entities.IngredientAmount) error
		DeleteRecipe(ctx context.Context, id uint) error
		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, viewerID uint, filter domain.RecipeFilter, offset, limit int) ([]*entities.Recipe, int64, error)

		AddFavorite(ctx context.Context, userID, recipeID uint) error
		RemoveFavorite(ctx context.Context, userID, recipeID uint) (bool, error)
		IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error)
		FavoritedSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)

		AddToCart(ctx context.Context, userID, recipeID uint) error
		RemoveFromCart(ctx context.Context, userID, recipeID uint) (bool, error)
		IsInCart(ctx context.Context, userID, recipeID uint) (bool, error)
		InCartSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)

		// GetShoppingList sums ingredient amounts over every recipe in the
		// user's cart, grouped by ingredient name and unit.
		GetShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Transaction(ctx context.Context, fn func(repo RecipeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recipeRepository{db: tx})
	})
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Omit("Author", "Tags", "IngredientAmounts").Create(recipe).Error
}

func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", recipe.ID).
		Updates(map[string]any{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"image_url":    recipe.ImageURL,
			"cooking_time": recipe.CookingTime,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) ReplaceTags(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag) error {
	return r.db.WithContext(ctx).Model(recipe).Association("Tags").Replace(tags)
}

func (r *recipeRepository) ReplaceIngredientAmounts(ctx context.Context, recipeID uint, amounts []*entities.IngredientAmount) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&entities.IngredientAmount{}).Error; err != nil {
		return err
	}
	if len(amounts) == 0 {
		return nil
	}
	for _, a := range amounts {
		a.ID = 0
		a.RecipeID = recipeID
	}
	return db.Omit("Ingredient").Create(&amounts).Error
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	for _, model := range []any{&entities.IngredientAmount{}, &entities.Favorite{}, &entities.Cart{}} {
		if err := db.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	if err := db.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
		return err
	}

	res := db.Delete(&entities.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.id")
		}).
		Preload("IngredientAmounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_amounts.id")
		}).
		Preload("IngredientAmounts.Ingredient")
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.withRelations(r.db.WithContext(ctx)).
		Where("recipes.id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) applyFilter(db *gorm.DB, viewerID uint, filter domain.RecipeFilter) *gorm.DB {
	sub := r.db.Session(&gorm.Session{NewDB: true})

	if filter.AuthorID != 0 {
		db = db.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		db = db.Where("recipes.id IN (?)", sub.
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.IsFavorited {
		db = db.Where("recipes.id IN (?)", sub.
			Model(&entities.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	if filter.IsInShoppingCart {
		db = db.Where("recipes.id IN (?)", sub.
			Model(&entities.Cart{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	return db
}

func (r *recipeRepository) GetRecipes(ctx context.Context, viewerID uint, filter domain.RecipeFilter, offset, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&entities.Recipe{}), viewerID, filter).
		Session(&gorm.Session{})

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.withRelations(query).
		Order("recipes.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).Create(&entities.Favorite{UserID: userID, RecipeID: recipeID}).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	return r.exists(ctx, &entities.Favorite{}, userID, recipeID)
}

func (r *recipeRepository) FavoritedSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return r.recipeSet(ctx, &entities.Favorite{}, userID, recipeIDs)
}

func (r *recipeRepository) AddToCart(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).Create(&entities.Cart{UserID: userID, RecipeID: recipeID}).Error
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Cart{})
	return res.RowsAffected > 0, res.Error
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return r.exists(ctx, &entities.Cart{}, userID, recipeID)
}

func (r *recipeRepository) InCartSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return r.recipeSet(ctx, &entities.Cart{}, userID, recipeIDs)
}

func (r *recipeRepository) exists(ctx context.Context, model any, userID, recipeID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) recipeSet(ctx context.Context, model any, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return set, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *recipeRepository) GetShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Table("ingredient_amounts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_amounts.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = ingredient_amounts.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
