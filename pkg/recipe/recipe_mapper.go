package recipe

import (
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"
)

// RecipeFlags are the caller-relative parts of a recipe representation.
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// ToRecipeResponse maps a recipe with its relations preloaded. Flags are
// ignored for an anonymous viewer.
func ToRecipeResponse(recipe *entities.Recipe, viewer domain.Viewer, flags RecipeFlags) domain.RecipeResponse {
	if viewer.IsAnonymous() {
		flags = RecipeFlags{}
	}

	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, tag.ToTagResponse(t))
	}

	ingredients := make([]domain.IngredientAmountResponse, 0, len(recipe.IngredientAmounts))
	for _, a := range recipe.IngredientAmounts {
		item := domain.IngredientAmountResponse{ID: a.IngredientID, Amount: a.Amount}
		if a.Ingredient != nil {
			item.Name = a.Ingredient.Name
			item.MeasurementUnit = a.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, item)
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		author = user.ToUserResponse(recipe.Author, flags.AuthorSubscribed)
	}

	return domain.RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

func ToRecipeLite(recipe *entities.Recipe) domain.RecipeLite {
	return domain.RecipeLite{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
