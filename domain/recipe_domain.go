package domain

import "errors"

var (
	MessageSuccessGetRecipes         = "success get recipes"
	MessageSuccessGetRecipeDetail    = "success get recipe detail"
	MessageSuccessCreateRecipe       = "recipe created successfully"
	MessageSuccessUpdateRecipe       = "recipe updated successfully"
	MessageSuccessDeleteRecipe       = "recipe deleted successfully"
	MessageSuccessAddFavorite        = "recipe added to favorites"
	MessageSuccessRemoveFavorite     = "recipe removed from favorites"
	MessageSuccessAddShoppingCart    = "recipe added to shopping cart"
	MessageSuccessRemoveShoppingCart = "recipe removed from shopping cart"

	MessageFailedGetRecipes           = "failed to get recipes"
	MessageFailedGetRecipeDetail      = "failed to get recipe detail"
	MessageFailedCreateRecipe         = "failed to create recipe"
	MessageFailedUpdateRecipe         = "failed to update recipe"
	MessageFailedDeleteRecipe         = "failed to delete recipe"
	MessageFailedAddFavorite          = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite       = "failed to remove recipe from favorites"
	MessageFailedAddShoppingCart      = "failed to add recipe to shopping cart"
	MessageFailedRemoveShoppingCart   = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShoppingCart = "failed to download shopping cart"

	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrNotRecipeAuthor  = errors.New("only the author can modify this recipe")
	ErrAlreadyFavorited = errors.New("recipe already added to favorites")
	ErrNotFavorited     = errors.New("recipe already removed from favorites")
	ErrAlreadyInCart    = errors.New("recipe already added to shopping cart")
	ErrNotInCart        = errors.New("recipe already removed from shopping cart")
	ErrImageRequired    = errors.New("image is required")
	ErrInvalidImage     = errors.New("invalid image")
	ErrInvalidImageType = errors.New("image type is not allowed")
)

// Field messages reported for rejected recipe writes.
const (
	MsgIngredientsRequired = "ingredients required"
	MsgIngredientsUnique   = "ingredients must be unique"
	MsgAmountPositive      = "amount must be greater than 0"
	MsgCookingTimeZero     = "cooking time must not be zero"
	MsgTagsRequired        = "tags required"
)

const ShoppingCartFileName = "products_list.txt"

type (
	// RecipeWriteRequest is the body accepted by recipe create and update.
	RecipeWriteRequest struct {
		Tags        []uint                    `json:"tags"`
		Ingredients []IngredientAmountRequest `json:"ingredients"`
		Name        string                    `json:"name" validate:"required,max=200"`
		Image       string                    `json:"image"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time"`
	}

	IngredientAmountRequest struct {
		ID     uint `json:"id"`
		Amount int  `json:"amount"`
	}

	RecipeFilter struct {
		AuthorID         uint
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	// RecipeResponse is the full read representation of a recipe.
	RecipeResponse struct {
		ID               uint                       `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []IngredientAmountResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
	}

	RecipeLite struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	IngredientAmountResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// ShoppingListItem is one aggregated line of the shopping cart export.
	ShoppingListItem struct {
		Name            string
		MeasurementUnit string
		Total           int64
	}
)
