package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/ingredient"
	"foodgram/pkg/tag"
	"foodgram/pkg/user"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const imageFolder = "recipes/images"

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, viewer domain.Viewer, filter domain.RecipeFilter, p domain.PaginationRequest) (domain.PaginatedResponse[domain.RecipeResponse], error)
		GetRecipe(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, viewer domain.Viewer, req domain.RecipeWriteRequest) (domain.RecipeResponse, error)
		// UpdateRecipe replaces the whole tag and ingredient sets of the recipe.
		UpdateRecipe(ctx context.Context, viewer domain.Viewer, id uint, req domain.RecipeWriteRequest) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, viewer domain.Viewer, id uint) error

		AddFavorite(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeLite, error)
		RemoveFavorite(ctx context.Context, viewer domain.Viewer, id uint) error
		AddToShoppingCart(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeLite, error)
		RemoveFromShoppingCart(ctx context.Context, viewer domain.Viewer, id uint) error
		DownloadShoppingCart(ctx context.Context, viewer domain.Viewer) ([]byte, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		userRepository       user.UserRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	userRepository user.UserRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		userRepository:       userRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		s3:                   s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, viewer domain.Viewer, filter domain.RecipeFilter, p domain.PaginationRequest) (domain.PaginatedResponse[domain.RecipeResponse], error) {
	if (filter.IsFavorited || filter.IsInShoppingCart) && viewer.IsAnonymous() {
		return domain.PaginatedResponse[domain.RecipeResponse]{}, domain.ErrUnauthenticated
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, viewer.ID, filter, p.Offset(), p.Limit)
	if err != nil {
		return domain.PaginatedResponse[domain.RecipeResponse]{}, err
	}

	responses, err := s.toResponses(ctx, viewer, recipes)
	if err != nil {
		return domain.PaginatedResponse[domain.RecipeResponse]{}, err
	}
	return domain.NewPaginatedResponse(responses, count, p), nil
}

func (s *recipeService) toResponses(ctx context.Context, viewer domain.Viewer, recipes []*entities.Recipe) ([]domain.RecipeResponse, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.recipeRepository.FavoritedSet(ctx, viewer.ID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.recipeRepository.InCartSet(ctx, viewer.ID, recipeIDs)
	if err != nil {
		return nil, err
	}
	following, err := s.userRepository.FollowingSet(ctx, viewer.ID, uniqueIDs(authorIDs))
	if err != nil {
		return nil, err
	}

	responses := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		responses = append(responses, ToRecipeResponse(r, viewer, RecipeFlags{
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorSubscribed: following[r.AuthorID],
		}))
	}
	return responses, nil
}

func (s *recipeService) getRecipe(ctx context.Context, id uint) (*entities.Recipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeResponse, error) {
	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	responses, err := s.toResponses(ctx, viewer, []*entities.Recipe{recipe})
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return responses[0], nil
}

// resolveRelations loads the referenced tags and ingredients and builds the
// amount rows. Any unknown id fails the whole write.
func (s *recipeService) resolveRelations(ctx context.Context, req domain.RecipeWriteRequest) ([]*entities.Tag, []*entities.IngredientAmount, error) {
	tagIDs := uniqueIDs(req.Tags)
	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredientIDs := make([]uint, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		ingredientIDs = append(ingredientIDs, item.ID)
	}
	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	amounts := make([]*entities.IngredientAmount, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		amounts = append(amounts, &entities.IngredientAmount{
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return tags, amounts, nil
}

// uploadImage stores a base64 encoded image and returns its public link.
func (s *recipeService) uploadImage(ctx context.Context, encoded string) (string, error) {
	data, err := utils.DecodeBase64Image(encoded)
	if err != nil {
		return "", domain.NewValidationError("image", domain.ErrInvalidImage.Error())
	}

	key, err := s.s3.UploadFile(ctx, uuid.NewString(), data, imageFolder, storage.AllowImage...)
	if err != nil {
		if errors.Is(err, storage.ErrFileTypeNotAllowed) || errors.Is(err, storage.ErrEmptyFile) {
			return "", domain.NewValidationError("image", domain.ErrInvalidImageType.Error())
		}
		return "", fmt.Errorf("upload recipe image: %w", err)
	}
	return s.s3.GetPublicLinkKey(key), nil
}

func (s *recipeService) removeImage(ctx context.Context, link string) {
	key := s.s3.GetObjectKeyFromLink(link)
	if key == "" {
		return
	}
	if err := s.s3.DeleteFile(ctx, key); err != nil {
		log.Warnf("failed to delete image %s: %v", key, err)
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, viewer domain.Viewer, req domain.RecipeWriteRequest) (domain.RecipeResponse, error) {
	if viewer.IsAnonymous() {
		return domain.RecipeResponse{}, domain.ErrUnauthenticated
	}
	if err := validateRecipeWrite(req, true); err != nil {
		return domain.RecipeResponse{}, err
	}

	tags, amounts, err := s.resolveRelations(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		AuthorID:    viewer.ID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
	}

	err = s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		if err := repo.CreateRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := repo.ReplaceTags(ctx, recipe, tags); err != nil {
			return err
		}
		return repo.ReplaceIngredientAmounts(ctx, recipe.ID, amounts)
	})
	if err != nil {
		s.removeImage(ctx, imageURL)
		return domain.RecipeResponse{}, err
	}

	log.Infof("recipe created: id=%d author=%d", recipe.ID, viewer.ID)
	return s.GetRecipe(ctx, viewer, recipe.ID)
}

func (s *recipeService) getOwnRecipe(ctx context.Context, viewer domain.Viewer, id uint) (*entities.Recipe, error) {
	if viewer.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}
	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != viewer.ID {
		return nil, domain.ErrNotRecipeAuthor
	}
	return recipe, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, viewer domain.Viewer, id uint, req domain.RecipeWriteRequest) (domain.RecipeResponse, error) {
	recipe, err := s.getOwnRecipe(ctx, viewer, id)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if err := validateRecipeWrite(req, false); err != nil {
		return domain.RecipeResponse{}, err
	}

	tags, amounts, err := s.resolveRelations(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	oldImage := recipe.ImageURL
	if req.Image != "" {
		recipe.ImageURL, err = s.uploadImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}
	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	err = s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		if err := repo.UpdateRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := repo.ReplaceTags(ctx, recipe, tags); err != nil {
			return err
		}
		return repo.ReplaceIngredientAmounts(ctx, recipe.ID, amounts)
	})
	if err != nil {
		if recipe.ImageURL != oldImage {
			s.removeImage(ctx, recipe.ImageURL)
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.ImageURL != oldImage {
		s.removeImage(ctx, oldImage)
	}
	return s.GetRecipe(ctx, viewer, recipe.ID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, viewer domain.Viewer, id uint) error {
	recipe, err := s.getOwnRecipe(ctx, viewer, id)
	if err != nil {
		return err
	}

	err = s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		return repo.DeleteRecipe(ctx, recipe.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	s.removeImage(ctx, recipe.ImageURL)
	log.Infof("recipe deleted: id=%d author=%d", recipe.ID, viewer.ID)
	return nil
}

// relation describes one of the per-user recipe lists, favorites or cart.
type relation struct {
	exists     func(ctx context.Context, userID, recipeID uint) (bool, error)
	add        func(ctx context.Context, userID, recipeID uint) error
	remove     func(ctx context.Context, userID, recipeID uint) (bool, error)
	errAdded   error
	errRemoved error
}

func (s *recipeService) favorites() relation {
	return relation{
		exists:     s.recipeRepository.IsFavorited,
		add:        s.recipeRepository.AddFavorite,
		remove:     s.recipeRepository.RemoveFavorite,
		errAdded:   domain.ErrAlreadyFavorited,
		errRemoved: domain.ErrNotFavorited,
	}
}

func (s *recipeService) cart() relation {
	return relation{
		exists:     s.recipeRepository.IsInCart,
		add:        s.recipeRepository.AddToCart,
		remove:     s.recipeRepository.RemoveFromCart,
		errAdded:   domain.ErrAlreadyInCart,
		errRemoved: domain.ErrNotInCart,
	}
}

func (s *recipeService) addTo(ctx context.Context, rel relation, viewer domain.Viewer, id uint) (domain.RecipeLite, error) {
	if viewer.IsAnonymous() {
		return domain.RecipeLite{}, domain.ErrUnauthenticated
	}
	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.RecipeLite{}, err
	}

	exists, err := rel.exists(ctx, viewer.ID, recipe.ID)
	if err != nil {
		return domain.RecipeLite{}, err
	}
	if exists {
		return domain.RecipeLite{}, rel.errAdded
	}

	if err := rel.add(ctx, viewer.ID, recipe.ID); err != nil {
		if utils.IsDuplicateKey(err) {
			return domain.RecipeLite{}, rel.errAdded
		}
		return domain.RecipeLite{}, err
	}
	return ToRecipeLite(recipe), nil
}

func (s *recipeService) removeFrom(ctx context.Context, rel relation, viewer domain.Viewer, id uint) error {
	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return err
	}

	removed, err := rel.remove(ctx, viewer.ID, recipe.ID)
	if err != nil {
		return err
	}
	if !removed {
		return rel.errRemoved
	}
	return nil
}

func (s *recipeService) AddFavorite(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeLite, error) {
	return s.addTo(ctx, s.favorites(), viewer, id)
}

func (s *recipeService) RemoveFavorite(ctx context.Context, viewer domain.Viewer, id uint) error {
	return s.removeFrom(ctx, s.favorites(), viewer, id)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, viewer domain.Viewer, id uint) (domain.RecipeLite, error) {
	return s.addTo(ctx, s.cart(), viewer, id)
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, viewer domain.Viewer, id uint) error {
	return s.removeFrom(ctx, s.cart(), viewer, id)
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, viewer domain.Viewer) ([]byte, error) {
	if viewer.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}

	items, err := s.recipeRepository.GetShoppingList(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s - %d%s\n", item.Name, item.Total, item.MeasurementUnit)
	}
	return buf.Bytes(), nil
}
