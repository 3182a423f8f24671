package ingredient

import (
	"context"
	"errors"
	"foodgram/domain"
	"foodgram/entities"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error)
		GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error)
		CreateIngredient(ctx context.Context, req domain.IngredientRequest) (domain.IngredientResponse, error)
		UpdateIngredient(ctx context.Context, id uint, req domain.IngredientUpdateRequest) (domain.IngredientResponse, error)
		DeleteIngredient(ctx context.Context, id uint) error
		// ImportIngredients adds the catalog entries whose (name, unit) pair is
		// not stored yet and returns how many were created.
		ImportIngredients(ctx context.Context, items []domain.IngredientRequest) (int, error)
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func ToIngredientResponse(ingredient *entities.Ingredient) domain.IngredientResponse {
	return domain.IngredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func (s *ingredientService) GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.SearchIngredients(ctx, name)
	if err != nil {
		return nil, err
	}

	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		res = append(res, ToIngredientResponse(i))
	}
	return res, nil
}

func (s *ingredientService) GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.IngredientRequest) (domain.IngredientResponse, error) {
	ingredient := &entities.Ingredient{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *ingredientService) UpdateIngredient(ctx context.Context, id uint, req domain.IngredientUpdateRequest) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		ingredient.Name = name
	}
	if unit := strings.TrimSpace(req.MeasurementUnit); unit != "" {
		ingredient.MeasurementUnit = unit
	}

	if err := s.ingredientRepository.UpdateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, id uint) error {
	if err := s.ingredientRepository.DeleteIngredient(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrIngredientNotFound
		}
		return err
	}
	return nil
}

func (s *ingredientService) ImportIngredients(ctx context.Context, items []domain.IngredientRequest) (int, error) {
	seen := make(map[string]bool, len(items))
	batch := make([]*entities.Ingredient, 0, len(items))

	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		unit := strings.TrimSpace(item.MeasurementUnit)
		if name == "" || unit == "" {
			log.Warnf("skipping ingredient with empty name or unit: %q", item.Name)
			continue
		}

		key := strings.ToLower(name) + "\x00" + unit
		if seen[key] {
			continue
		}
		seen[key] = true

		exists, err := s.ingredientRepository.ExistsByNameAndUnit(ctx, name, unit)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		batch = append(batch, &entities.Ingredient{Name: name, MeasurementUnit: unit})
	}

	if err := s.ingredientRepository.CreateIngredients(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}
