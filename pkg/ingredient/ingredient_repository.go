package ingredient

import (
	"context"
	"foodgram/entities"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	IngredientRepository interface {
		// SearchIngredients matches name case-insensitively as a substring,
		// prefix matches first. An empty name returns the whole catalog.
		SearchIngredients(ctx context.Context, name string) ([]*entities.Ingredient, error)
		GetIngredientByID(ctx context.Context, id uint) (*entities.Ingredient, error)
		GetIngredientsByIDs(ctx context.Context, ids []uint) ([]*entities.Ingredient, error)
		ExistsByNameAndUnit(ctx context.Context, name, unit string) (bool, error)
		CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error
		CreateIngredients(ctx context.Context, ingredients []*entities.Ingredient) error
		UpdateIngredient(ctx context.Context, ingredient *entities.Ingredient) error
		DeleteIngredient(ctx context.Context, id uint) error
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ingredientRepository) SearchIngredients(ctx context.Context, name string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient

	query := r.db.WithContext(ctx).Model(&entities.Ingredient{})
	if name = strings.TrimSpace(name); name != "" {
		pattern := escapeLike(strings.ToLower(name))
		// prefix matches first, then the remaining substring matches
		query = query.
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+pattern+"%").
			Clauses(clause.OrderBy{Expression: clause.Expr{
				SQL:                `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, name, id`,
				Vars:               []any{pattern + "%"},
				WithoutParentheses: true,
			}})
	} else {
		query = query.Order("name").Order("id")
	}

	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id uint) (*entities.Ingredient, error) {
	var ingredient entities.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) GetIngredientsByIDs(ctx context.Context, ids []uint) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) ExistsByNameAndUnit(ctx context.Context, name, unit string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Ingredient{}).
		Where("LOWER(name) = LOWER(?) AND measurement_unit = ?", name, unit).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ingredientRepository) CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *ingredientRepository) CreateIngredients(ctx context.Context, ingredients []*entities.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ingredients, 500).Error
}

func (r *ingredientRepository) UpdateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	return r.db.WithContext(ctx).Save(ingredient).Error
}

func (r *ingredientRepository) DeleteIngredient(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&entities.IngredientAmount{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.Ingredient{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
