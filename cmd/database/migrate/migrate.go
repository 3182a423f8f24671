package migration

import (
	"fmt"
	"foodgram/entities"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	models := []struct {
		name  string
		model any
	}{
		{"user", &entities.User{}},
		{"follow", &entities.Follow{}},
		{"tag", &entities.Tag{}},
		{"ingredient", &entities.Ingredient{}},
		{"recipe", &entities.Recipe{}},
		{"ingredient amount", &entities.IngredientAmount{}},
		{"favorite", &entities.Favorite{}},
		{"cart", &entities.Cart{}},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Errorf("Error migrating %s database: %v", m.name, err)
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}

	log.Info("Database migration complete")
	return nil
}
