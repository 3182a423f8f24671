// Command seed loads the ingredient catalog from a JSON file of
// {"name": ..., "measurement_unit": ...} objects.
package main

import (
	"context"
	"flag"
	"foodgram/cmd/config"
	migration "foodgram/cmd/database/migrate"
	"foodgram/domain"
	"foodgram/internal/utils"
	"foodgram/pkg/ingredient"
	"os"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	configPath := flag.String("config", utils.DefaultConfigPath, "path to the yaml config file")
	dataPath := flag.String("file", "data/ingredients.json", "ingredient catalog to import")
	flag.Parse()

	utils.LoadConfig(*configPath)

	items, err := readIngredients(*dataPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *dataPath, err)
	}

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	service := ingredient.NewIngredientService(ingredient.NewIngredientRepository(db))
	created, err := service.ImportIngredients(context.Background(), items)
	if err != nil {
		log.Fatalf("failed to import ingredients: %v", err)
	}
	log.Infof("imported %d of %d ingredients", created, len(items))
}

func readIngredients(path string) ([]domain.IngredientRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []domain.IngredientRequest
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
