// Package testutil holds shared fixtures for package tests: an in-memory
// database with the full schema and in-memory fakes of the outbound services.
package testutil

import (
	"context"
	"fmt"
	migration "foodgram/cmd/database/migrate"
	"foodgram/entities"
	"foodgram/internal/utils/storage"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PNGDataURI is the smallest payload the image sniffer accepts as PNG.
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg=="

// NewTestDB opens a fresh in-memory SQLite database and migrates every entity.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Password:  string(hash),
		Role:      "user",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, color, slug string) *entities.Tag {
	t.Helper()
	tag := &entities.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()
	ingredient := &entities.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

// CreateRecipe inserts a recipe directly, bypassing service validation.
func CreateRecipe(t *testing.T, db *gorm.DB, author *entities.User, name string, tags []*entities.Tag, amounts map[uint]int) *entities.Recipe {
	t.Helper()

	recipe := &entities.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " text",
		ImageURL:    "http://storage.test/recipes/images/" + strings.ReplaceAll(name, " ", "_") + ".png",
		CookingTime: 10,
	}
	require.NoError(t, db.Create(recipe).Error)
	if len(tags) > 0 {
		require.NoError(t, db.Model(recipe).Association("Tags").Append(tags))
	}
	for ingredientID, amount := range amounts {
		require.NoError(t, db.Create(&entities.IngredientAmount{
			RecipeID:     recipe.ID,
			IngredientID: ingredientID,
			Amount:       amount,
		}).Error)
	}
	return recipe
}

// FakeStorage keeps uploaded objects in memory.
type FakeStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Objects: make(map[string][]byte)}
}

func (s *FakeStorage) UploadFile(_ context.Context, name string, data []byte, folder string, allowTypes ...string) (string, error) {
	_, ext, err := storage.DetectFileType(data, allowTypes...)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", folder, name, ext)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = data
	return key, nil
}

func (s *FakeStorage) DeleteFile(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, objectKey)
	s.Deleted = append(s.Deleted, objectKey)
	return nil
}

func (s *FakeStorage) GetPublicLinkKey(objectKey string) string {
	return "http://storage.test/" + objectKey
}

func (s *FakeStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "http://storage.test/")
}

// SentMail is one message captured by FakeMailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

func (m *FakeMailer) SendMail(toEmail string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: toEmail, Subject: subject, Body: body})
	return nil
}
