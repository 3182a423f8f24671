package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: tags.slug (2067)")))
	assert.False(t, IsDuplicateKey(gorm.ErrRecordNotFound))
}
