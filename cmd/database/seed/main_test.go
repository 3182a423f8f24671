package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIngredients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingredients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "абрикосовое варенье", "measurement_unit": "г"},
		{"name": "salt", "measurement_unit": "g"}
	]`), 0o600))

	items, err := readIngredients(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "абрикосовое варенье", items[0].Name)
	assert.Equal(t, "g", items[1].MeasurementUnit)

	_, err = readIngredients(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
