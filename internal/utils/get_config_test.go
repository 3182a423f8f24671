package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
APP_PORT: "9000"
DB_HOST: db.internal
DB_PORT: "5433"
JWT_SECRET: s3cret
AWS_S3_BUCKET: recipes
RATE_LIMIT_MAX: 50
`)

	LoadConfig(path)

	assert.Equal(t, "9000", GetConfig("APP_PORT"))
	assert.Equal(t, "db.internal", GetConfig("DB_HOST"))
	assert.Equal(t, "5433", GetConfig("DB_PORT"))
	assert.Equal(t, "s3cret", GetConfig("JWT_SECRET"))
	assert.Equal(t, "recipes", GetConfig("AWS_S3_BUCKET"))
	assert.Equal(t, 50, GetConfigInt("RATE_LIMIT_MAX"))
	assert.Empty(t, GetConfig("UNKNOWN_KEY"))
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "DB_HOST: from-file\nJWT_SECRET: file-secret\n")
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("RATE_LIMIT_MAX", "7")

	LoadConfig(path)

	assert.Equal(t, "from-env", GetConfig("DB_HOST"))
	assert.Equal(t, "file-secret", GetConfig("JWT_SECRET"))
	assert.Equal(t, 7, GetConfigInt("RATE_LIMIT_MAX"))
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "8000", GetConfig("APP_PORT"))
	assert.Equal(t, 20, GetConfigInt("RATE_LIMIT_MAX"))
}
