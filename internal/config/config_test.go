package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=localhost user=postgres dbname=faceauth")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 30, cfg.TokenExpiryMinutes)
	assert.Equal(t, 30*time.Minute, cfg.TokenExpiry())
	assert.InDelta(t, 0.6, cfg.EmbeddingThreshold, 1e-9)
	assert.Equal(t, 128, cfg.EmbeddingDim)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=db user=postgres dbname=faceauth")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("EMBEDDING_THRESHOLD", "0.35")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.TokenExpiry())
	assert.InDelta(t, 0.35, cfg.EmbeddingThreshold, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsNonPositiveDim(t *testing.T) {
	t.Setenv("DATABASE_DSN", "host=db user=postgres dbname=faceauth")
	t.Setenv("EMBEDDING_DIM", "0")

	_, err := Load()
	require.Error(t, err)
}
