package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "neo-ogm/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NEO4J_URI", "")
	t.Setenv("QUERY_TIMEOUT_SECONDS", "")
	t.Setenv("FETCH_CONCURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://graph:7687")
	t.Setenv("ENV", "production")
	t.Setenv("FETCH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neo4j://graph:7687", cfg.Neo4jURI)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 8, cfg.FetchConcurrency)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Neo4jURI:         "bolt://localhost:7687",
		Neo4jUser:        "neo4j",
		Neo4jPassword:    "secret",
		QueryTimeout:     time.Second,
		FetchConcurrency: 1,
	}
	require.NoError(t, valid.Validate())

	missing := valid
	missing.Neo4jPassword = ""
	var missingErr *apperrors.ErrConfigMissingRequired
	require.True(t, errors.As(missing.Validate(), &missingErr))
	assert.Equal(t, "NEO4J_PASSWORD", missingErr.Field)

	bad := valid
	bad.FetchConcurrency = 0
	var invalidErr *apperrors.ErrConfigValidationFailed
	require.True(t, errors.As(bad.Validate(), &invalidErr))
	assert.Equal(t, "FETCH_CONCURRENCY", invalidErr.Field)
}
