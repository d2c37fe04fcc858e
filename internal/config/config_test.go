package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for one test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func ctEnvs() map[string]string {
	return map[string]string{
		"CTP_PROJECT_KEY":   "demo-project",
		"CTP_CLIENT_ID":     "client-id",
		"CTP_CLIENT_SECRET": "client-secret",
		"CTP_AUTH_URL":      "https://auth.commercetools.example",
		"CTP_API_URL":       "https://api.commercetools.example",
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"ENVIRONMENT": "development"})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 1, cfg.MinRating)
	assert.Equal(t, 5, cfg.MaxRating)
	assert.Equal(t, 1000, cfg.MaxCommentLength)
	assert.Equal(t, 100, cfg.MaxAuthorNameLength)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_InvalidRatingBounds(t *testing.T) {
	setEnvs(t, map[string]string{
		"REVIEW_MIN_RATING": "5",
		"REVIEW_MAX_RATING": "1",
	})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rating bounds")
}

func TestLoad_UnknownBackend(t *testing.T) {
	setEnvs(t, map[string]string{"REVIEWS_BACKEND": "dynamo"})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "short-but-not-default",
	})

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestSelectedBackend_ExplicitWins(t *testing.T) {
	envs := ctEnvs()
	envs["REVIEWS_BACKEND"] = "memory"
	setEnvs(t, envs)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.SelectedBackend())
}

func TestSelectedBackend_CommercetoolsWhenConfigured(t *testing.T) {
	setEnvs(t, ctEnvs())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendCommercetools, cfg.SelectedBackend())
}

func TestSelectedBackend_MemoryInTestEnvironment(t *testing.T) {
	envs := ctEnvs()
	envs["ENVIRONMENT"] = "test"
	setEnvs(t, envs)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.SelectedBackend())
}

func TestSelectedBackend_MemoryWithoutCredentials(t *testing.T) {
	setEnvs(t, map[string]string{"CTP_PROJECT_KEY": "only-the-key"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.SelectedBackend())
}

func TestPostgresDSN(t *testing.T) {
	setEnvs(t, map[string]string{
		"POSTGRES_HOST":     "db.internal",
		"POSTGRES_PORT":     "5433",
		"POSTGRES_USER":     "svc",
		"POSTGRES_PASSWORD": "pw",
		"REVIEWS_DB_NAME":   "reviews",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/reviews?sslmode=disable", cfg.PostgresDSN())
}
