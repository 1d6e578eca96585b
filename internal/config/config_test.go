package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/library")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "library-be", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.JWTTTL())
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod())
	assert.Equal(t, 1.0, cfg.FinePerDay)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/library")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("LOAN_PERIOD_DAYS", "7")
	t.Setenv("FINE_PER_DAY", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.LoanPeriod())
	assert.Equal(t, 2.5, cfg.FinePerDay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "") // register restore, then unset
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	assert.Error(t, err)
}
