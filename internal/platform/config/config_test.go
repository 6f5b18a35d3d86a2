package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	cfg := FromEnv()

	assert.Equal(t, "https://codeforces.com/api", cfg.CFAPIBaseURL)
	assert.Equal(t, 20*time.Second, cfg.CFHTTPTimeout)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 10, cfg.SavedQueryLimit)
	assert.Equal(t, "most_recent", cfg.DefaultSelectorPolicy)
	assert.Contains(t, cfg.DBConnStr, "dbname=cf_finder")
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SUBMISSION_CACHE_TTL", "90s")
	t.Setenv("SAVED_QUERY_LIMIT", "not-a-number")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Contains(t, cfg.DBConnStr, "host=db.internal")
	assert.Equal(t, 90*time.Second, cfg.SubmissionCacheTTL)
	assert.Equal(t, 10, cfg.SavedQueryLimit, "unparsable ints fall back")
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }},
		{"bad policy", func(c *Config) { c.DefaultSelectorPolicy = "latest" }},
		{"zero limit", func(c *Config) { c.SavedQueryLimit = 0 }},
		{"bad base url", func(c *Config) { c.CFAPIBaseURL = "not a url" }},
		{"non numeric port", func(c *Config) { c.APIPort = "http" }},
		{"bad otlp endpoint", func(c *Config) { c.OTLPEndpoint = "collector 4318" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := FromEnv()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
