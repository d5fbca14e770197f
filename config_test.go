package prismblog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRISMIC_REPOSITORY", "spacetraveling-blog")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "spacetraveling", cfg.Name)
	assert.Equal(t, "http://localhost:3000", cfg.URL)
	assert.Equal(t, "spacetraveling-blog", cfg.Repository)
	assert.Equal(t, "posts", cfg.PostType)
	assert.Equal(t, 3, cfg.PageSize)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Equal(t, 60, cfg.MoreRequestsPerMinute)
	assert.Equal(t, DefaultDatabasePath(), cfg.DatabasePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SITE_URL", "https://blog.example.com/")
	t.Setenv("PRISMIC_ENDPOINT", "https://cdn.example.com/api/v2")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("LOCALIZE_IMAGES", "true")
	t.Setenv("MORE_REQUESTS_PER_MINUTE", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com", cfg.URL, "trailing slash is trimmed")
	assert.Equal(t, "https://cdn.example.com/api/v2", cfg.Endpoint)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.LocalizeImages)
	assert.Equal(t, 5, cfg.MoreRequestsPerMinute)
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := filepath.Join(dir, "site.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SITE_NAME=Meu Blog\nPOST_TYPE=articles\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SITE_NAME")
		os.Unsetenv("POST_TYPE")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "Meu Blog", cfg.Name)
	assert.Equal(t, "articles", cfg.PostType)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := LoadConfig("does-not-exist.env")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SiteConfig
		wantErr bool
	}{
		{"repository", SiteConfig{Repository: "blog", URL: "https://example.com"}, false},
		{"endpoint", SiteConfig{Endpoint: "http://localhost:9000/api/v2", URL: "http://localhost"}, false},
		{"no content source", SiteConfig{URL: "https://example.com"}, true},
		{"relative url", SiteConfig{Repository: "blog", URL: "example.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, "America/Sao_Paulo", SiteConfig{Timezone: "America/Sao_Paulo"}.Location().String())
	assert.Equal(t, time.UTC, SiteConfig{Timezone: "Nowhere/Special"}.Location())
}
