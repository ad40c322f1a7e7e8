package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadSettings_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	cfg := s.Current()
	assert.Equal(t, "https://amp-api.music.apple.com", cfg.Catalog.URL)
	assert.Equal(t, "us", cfg.Catalog.Storefront)
	assert.Equal(t, 10, cfg.Cache.LibraryCacheDurationMinutes)
	assert.Equal(t, 2, cfg.Cache.SingleSongCacheDurationMinutes)
	assert.True(t, cfg.UI.EnableLoadingIndicator)

	_, ok := s.CurrentTokens()
	assert.False(t, ok)
	assert.Equal(t, domain.CacheDurations{Library: 10 * time.Minute, SingleSong: 2 * time.Minute}, s.Durations())
}

func TestLoadSettings_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, `
catalog:
  url: http://localhost:9999/
  storefront: GB
  developer_token: dev
  media_user_token: user
cache:
  library_cache_duration_minutes: 30
  single_song_cache_duration_minutes: 5
ui:
  enable_loading_indicator: false
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	cfg := s.Current()
	assert.Equal(t, "http://localhost:9999", cfg.Catalog.URL)
	assert.Equal(t, "gb", cfg.Catalog.Storefront)
	assert.False(t, cfg.UI.EnableLoadingIndicator)
	assert.Equal(t, 30*time.Minute, s.Durations().Library)
	assert.Equal(t, 5*time.Minute, s.Durations().SingleSong)

	tokens, ok := s.CurrentTokens()
	assert.True(t, ok)
	assert.Equal(t, domain.Tokens{Developer: "dev", MediaUser: "user"}, tokens)
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "catalog:\n  developer_token: file-dev\n")

	t.Setenv("CHECKMARK_CATALOG_DEVELOPER_TOKEN", "env-dev")
	t.Setenv("CHECKMARK_CATALOG_MEDIA_USER_TOKEN", "env-user")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	tokens, ok := s.CurrentTokens()
	assert.True(t, ok)
	assert.Equal(t, "env-dev", tokens.Developer)
	assert.Equal(t, "env-user", tokens.MediaUser)
}

func TestLoadSettings_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "catalog: [unclosed\n")

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		library     int
		singleSong  int
		wantLibrary int
		wantSingle  int
	}{
		{"in range", 15, 3, 15, 3},
		{"below minimum", 0, -4, 1, 1},
		{"above maximum", 600, 31, 60, 30},
		{"at bounds", 60, 30, 60, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Cache.LibraryCacheDurationMinutes = tt.library
			cfg.Cache.SingleSongCacheDurationMinutes = tt.singleSong
			cfg.Catalog.Storefront = "  "
			cfg.Catalog.RequestsPerSecond = -1

			cfg.Normalize()

			assert.Equal(t, tt.wantLibrary, cfg.Cache.LibraryCacheDurationMinutes)
			assert.Equal(t, tt.wantSingle, cfg.Cache.SingleSongCacheDurationMinutes)
			assert.Equal(t, "us", cfg.Catalog.Storefront)
			assert.Equal(t, float64(10), cfg.Catalog.RequestsPerSecond)
		})
	}
}

func TestSettings_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "cache:\n  library_cache_duration_minutes: 10\n")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	s.SetLogger(NullLogger())

	var seen []Config
	s.OnChange(func(cfg Config) { seen = append(seen, cfg) })

	writeConfig(t, path, "cache:\n  library_cache_duration_minutes: 1\n")
	require.NoError(t, s.v.ReadInConfig())
	s.reload(path)

	assert.Equal(t, time.Minute, s.Durations().Library)
	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Cache.LibraryCacheDurationMinutes)
}

func TestSettings_SaveTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveTokens(domain.Tokens{Developer: "dev", MediaUser: "user"}))

	tokens, ok := s.CurrentTokens()
	assert.True(t, ok)
	assert.Equal(t, "dev", tokens.Developer)

	reloaded, err := LoadSettings(path)
	require.NoError(t, err)
	tokens, ok = reloaded.CurrentTokens()
	assert.True(t, ok)
	assert.Equal(t, domain.Tokens{Developer: "dev", MediaUser: "user"}, tokens)
	assert.Equal(t, 10, reloaded.Current().Cache.LibraryCacheDurationMinutes)
}

func TestClearCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "abc123"), 0755))

	require.NoError(t, ClearCache(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Already gone
	assert.NoError(t, ClearCache(dir))
	assert.NoError(t, ClearCache(""))
}
