package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/spf13/viper"
)

// Bounds for the user-facing cache durations (minutes)
const (
	MinLibraryCacheMinutes    = 1
	MaxLibraryCacheMinutes    = 60
	MinSingleSongCacheMinutes = 1
	MaxSingleSongCacheMinutes = 30

	envPrefix = "CHECKMARK"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds the catalog API endpoint and credentials
type CatalogConfig struct {
	URL               string  `mapstructure:"url"`
	Storefront        string  `mapstructure:"storefront"`          // e.g. "us", "gb"
	DeveloperToken    string  `mapstructure:"developer_token"`     // Bearer token
	MediaUserToken    string  `mapstructure:"media_user_token"`    // User-scoped token
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // Pacing for library pagination
}

// CacheConfig holds cache locations and lifetimes
type CacheConfig struct {
	Dir                            string `mapstructure:"dir"`
	LibraryCacheDurationMinutes    int    `mapstructure:"library_cache_duration_minutes"`
	SingleSongCacheDurationMinutes int    `mapstructure:"single_song_cache_duration_minutes"`
}

// UIConfig holds terminal UI configuration
type UIConfig struct {
	EnableLoadingIndicator bool   `mapstructure:"enable_loading_indicator"`
	Theme                  string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			URL:               "https://amp-api.music.apple.com",
			Storefront:        "us",
			RequestsPerSecond: 10,
		},
		Cache: CacheConfig{
			Dir:                            defaultCachePath(),
			LibraryCacheDurationMinutes:    10,
			SingleSongCacheDurationMinutes: 2,
		},
		UI: UIConfig{
			EnableLoadingIndicator: true,
			Theme:                  "default",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Normalize clamps out-of-range values and fills blanks with defaults
func (c *Config) Normalize() {
	def := DefaultConfig()

	c.Cache.LibraryCacheDurationMinutes = clamp(c.Cache.LibraryCacheDurationMinutes,
		MinLibraryCacheMinutes, MaxLibraryCacheMinutes)
	c.Cache.SingleSongCacheDurationMinutes = clamp(c.Cache.SingleSongCacheDurationMinutes,
		MinSingleSongCacheMinutes, MaxSingleSongCacheMinutes)

	c.Catalog.URL = strings.TrimRight(strings.TrimSpace(c.Catalog.URL), "/")
	if c.Catalog.URL == "" {
		c.Catalog.URL = def.Catalog.URL
	}
	c.Catalog.Storefront = strings.ToLower(strings.TrimSpace(c.Catalog.Storefront))
	if c.Catalog.Storefront == "" {
		c.Catalog.Storefront = def.Catalog.Storefront
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		c.Catalog.RequestsPerSecond = def.Catalog.RequestsPerSecond
	}
	c.Catalog.DeveloperToken = strings.TrimSpace(c.Catalog.DeveloperToken)
	c.Catalog.MediaUserToken = strings.TrimSpace(c.Catalog.MediaUserToken)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Durations converts the configured minutes to cache TTLs
func (c *Config) Durations() domain.CacheDurations {
	return domain.CacheDurations{
		Library:    time.Duration(c.Cache.LibraryCacheDurationMinutes) * time.Minute,
		SingleSong: time.Duration(c.Cache.SingleSongCacheDurationMinutes) * time.Minute,
	}
}

// Tokens returns the configured catalog credentials
func (c *Config) Tokens() domain.Tokens {
	return domain.Tokens{
		Developer: c.Catalog.DeveloperToken,
		MediaUser: c.Catalog.MediaUserToken,
	}
}

// IsConfigured returns true if both catalog tokens are set
func (c *Config) IsConfigured() bool {
	return c.Tokens().Complete()
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "checkmark", "checkmark.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "checkmark", "checkmark.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "checkmark")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "checkmark")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "checkmark", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "checkmark", "cache")
	}
}

// Settings is the live configuration. It is reloaded when the config file
// changes, so cache durations and tokens can be edited while running.
type Settings struct {
	v      *viper.Viper
	logger *slog.Logger

	mu       sync.RWMutex
	cfg      Config
	onChange []func(Config)
}

// LoadSettings reads configuration from configFile (or the default search
// path when empty) and the environment.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. CHECKMARK_CATALOG_DEVELOPER_TOKEN
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &Settings{v: v, logger: slog.Default(), cfg: *cfg}, nil
}

// setDefaults registers every key so environment overrides are picked up
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.url", cfg.Catalog.URL)
	v.SetDefault("catalog.storefront", cfg.Catalog.Storefront)
	v.SetDefault("catalog.developer_token", cfg.Catalog.DeveloperToken)
	v.SetDefault("catalog.media_user_token", cfg.Catalog.MediaUserToken)
	v.SetDefault("catalog.requests_per_second", cfg.Catalog.RequestsPerSecond)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.library_cache_duration_minutes", cfg.Cache.LibraryCacheDurationMinutes)
	v.SetDefault("cache.single_song_cache_duration_minutes", cfg.Cache.SingleSongCacheDurationMinutes)

	v.SetDefault("ui.enable_loading_indicator", cfg.UI.EnableLoadingIndicator)
	v.SetDefault("ui.theme", cfg.UI.Theme)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// SetLogger sets the logger used for reload diagnostics
func (s *Settings) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Current returns a copy of the active configuration
func (s *Settings) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Durations returns the active cache TTLs
func (s *Settings) Durations() domain.CacheDurations {
	cfg := s.Current()
	return cfg.Durations()
}

// CurrentTokens implements domain.CredentialProvider
func (s *Settings) CurrentTokens() (domain.Tokens, bool) {
	cfg := s.Current()
	tokens := cfg.Tokens()
	return tokens, tokens.Complete()
}

// ConfigFile returns the file the settings were read from, if any
func (s *Settings) ConfigFile() string {
	return s.v.ConfigFileUsed()
}

// OnChange registers fn to run after every successful reload
func (s *Settings) OnChange(fn func(Config)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Watch starts watching the config file. It is a no-op when no file was found.
func (s *Settings) Watch() {
	if s.v.ConfigFileUsed() == "" {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s.reload(e.Name)
	})
	s.v.WatchConfig()
}

// reload re-decodes the configuration viper has just re-read
func (s *Settings) reload(source string) {
	cfg, err := decode(s.v)
	if err != nil {
		s.logger.Warn("config reload failed, keeping previous settings", "error", err, "file", source)
		return
	}

	s.mu.Lock()
	s.cfg = *cfg
	listeners := append([]func(Config){}, s.onChange...)
	s.mu.Unlock()

	s.logger.Info("config reloaded",
		"file", source,
		"libraryCacheMinutes", cfg.Cache.LibraryCacheDurationMinutes,
		"singleSongCacheMinutes", cfg.Cache.SingleSongCacheDurationMinutes)

	for _, fn := range listeners {
		fn(*cfg)
	}
}

// Save writes cfg to the file the settings came from (or the default path)
// and makes it the active configuration.
func (s *Settings) Save(cfg Config) error {
	cfg.Normalize()

	configFile := s.v.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(defaultConfigPath(), "config.yaml")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	s.v.Set("catalog.url", cfg.Catalog.URL)
	s.v.Set("catalog.storefront", cfg.Catalog.Storefront)
	s.v.Set("catalog.developer_token", cfg.Catalog.DeveloperToken)
	s.v.Set("catalog.media_user_token", cfg.Catalog.MediaUserToken)
	s.v.Set("catalog.requests_per_second", cfg.Catalog.RequestsPerSecond)

	s.v.Set("cache.dir", cfg.Cache.Dir)
	s.v.Set("cache.library_cache_duration_minutes", cfg.Cache.LibraryCacheDurationMinutes)
	s.v.Set("cache.single_song_cache_duration_minutes", cfg.Cache.SingleSongCacheDurationMinutes)

	s.v.Set("ui.enable_loading_indicator", cfg.UI.EnableLoadingIndicator)
	s.v.Set("ui.theme", cfg.UI.Theme)

	s.v.Set("logging.file", cfg.Logging.File)
	s.v.Set("logging.level", cfg.Logging.Level)

	if err := s.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	s.v.SetConfigFile(configFile)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// SaveTokens updates just the catalog tokens in the configuration
func (s *Settings) SaveTokens(tokens domain.Tokens) error {
	cfg := s.Current()
	cfg.Catalog.DeveloperToken = tokens.Developer
	cfg.Catalog.MediaUserToken = tokens.MediaUser
	return s.Save(cfg)
}

// ClearCache removes all cached data under dir
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
