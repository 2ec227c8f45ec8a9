package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/spf13/viper"
)

const envPrefix = "REVIEWGEN"

// Config represents the reviewgen configuration.
type Config struct {
	Provider        string          `json:"provider" mapstructure:"provider"`
	Model           string          `json:"model,omitempty" mapstructure:"model"`
	Thinking        bool            `json:"thinking" mapstructure:"thinking"`
	ExtendedContext bool            `json:"extendedContext" mapstructure:"extendedContext"`
	Format          string          `json:"format" mapstructure:"format"`
	Debug           DebugConfig     `json:"debug" mapstructure:"debug"`
	Log             LogConfig       `json:"log" mapstructure:"log"`
	OpenAI          ProviderConfig  `json:"openai" mapstructure:"openai"`
	Anthropic       ProviderConfig  `json:"anthropic" mapstructure:"anthropic"`
	Transport       TransportConfig `json:"transport" mapstructure:"transport"`
}

// DebugConfig holds observability toggles.
type DebugConfig struct {
	LogRawReplies   bool `json:"logRawReplies" mapstructure:"logRawReplies"`
	LogCacheMetrics bool `json:"logCacheMetrics" mapstructure:"logCacheMetrics"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// ProviderConfig is per-provider connection settings. APIKey comes from the
// environment only.
type ProviderConfig struct {
	BaseURL string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKey  string `json:"-" mapstructure:"apiKey"`
}

// TransportConfig bounds HTTP retries and timeouts.
type TransportConfig struct {
	MaxAttempts    int `json:"maxAttempts" mapstructure:"maxAttempts"`
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:        string(backend.DefaultProvider),
		Thinking:        false,
		ExtendedContext: true,
		Format:          "json",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transport: TransportConfig{
			MaxAttempts:    3,
			TimeoutSeconds: 120,
		},
	}
}

var defaultModels = map[backend.Provider]string{
	backend.ProviderOpenAI:    "gpt-4.1",
	backend.ProviderAnthropic: "claude-sonnet-4-5",
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p backend.Provider) string {
	return defaultModels[p]
}

// ProviderName returns the parsed provider.
func (c Config) ProviderName() (backend.Provider, error) {
	return backend.ParseProvider(c.Provider)
}

// ModelName returns the configured model, or the provider's default.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	p, err := c.ProviderName()
	if err != nil {
		return ""
	}
	return DefaultModel(p)
}

// ProviderSettings returns the connection settings for a provider.
func (c Config) ProviderSettings(p backend.Provider) ProviderConfig {
	if p == backend.ProviderAnthropic {
		return c.Anthropic
	}
	return c.OpenAI
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := c.ProviderName(); err != nil {
		return err
	}
	switch c.Format {
	case "json", "markdown", "text":
	default:
		return fmt.Errorf("unknown format: %s", c.Format)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	if c.Transport.MaxAttempts < 1 {
		return errors.New("transport.maxAttempts must be at least 1")
	}
	if c.Transport.TimeoutSeconds < 1 {
		return errors.New("transport.timeoutSeconds must be at least 1")
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for reviewgen.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reviewgen"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "reviewgen"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "reviewgen"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "reviewgen"), nil
	default:
		return filepath.Join(home, ".config", "reviewgen"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Save writes the config to the config file. Credentials are omitted.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// newViper returns a viper instance with defaults and, when env is set,
// environment bindings.
func newViper(env bool) *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("thinking", d.Thinking)
	v.SetDefault("extendedContext", d.ExtendedContext)
	v.SetDefault("format", d.Format)
	v.SetDefault("debug.logRawReplies", d.Debug.LogRawReplies)
	v.SetDefault("debug.logCacheMetrics", d.Debug.LogCacheMetrics)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("openai.baseURL", "")
	v.SetDefault("openai.apiKey", "")
	v.SetDefault("anthropic.baseURL", "")
	v.SetDefault("anthropic.apiKey", "")
	v.SetDefault("transport.maxAttempts", d.Transport.MaxAttempts)
	v.SetDefault("transport.timeoutSeconds", d.Transport.TimeoutSeconds)
	if !env {
		return v
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider SDK conventions take the unprefixed names.
	_ = v.BindEnv("openai.apiKey", "REVIEWGEN_OPENAI_APIKEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic.apiKey", "REVIEWGEN_ANTHROPIC_APIKEY", "ANTHROPIC_API_KEY")
	return v
}

func readFile(v *viper.Viper) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// LoadFile returns the defaults overlaid with the config file only. The
// environment is ignored so that rewriting the file never persists it.
func LoadFile() (Config, error) {
	v := newViper(false)
	if err := readFile(v); err != nil {
		return Config{}, err
	}
	return decode(v)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-empty values are applied).
func Load(overrides map[string]string) (Config, error) {
	v := newViper(true)
	if err := readFile(v); err != nil {
		return Config{}, err
	}

	for key, value := range overrides {
		if value == "" {
			continue
		}
		if _, ok := fieldKinds[key]; !ok {
			return Config{}, fmt.Errorf("unknown config key: %s", key)
		}
		v.Set(key, value)
	}
	return decode(v)
}

var (
	memoMu sync.Mutex
	memo   *Config
)

// Get returns the process-wide effective config, loading it on first use.
func Get() (Config, error) {
	memoMu.Lock()
	defer memoMu.Unlock()
	if memo != nil {
		return *memo, nil
	}
	cfg, err := Load(nil)
	if err != nil {
		return Config{}, err
	}
	memo = &cfg
	return cfg, nil
}

// Reset clears the memoized config so the next Get reloads it.
func Reset() {
	memoMu.Lock()
	memo = nil
	memoMu.Unlock()
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
)

// fieldKinds lists the keys accepted by SetField and Load overrides.
var fieldKinds = map[string]kind{
	"provider":                 kindString,
	"model":                    kindString,
	"thinking":                 kindBool,
	"extendedContext":          kindBool,
	"format":                   kindString,
	"debug.logRawReplies":      kindBool,
	"debug.logCacheMetrics":    kindBool,
	"log.level":                kindString,
	"log.format":               kindString,
	"openai.baseURL":           kindString,
	"anthropic.baseURL":        kindString,
	"transport.maxAttempts":    kindInt,
	"transport.timeoutSeconds": kindInt,
}

// Keys returns the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fieldKinds))
	for k := range fieldKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	k, ok := fieldKinds[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	var (
		b   bool
		n   int
		err error
	)
	switch k {
	case kindBool:
		if b, err = strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
	case kindInt:
		if n, err = strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
	}

	switch key {
	case "provider":
		p, err := backend.ParseProvider(value)
		if err != nil {
			return err
		}
		cfg.Provider = string(p)
	case "model":
		cfg.Model = value
	case "thinking":
		cfg.Thinking = b
	case "extendedContext":
		cfg.ExtendedContext = b
	case "format":
		cfg.Format = value
	case "debug.logRawReplies":
		cfg.Debug.LogRawReplies = b
	case "debug.logCacheMetrics":
		cfg.Debug.LogCacheMetrics = b
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "openai.baseURL":
		cfg.OpenAI.BaseURL = value
	case "anthropic.baseURL":
		cfg.Anthropic.BaseURL = value
	case "transport.maxAttempts":
		cfg.Transport.MaxAttempts = n
	case "transport.timeoutSeconds":
		cfg.Transport.TimeoutSeconds = n
	}
	return cfg.Validate()
}
