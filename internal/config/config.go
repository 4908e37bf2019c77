// Package config resolves process configuration from the environment, an
// optional .env file and an optional YAML file of non-secret defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-gfbridge/pkg/forwarder"
	"github.com/goliatone/go-gfbridge/pkg/schemaproxy"
	"github.com/goliatone/go-gfbridge/pkg/wpgraphql"
)

// Environment variable names.
const (
	EnvAPIURL         = "GRAVITY_FORMS_API_URL"
	EnvConsumerKey    = "GF_CONSUMER_KEY"
	EnvConsumerSecret = "GF_CONSUMER_SECRET"
	EnvProxyURL       = "GRAVITY_FORMS_PROXY_URL"
	EnvWordPressURL   = "WORDPRESS_URL"
	EnvPort           = "PORT"
	EnvDefaultFormID  = "GF_DEFAULT_FORM_ID"
	EnvConfigFile     = "GFBRIDGE_CONFIG"
	EnvLogLevel       = "LOG_LEVEL"
)

const (
	DefaultPort         = "8080"
	DefaultProxyURL     = schemaproxy.DefaultProxyURL
	DefaultWordPressURL = wpgraphql.DefaultURL
)

// Config is the resolved process configuration. Secrets are never read from
// the YAML file.
type Config struct {
	APIURL         string      `yaml:"api_url"`
	ConsumerKey    string      `yaml:"-"`
	ConsumerSecret string      `yaml:"-"`
	ProxyURL       string      `yaml:"proxy_url"`
	WordPressURL   string      `yaml:"wordpress_url"`
	Port           string      `yaml:"port"`
	DefaultFormID  int         `yaml:"default_form_id"`
	LogLevel       string      `yaml:"log_level"`
	Theme          ThemeConfig `yaml:"theme"`
	// TemplatesDir replaces the embedded contact form templates.
	TemplatesDir   string      `yaml:"templates_dir"`
	SubmitLabel    string      `yaml:"submit_label"`
}

// ThemeConfig describes the contact form theme in YAML.
type ThemeConfig struct {
	Name     string                   `yaml:"name"`
	Version  string                   `yaml:"version"`
	Variant  string                   `yaml:"variant"`
	Tokens   map[string]string        `yaml:"tokens"`
	Prefix   string                   `yaml:"asset_prefix"`
	Assets   map[string]string        `yaml:"assets"`
	Variants map[string]VariantConfig `yaml:"variants"`
}

type VariantConfig struct {
	Tokens map[string]string `yaml:"tokens"`
	Prefix string            `yaml:"asset_prefix"`
	Assets map[string]string `yaml:"assets"`
}

// Manifest converts the YAML theme into a go-theme manifest. It returns nil
// when no theme is configured.
func (t ThemeConfig) Manifest() *theme.Manifest {
	if strings.TrimSpace(t.Name) == "" {
		return nil
	}
	manifest := &theme.Manifest{
		Name:    t.Name,
		Version: t.Version,
		Tokens:  t.Tokens,
		Assets: theme.Assets{
			Prefix: t.Prefix,
			Files:  t.Assets,
		},
	}
	if len(t.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(t.Variants))
		for name, variant := range t.Variants {
			manifest.Variants[name] = theme.Variant{
				Tokens: variant.Tokens,
				Assets: theme.Assets{Prefix: variant.Prefix, Files: variant.Assets},
			}
		}
	}
	return manifest
}

// Loader reads configuration. Getenv and ReadFile are swappable for tests.
type Loader struct {
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
	DotEnv   []string
}

// Load reads .env (when present), then the YAML file named by GFBRIDGE_CONFIG,
// then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Loader{Getenv: os.Getenv, ReadFile: os.ReadFile}.Load()
}

// Load resolves configuration without touching the process environment
// beyond the configured Getenv.
func (l Loader) Load() (Config, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	readFile := l.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	cfg := Config{
		ProxyURL:     DefaultProxyURL,
		WordPressURL: DefaultWordPressURL,
		Port:         DefaultPort,
		LogLevel:     "info",
	}

	dotenv := map[string]string{}
	if len(l.DotEnv) > 0 {
		values, err := godotenv.Read(l.DotEnv...)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read dotenv: %w", err)
		}
		dotenv = values
	}
	lookup := func(key string) string {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(dotenv[key])
	}

	if path := lookup(EnvConfigFile); path != "" {
		data, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	override := func(target *string, key string) {
		if value := lookup(key); value != "" {
			*target = value
		}
	}
	override(&cfg.APIURL, EnvAPIURL)
	override(&cfg.ConsumerKey, EnvConsumerKey)
	override(&cfg.ConsumerSecret, EnvConsumerSecret)
	override(&cfg.ProxyURL, EnvProxyURL)
	override(&cfg.WordPressURL, EnvWordPressURL)
	override(&cfg.Port, EnvPort)
	override(&cfg.LogLevel, EnvLogLevel)

	if raw := lookup(EnvDefaultFormID); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return Config{}, fmt.Errorf("config: %s must be a positive integer", EnvDefaultFormID)
		}
		cfg.DefaultFormID = id
	}

	if cfg.ProxyURL == "" {
		cfg.ProxyURL = DefaultProxyURL
	}
	if cfg.WordPressURL == "" {
		cfg.WordPressURL = DefaultWordPressURL
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ForwarderSettings re-reads the credentials from the environment on every
// call so rotated secrets apply without a restart. Values resolved at load
// time are the fallback.
func (c Config) ForwarderSettings(getenv func(string) string) forwarder.SettingsFunc {
	if getenv == nil {
		getenv = os.Getenv
	}
	return func() forwarder.Settings {
		pick := func(key, fallback string) string {
			if value := strings.TrimSpace(getenv(key)); value != "" {
				return value
			}
			return fallback
		}
		return forwarder.Settings{
			APIBase:  pick(EnvAPIURL, c.APIURL),
			User:     pick(EnvConsumerKey, c.ConsumerKey),
			Password: pick(EnvConsumerSecret, c.ConsumerSecret),
		}
	}
}
