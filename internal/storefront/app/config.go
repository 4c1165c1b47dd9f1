package app

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/httpx"
)

// DefaultAPIURL is the production backend.
const DefaultAPIURL = "https://meu-ze-da-fruta-backend-8c4976f28553.herokuapp.com"

type Config struct {
	APIURL      string // Backend origin for OAuth redirects and the proxy (default: DefaultAPIURL)
	APIFetchURL string // Base for Gateway calls; a path such as /api/proxy is resolved against PublicURL (default: APIURL)
	PublicURL   string // Own origin used to build callback URLs (default: http://localhost:<port>)

	DatabaseFile  string // SQLite file holding the durable session (default: storefront.db)
	MasterKeyPath string // Key file sealing stored values (default: storefront.key)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Host      string // Interface the HTTP server binds (default: 127.0.0.1)
	Port      int    // HTTP server port (default: 3000)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	HTTPClientTimeout   time.Duration // Backend request timeout (default: 10s)
	ProfileTimeout      time.Duration // Profile enrichment timeout (default: 10s)

	// FeedPaths is the backend path each dashboard lists.
	FeedPaths map[authsdk.Role]string

	// RateLimits are read from RATELIMIT_<PROFILE> as "<requests>/<window>[:burst]".
	RateLimits httpx.RateLimits
}

// fileConfig is the optional YAML file named by STOREFRONT_CONFIG. Every
// field is overridden by its environment variable when that is set.
type fileConfig struct {
	APIURL              string            `yaml:"api_url"`
	APIFetchURL         string            `yaml:"api_fetch_url"`
	PublicURL           string            `yaml:"public_url"`
	DatabaseFile        string            `yaml:"database_file"`
	MasterKeyPath       string            `yaml:"master_key_path"`
	Env                 string            `yaml:"env"`
	LogLevel            string            `yaml:"log_level"`
	LogFormat           string            `yaml:"log_format"`
	Host                string            `yaml:"host"`
	Port                int               `yaml:"port"`
	ShutdownGracePeriod string            `yaml:"shutdown_grace_period"`
	HTTPClientTimeout   string            `yaml:"http_client_timeout"`
	ProfileTimeout      string            `yaml:"profile_timeout"`
	FeedPaths           map[string]string `yaml:"feed_paths"`
	RateLimits          map[string]string `yaml:"rate_limits"`
}

func defaultConfig() Config {
	return Config{
		APIURL:              DefaultAPIURL,
		DatabaseFile:        "storefront.db",
		MasterKeyPath:       "storefront.key",
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Host:                "127.0.0.1",
		Port:                3000,
		ShutdownGracePeriod: 10 * time.Second,
		HTTPClientTimeout:   authsdk.DefaultHTTPTimeout,
		ProfileTimeout:      authsdk.DefaultProfileTimeout,
		FeedPaths: map[authsdk.Role]string{
			authsdk.RoleComprador:  "/products",
			authsdk.RoleVendedor:   "/products/mine",
			authsdk.RoleEntregador: "/deliveries",
			authsdk.RoleAdmin:      "/admin/users",
		},
		RateLimits: httpx.DefaultRateLimits(),
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// and the environment, in that order.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.APIURL = getEnvOrDefault("API_URL", cfg.APIURL)
	cfg.APIFetchURL = getEnvOrDefault("API_FETCH_URL", cfg.APIFetchURL)
	cfg.PublicURL = getEnvOrDefault("PUBLIC_URL", cfg.PublicURL)
	cfg.DatabaseFile = getEnvOrDefault("DATABASE_FILE", cfg.DatabaseFile)
	cfg.MasterKeyPath = getEnvOrDefault("MASTER_KEY_PATH", cfg.MasterKeyPath)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HTTPClientTimeout = getEnvDurationOrDefault("HTTP_CLIENT_TIMEOUT", cfg.HTTPClientTimeout)
	cfg.ProfileTimeout = getEnvDurationOrDefault("PROFILE_TIMEOUT", cfg.ProfileTimeout)
	for _, role := range authsdk.Roles() {
		key := "FEED_" + strings.ToUpper(string(role)) + "_PATH"
		cfg.FeedPaths[role] = getEnvOrDefault(key, cfg.FeedPaths[role])
	}
	for name, dst := range cfg.rateLimitFields() {
		raw := os.Getenv("RATELIMIT_" + strings.ToUpper(name))
		if raw == "" {
			continue
		}
		l, err := httpx.ParseRateLimit(raw)
		if err != nil {
			return Config{}, fmt.Errorf("RATELIMIT_%s: %w", strings.ToUpper(name), err)
		}
		*dst = l
	}

	if cfg.APIFetchURL == "" {
		cfg.APIFetchURL = cfg.APIURL
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	cfg.APIFetchURL = strings.TrimSuffix(cfg.APIFetchURL, "/")
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	if err := requireAbsoluteURL("API_URL", cfg.APIURL); err != nil {
		return Config{}, err
	}
	if err := requireAbsoluteURL("PUBLIC_URL", cfg.PublicURL); err != nil {
		return Config{}, err
	}
	if strings.HasPrefix(cfg.APIFetchURL, "/") {
		cfg.APIFetchURL = cfg.PublicURL + cfg.APIFetchURL
	}
	if err := requireAbsoluteURL("API_FETCH_URL", cfg.APIFetchURL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CallbackURL is where the backend sends the browser after Google login.
func (c Config) CallbackURL() string {
	return c.PublicURL + "/auth/callback"
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.APIURL, fc.APIURL)
	setString(&c.APIFetchURL, fc.APIFetchURL)
	setString(&c.PublicURL, fc.PublicURL)
	setString(&c.DatabaseFile, fc.DatabaseFile)
	setString(&c.MasterKeyPath, fc.MasterKeyPath)
	setString(&c.Env, fc.Env)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.Host, fc.Host)
	if fc.Port > 0 {
		c.Port = fc.Port
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", fc.ShutdownGracePeriod, &c.ShutdownGracePeriod},
		{"http_client_timeout", fc.HTTPClientTimeout, &c.HTTPClientTimeout},
		{"profile_timeout", fc.ProfileTimeout, &c.ProfileTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}

	for raw, feed := range fc.FeedPaths {
		role := authsdk.Role(raw)
		if !role.Valid() {
			return fmt.Errorf("config file %s: feed_paths: unknown role %q", path, raw)
		}
		c.FeedPaths[role] = feed
	}

	fields := c.rateLimitFields()
	for name, raw := range fc.RateLimits {
		dst, ok := fields[name]
		if !ok {
			return fmt.Errorf("config file %s: rate_limits: unknown profile %q", path, name)
		}
		l, err := httpx.ParseRateLimit(raw)
		if err != nil {
			return fmt.Errorf("config file %s: rate_limits: %w", path, err)
		}
		*dst = l
	}
	return nil
}

func (c *Config) rateLimitFields() map[string]*httpx.RateLimit {
	return map[string]*httpx.RateLimit{
		"strict":   &c.RateLimits.Strict,
		"moderate": &c.RateLimits.Moderate,
		"lenient":  &c.RateLimits.Lenient,
		"public":   &c.RateLimits.Public,
	}
}

func requireAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
