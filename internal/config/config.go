package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type GeoIPConfig struct {
	BaseURL       string
	Timeout       time.Duration
	CacheSize     int
	RatePerMinute int
}

type ControllerConfig struct {
	ServerAddr    string
	DatabasePath  string
	PublicURL     string
	AdminUsername string
	AdminPassword string
	// Defaults applied to agents created through the operator API
	DefaultPollInterval        time.Duration
	DefaultInactivityThreshold time.Duration
	TokenTTL                   time.Duration
	SweepInterval              time.Duration
	GeoIP                      GeoIPConfig
	Redis                      *RedisConfig
	// TrustedProxies, when non-empty, limits which peers may set client IP headers
	TrustedProxies []string
}

type AgentConfig struct {
	ControllerURL string
	ConnectToken  string
	AgentID       string
	AgentKey      string
	// CredentialsFile keeps agentId/agentKey across restarts once the token is spent
	CredentialsFile string
	AgentAddr       string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	// Connect retry configuration, applied to transport failures only
	ConnectMaxRetries        int
	ConnectInitialBackoff    time.Duration
	ConnectMaxBackoff        time.Duration
	ConnectBackoffMultiplier float64
	// Redis, when set, lets the controller wake the agent before its next poll
	Redis *RedisConfig
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadRedis returns nil unless REDIS_HOST is set.
func loadRedis(v *viper.Viper) *RedisConfig {
	host := v.GetString("REDIS_HOST")
	if host == "" {
		return nil
	}
	v.SetDefault("REDIS_PORT", 6379)
	return &RedisConfig{
		Host:     host,
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

// newViper reads environment variables and, when present, a config.yaml from the
// working directory or ./configs. Environment wins over the file.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// LoadControllerConfig reads controller config from environment or returns defaults
func LoadControllerConfig() (*ControllerConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("CONTROLLER_ADDR", ":8080")
	v.SetDefault("DATABASE_PATH", "./data/data.db")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASSWORD", "password")
	v.SetDefault("DEFAULT_POLL_INTERVAL", 60)
	v.SetDefault("DEFAULT_INACTIVITY_THRESHOLD", 180)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("SWEEP_INTERVAL", 30)
	v.SetDefault("GEOIP_URL", "http://ip-api.com")
	v.SetDefault("GEOIP_TIMEOUT", "3s")
	v.SetDefault("GEOIP_CACHE_SIZE", 1024)
	v.SetDefault("GEOIP_RATE_PER_MINUTE", 45)

	cfg := &ControllerConfig{
		ServerAddr:                 v.GetString("CONTROLLER_ADDR"),
		DatabasePath:               v.GetString("DATABASE_PATH"),
		PublicURL:                  strings.TrimSuffix(v.GetString("PUBLIC_URL"), "/"),
		AdminUsername:              v.GetString("ADMIN_USER"),
		AdminPassword:              v.GetString("ADMIN_PASSWORD"),
		DefaultPollInterval:        time.Duration(v.GetInt("DEFAULT_POLL_INTERVAL")) * time.Second,
		DefaultInactivityThreshold: time.Duration(v.GetInt("DEFAULT_INACTIVITY_THRESHOLD")) * time.Second,
		TokenTTL:                   v.GetDuration("TOKEN_TTL"),
		SweepInterval:              time.Duration(v.GetInt("SWEEP_INTERVAL")) * time.Second,
		GeoIP: GeoIPConfig{
			BaseURL:       v.GetString("GEOIP_URL"),
			Timeout:       v.GetDuration("GEOIP_TIMEOUT"),
			CacheSize:     v.GetInt("GEOIP_CACHE_SIZE"),
			RatePerMinute: v.GetInt("GEOIP_RATE_PER_MINUTE"),
		},
	}

	cfg.Redis = loadRedis(v)
	cfg.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))

	if cfg.DefaultPollInterval <= 0 {
		return nil, fmt.Errorf("DEFAULT_POLL_INTERVAL must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	return cfg, nil
}

// LoadAgentConfig reads agent config from environment or returns defaults
func LoadAgentConfig() (*AgentConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	v.SetDefault("CONTROLLER_URL", "http://localhost:8080")
	v.SetDefault("AGENT_ADDR", ":8081")
	v.SetDefault("POLL_INTERVAL", 60)
	v.SetDefault("REQUEST_TIMEOUT", 10)
	v.SetDefault("CONNECT_MAX_RETRIES", 5)
	v.SetDefault("CONNECT_INITIAL_BACKOFF", 1)
	v.SetDefault("CONNECT_MAX_BACKOFF", 30)
	v.SetDefault("CONNECT_BACKOFF_MULTIPLIER", 2.0)

	cfg := &AgentConfig{
		ControllerURL:            strings.TrimSuffix(v.GetString("CONTROLLER_URL"), "/"),
		ConnectToken:             v.GetString("CONNECT_TOKEN"),
		AgentID:                  v.GetString("AGENT_ID"),
		AgentKey:                 v.GetString("AGENT_KEY"),
		CredentialsFile:          v.GetString("CREDENTIALS_FILE"),
		AgentAddr:                v.GetString("AGENT_ADDR"),
		PollInterval:             time.Duration(v.GetInt("POLL_INTERVAL")) * time.Second,
		RequestTimeout:           time.Duration(v.GetInt("REQUEST_TIMEOUT")) * time.Second,
		ConnectMaxRetries:        v.GetInt("CONNECT_MAX_RETRIES"),
		ConnectInitialBackoff:    time.Duration(v.GetInt("CONNECT_INITIAL_BACKOFF")) * time.Second,
		ConnectMaxBackoff:        time.Duration(v.GetInt("CONNECT_MAX_BACKOFF")) * time.Second,
		ConnectBackoffMultiplier: v.GetFloat64("CONNECT_BACKOFF_MULTIPLIER"),
		Redis:                    loadRedis(v),
	}

	if connectURL := v.GetString("CONNECT_URL"); connectURL != "" {
		base, token, err := SplitConnectURL(connectURL)
		if err != nil {
			return nil, err
		}
		cfg.ControllerURL = base
		cfg.ConnectToken = token
	}

	if cfg.ConnectToken == "" && (cfg.AgentID == "" || cfg.AgentKey == "") && cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("one of CONNECT_URL, CONNECT_TOKEN, AGENT_ID and AGENT_KEY, or CREDENTIALS_FILE must be set")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}

	return cfg, nil
}

// SplitConnectURL splits a connect URL handed out by the controller into the
// controller base URL and the connection token.
func SplitConnectURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("invalid CONNECT_URL %q", raw)
	}
	prefix, token, ok := strings.Cut(u.Path, connectPathSegment)
	token = strings.Trim(token, "/")
	if !ok || token == "" || strings.Contains(token, "/") {
		return "", "", fmt.Errorf("CONNECT_URL %q has no connection token", raw)
	}
	u.Path = strings.TrimSuffix(prefix, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), token, nil
}

const connectPathSegment = "/api/agent/connect/"
