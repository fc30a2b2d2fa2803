package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Credential sources.
const (
	CredentialSourceRedis   = "redis"
	CredentialSourceSecrets = "secretsmanager"
	CredentialSourceStatic  = "static"
)

// AppConfig holds application-level configuration.
type AppConfig struct {
	Redis       RedisConfig
	AppConfig   AppConfigSettings
	Backend     BackendConfig
	Frontend    FrontendConfig
	Purchase    PurchaseConfig
	Credentials CredentialsConfig
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int

	// ElastiCache-specific settings
	ClusterMode    bool
	SentinelAddrs  []string
	MasterName     string
	RouteByLatency bool
	RouteRandomly  bool
}

// AppConfigSettings holds AWS AppConfig settings for the purchase policy document.
// An empty Endpoint means the built-in policy is used.
type AppConfigSettings struct {
	Endpoint      string
	ApplicationID string
	EnvironmentID string
	Profile       string
}

// BackendConfig points at the ilim REST backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FrontendConfig is used to build the links shown to the user.
type FrontendConfig struct {
	BaseURL string
}

// PurchaseConfig holds overrides for the purchase policy. Zero values defer to the policy.
type PurchaseConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	SessionTTL   time.Duration
	OutcomeTTL   time.Duration
}

// CredentialsConfig selects where the bearer token comes from.
type CredentialsConfig struct {
	Source     string
	Subject    string
	SecretName string
	Token      string
	TokenTTL   time.Duration
}

// LoadFromEnv loads configuration from environment variables with sensible defaults.
func LoadFromEnv() (*AppConfig, error) {
	redisAddr := getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	if elasticacheEndpoint := os.Getenv("ELASTICACHE_ENDPOINT"); elasticacheEndpoint != "" {
		redisAddr = elasticacheEndpoint
	}

	redisCfg := RedisConfig{
		Addr:         redisAddr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}

	if os.Getenv("ELASTICACHE_CLUSTER_MODE") == "true" {
		redisCfg.ClusterMode = true
	}

	if sentinelAddrs := os.Getenv("ELASTICACHE_SENTINEL_ADDRS"); sentinelAddrs != "" {
		redisCfg.SentinelAddrs = strings.Split(sentinelAddrs, ",")
		redisCfg.MasterName = os.Getenv("ELASTICACHE_MASTER_NAME")
	}

	backendURL := os.Getenv("ILIM_BE_URL")
	if backendURL == "" {
		backendURL = getEnvOrDefault("NEXT_PUBLIC_ILIM_BE", "http://localhost:8081")
	}

	cfg := &AppConfig{
		Redis: redisCfg,
		AppConfig: AppConfigSettings{
			Endpoint:      os.Getenv("APPCONFIG_ENDPOINT"),
			ApplicationID: os.Getenv("APPCONFIG_APP_ID"),
			EnvironmentID: os.Getenv("APPCONFIG_ENV_ID"),
			Profile:       getEnvOrDefault("APPCONFIG_PROFILE", "purchase-policy"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(backendURL, "/"),
			Timeout: 10 * time.Second,
		},
		Frontend: FrontendConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("ILIM_FE_URL", "http://localhost:3000"), "/"),
		},
		Purchase: PurchaseConfig{
			SessionTTL: 24 * time.Hour,
			OutcomeTTL: 24 * time.Hour,
		},
		Credentials: CredentialsConfig{
			Source:     getEnvOrDefault("CREDENTIALS_SOURCE", CredentialSourceRedis),
			Subject:    getEnvOrDefault("ILIM_SUBJECT", "default"),
			SecretName: os.Getenv("CREDENTIALS_SECRET_NAME"),
			Token:      os.Getenv("ILIM_ACCESS_TOKEN"),
			TokenTTL:   7 * 24 * time.Hour,
		},
	}

	var err error
	if cfg.Backend.Timeout, err = durationEnv("ILIM_BE_TIMEOUT", cfg.Backend.Timeout); err != nil {
		return nil, err
	}
	if cfg.Purchase.PollInterval, err = durationEnv("PURCHASE_POLL_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.Purchase.MaxAttempts, err = intEnv("PURCHASE_MAX_ATTEMPTS", 0); err != nil {
		return nil, err
	}
	if cfg.Purchase.SessionTTL, err = durationEnv("PURCHASE_SESSION_TTL", cfg.Purchase.SessionTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
