package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig describes one upstream mobility provider the gateway fronts.
type ProviderConfig struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	BaseURL  string   `mapstructure:"base_url"`
	Features []string `mapstructure:"features"`
}

// RedisConfig holds connection settings for the continuation cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the broker list for event publishing.
type KafkaConfig struct {
	Brokers []string
}

// ServiceConfig holds all configuration for the estimates gateway.
type ServiceConfig struct {
	Port         string
	AppEnv       string
	IdentityURL  string
	DirectoryURL string
	Redis        RedisConfig
	Kafka        KafkaConfig
	Providers    []ProviderConfig
}

// Load reads configuration from the environment (ESTIMATES_ prefix) and the
// optional providers file named by ESTIMATES_PROVIDERS_FILE.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("ESTIMATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("IDENTITY_URL", "http://identity.api")
	v.SetDefault("DIRECTORY_URL", "http://services.api")
	v.SetDefault("PROVIDERS_FILE", "providers.yaml")

	providers, err := LoadProviders(v.GetString("PROVIDERS_FILE"))
	if err != nil {
		return nil, err
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:         port,
		AppEnv:       v.GetString("APP_ENV"),
		IdentityURL:  v.GetString("IDENTITY_URL"),
		DirectoryURL: v.GetString("DIRECTORY_URL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		},
		Providers: providers,
	}, nil
}

// LoadProviders reads the provider catalog from a yaml file. A missing file
// is not fatal; the gateway just starts with no providers registered.
func LoadProviders(path string) ([]ProviderConfig, error) {
	pv := viper.New()
	pv.SetConfigFile(path)

	if err := pv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read providers file %s: %w", path, err)
	}

	var providers []ProviderConfig
	if err := pv.UnmarshalKey("providers", &providers); err != nil {
		return nil, fmt.Errorf("failed to parse providers file %s: %w", path, err)
	}

	for _, p := range providers {
		if p.ID == "" || p.BaseURL == "" {
			return nil, fmt.Errorf("provider entry missing id or base_url in %s", path)
		}
	}
	return providers, nil
}
