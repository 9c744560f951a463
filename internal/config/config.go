package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Storage struct {
		DatabaseURL string `mapstructure:"database_url"`
		FilePath    string `mapstructure:"file_path"`
	} `mapstructure:"storage"`
	Motivation struct {
		APIURL string `mapstructure:"api_url"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"motivation"`
	Auth struct {
		ClerkSecretKey string `mapstructure:"clerk_secret_key"`
	} `mapstructure:"auth"`
	FCM struct {
		CredentialsFile string `mapstructure:"credentials_file"`
	} `mapstructure:"fcm"`
}

// LoadConfig reads the yaml file and applies VITALTRACK_* environment
// overrides (e.g. VITALTRACK_SERVER_PORT). A missing config file is fine;
// defaults and the environment cover everything.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.port", "3333")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.file_path", "data/vitaltrack.json")
	v.SetDefault("motivation.api_url", "")
	v.SetDefault("motivation.api_key", "")
	v.SetDefault("auth.clerk_secret_key", "")
	v.SetDefault("fcm.credentials_file", "./serviceAccountKey.json")

	v.SetEnvPrefix("VITALTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Bare env vars win over everything, matching how the app is deployed.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
	}
	if key := os.Getenv("CLERK_SECRET_KEY"); key != "" {
		cfg.Auth.ClerkSecretKey = key
	}
	if url := os.Getenv("MOTIVATION_API_URL"); url != "" {
		cfg.Motivation.APIURL = url
	}
	if key := os.Getenv("MOTIVATION_API_KEY"); key != "" {
		cfg.Motivation.APIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	return &cfg, nil
}
