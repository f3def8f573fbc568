package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"textdrive/internal/messenger"
	"textdrive/internal/provider"
)

type ServerConfig struct {
	Listen    string `yaml:"listen"`
	PublicURL string `yaml:"public_url"`
}

type SessionConfig struct {
	DBPath string `yaml:"db_path"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	CodeTTLMinutes  int    `yaml:"code_ttl_minutes"`
}

type Config struct {
	Server  ServerConfig     `yaml:"server"`
	Session SessionConfig    `yaml:"session"`
	Storage provider.Config  `yaml:"storage"`
	Gateway messenger.Config `yaml:"gateway"`
	Auth    AuthConfig       `yaml:"auth"`
}

// LoadConfig reads the first config file found in the usual locations.
func LoadConfig() (*Config, error) {
	configPaths := []string{
		"/etc/textdrive/textdrive.yaml",
		"./config/textdrive.yaml",
		"./textdrive.yaml",
		"config/textdrive.yaml",
	}

	var data []byte
	var err error
	for _, path := range configPaths {
		data, err = os.ReadFile(filepath.Clean(path))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return parse(data)
}

// LoadConfigFile reads a config file from an explicit path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "0.0.0.0:8080"
	}
	if cfg.Session.DBPath == "" {
		cfg.Session.DBPath = "./data/textdrive.db"
	}
	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 24 * 60
	}
	if cfg.Auth.CodeTTLMinutes == 0 {
		cfg.Auth.CodeTTLMinutes = 10
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret must be set")
	}

	return &cfg, nil
}
