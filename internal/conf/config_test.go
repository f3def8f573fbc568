package conf

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `server:
  listen: 127.0.0.1:9090
  public_url: https://textdrive.example.com
session:
  db_path: /tmp/test-textdrive.db
storage:
  endpoint: http://127.0.0.1:9000
  region: us-west-2
  access_key_id: minio
  secret_access_key: minio123
  path_style: true
  link_ttl_minutes: 30
gateway:
  base_url: https://api.gateway.example.com
  account_sid: AC123
  auth_token: tok
  number: "+15559990000"
auth:
  jwt_secret: test-secret
  token_ttl_minutes: 60
  code_ttl_minutes: 5
`

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "textdrive.yaml")
	if err := os.WriteFile(configPath, []byte(testConfig), 0600); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:9090" {
		t.Errorf("Expected listen '127.0.0.1:9090', got '%s'", cfg.Server.Listen)
	}
	if cfg.Storage.Endpoint != "http://127.0.0.1:9000" || !cfg.Storage.PathStyle {
		t.Errorf("Expected storage section parsed, got %+v", cfg.Storage)
	}
	if cfg.Gateway.Number != "+15559990000" {
		t.Errorf("Expected gateway number '+15559990000', got '%s'", cfg.Gateway.Number)
	}
	if cfg.Auth.TokenTTLMinutes != 60 || cfg.Auth.CodeTTLMinutes != 5 {
		t.Errorf("Expected auth TTLs parsed, got %+v", cfg.Auth)
	}
}

func TestLoadConfigSearchesUsualLocations(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "textdrive.yaml"), []byte(testConfig), 0600); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalDir) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Server.PublicURL != "https://textdrive.example.com" {
		t.Errorf("Expected public_url parsed, got '%s'", cfg.Server.PublicURL)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalDir) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected an error when no config file exists")
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := parse([]byte("auth:\n  jwt_secret: x\n"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Server.Listen != "0.0.0.0:8080" {
		t.Errorf("Expected default listen address, got '%s'", cfg.Server.Listen)
	}
	if cfg.Auth.TokenTTLMinutes != 24*60 || cfg.Auth.CodeTTLMinutes != 10 {
		t.Errorf("Expected default TTLs, got %+v", cfg.Auth)
	}
}

func TestMissingJWTSecretRejected(t *testing.T) {
	if _, err := parse([]byte("server:\n  listen: :8080\n")); err == nil {
		t.Error("Expected an error when jwt_secret is missing")
	}
}
