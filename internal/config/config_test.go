// config_test.go — Unit tests for configuration loading.
package config

import (
	"testing"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CHUNK_SIZE", "250")
	t.Setenv("WORKER_COUNT", "7")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.ChunkSize != 250 {
		t.Errorf("ChunkSize = %d, want 250", cfg.ChunkSize)
	}
	if cfg.WorkerCount != 7 {
		t.Errorf("WorkerCount = %d, want 7", cfg.WorkerCount)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("WORKER_COUNT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("default ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("default WorkerCount = %d, want 3", cfg.WorkerCount)
	}
	if cfg.OpenRouterModel == "" {
		t.Error("default OpenRouterModel should not be empty")
	}
}

func TestLoadRejectsTinyChunkSize(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("CHUNK_SIZE", "10")

	if _, err := Load(); err == nil {
		t.Error("Load accepted a chunk size below the minimum")
	}
}

func TestLoadRejectsDefaultJWTSecretInRelease(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load accepted the default JWT secret in release mode")
	}
}
