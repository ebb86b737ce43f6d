package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestCalculateHash_Deterministic(t *testing.T) {
	hash1, err := CalculateHash(validConfig())
	if err != nil {
		t.Fatalf("Failed to calculate hash: %v", err)
	}
	hash2, _ := CalculateHash(validConfig())

	if hash1 != hash2 {
		t.Errorf("Hashes should be identical, got %s and %s", hash1, hash2)
	}
	if hash1 == "" {
		t.Error("Hash should not be empty")
	}
}

func TestCalculateHash_ChangesWithConfig(t *testing.T) {
	cfg := validConfig()
	hash1, _ := CalculateHash(cfg)

	cfg.DNS.ScopeAllInterfaces = true
	hash2, _ := CalculateHash(cfg)

	if hash1 == hash2 {
		t.Error("Hash should change when configuration changes")
	}
}

func TestConfigHasher_IsOutdated(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keen-ipmon.toml")
	writeConfig(t, configFile, "[general]\nstate_file = \"a.toml\"\n")

	hasher := NewConfigHasher(configFile)
	if hasher.IsOutdated() {
		t.Error("Hasher without an active hash should not report outdated")
	}

	current, err := hasher.GetCurrentConfigHash()
	if err != nil {
		t.Fatalf("Failed to hash config: %v", err)
	}
	hasher.SetActiveConfigHash(current)
	if hasher.IsOutdated() {
		t.Error("Active config should not be outdated")
	}

	writeConfig(t, configFile, "[general]\nstate_file = \"b.toml\"\n")
	if _, err := hasher.UpdateCurrentConfigHash(); err != nil {
		t.Fatalf("Failed to rehash config: %v", err)
	}
	if !hasher.IsOutdated() {
		t.Error("Changed config file should be reported outdated")
	}
}
