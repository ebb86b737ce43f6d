package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/hashing"
)

const hashCacheTTL = 5 * time.Minute

// ConfigHasher tracks the MD5 of the configuration file on disk and of the
// configuration the running service was started with.
type ConfigHasher struct {
	configPath string

	// Current hash (from config file) with caching
	currentHash     string
	currentHashTime time.Time

	// Active hash (from running service)
	activeHash string

	mu sync.RWMutex
}

// NewConfigHasher creates a new config hasher
func NewConfigHasher(configPath string) *ConfigHasher {
	return &ConfigHasher{
		configPath: configPath,
	}
}

// GetCurrentConfigHash returns cached hash of current config file
// Automatically calls UpdateCurrentConfigHash() on cache miss
func (h *ConfigHasher) GetCurrentConfigHash() (string, error) {
	h.mu.RLock()
	if time.Since(h.currentHashTime) < hashCacheTTL && h.currentHash != "" {
		hash := h.currentHash
		h.mu.RUnlock()
		return hash, nil
	}
	h.mu.RUnlock()

	return h.UpdateCurrentConfigHash()
}

// UpdateCurrentConfigHash recalculates config hash and resets cache
func (h *ConfigHasher) UpdateCurrentConfigHash() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg, err := LoadConfig(h.configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	hash, err := CalculateHash(cfg)
	if err != nil {
		return "", err
	}

	h.currentHash = hash
	h.currentHashTime = time.Now()

	return hash, nil
}

// GetActiveConfigHash returns hash of config that was active when service started
func (h *ConfigHasher) GetActiveConfigHash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeHash
}

// SetActiveConfigHash sets the hash of config when service starts
func (h *ConfigHasher) SetActiveConfigHash(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeHash = hash
}

// IsOutdated reports whether the file on disk differs from the active config.
// A file that cannot be hashed is not reported as outdated.
func (h *ConfigHasher) IsOutdated() bool {
	active := h.GetActiveConfigHash()
	if active == "" {
		return false
	}
	current, err := h.GetCurrentConfigHash()
	if err != nil {
		return false
	}
	return current != active
}

// CalculateHash returns the signature of the effective configuration,
// defaults included.
func CalculateHash(cfg *Config) (string, error) {
	hash, err := hashing.Sign(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return hash, nil
}
