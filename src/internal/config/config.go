package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

const (
	DefaultMainTable        = 254
	DefaultScopedTableBase  = 1000
	DefaultSearchOrder      = 200000
	DefaultMulticastTimeout = 5
	DefaultGracePeriodMs    = 5000
	DefaultAPIListenAddr    = "127.0.0.1:12121"
	DefaultStateFile        = "state.toml"
)

func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Errorf("Configuration file not found: %s", configFile)
		return nil, ipmonerrors.NewConfigNotFoundError(fmt.Sprintf("configuration file not found: %s", configFile))
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(content)
	if err != nil {
		return nil, err
	}
	cfg._absConfigFilePath = configFile

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("State file: %s", cfg.GetAbsStateFilePath())

	return cfg, nil
}

// ParseConfig decodes TOML content and fills in defaults for absent sections.
func ParseConfig(content []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, ipmonerrors.NewConfigError("failed to parse config file", err)
		}
		return nil, ipmonerrors.NewConfigError("failed to parse config file", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills absent sections and zero-valued settings that have a
// non-zero default.
func (c *Config) ApplyDefaults() {
	if c.General == nil {
		c.General = &GeneralConfig{}
	}
	if c.General.StateFile == "" {
		c.General.StateFile = DefaultStateFile
	}

	if c.Election == nil {
		c.Election = &ElectionConfig{}
	}

	if c.Routing == nil {
		c.Routing = &RoutingConfig{Enable: true}
	}
	if c.Routing.MainTable == 0 {
		c.Routing.MainTable = DefaultMainTable
	}
	if c.Routing.ScopedTableBase == 0 {
		c.Routing.ScopedTableBase = DefaultScopedTableBase
	}

	if c.DNS == nil {
		c.DNS = &DNSConfig{}
	}
	if c.DNS.MulticastTimeoutSeconds == 0 {
		c.DNS.MulticastTimeoutSeconds = DefaultMulticastTimeout
	}
	if c.DNS.DefaultSearchOrder == 0 {
		c.DNS.DefaultSearchOrder = DefaultSearchOrder
	}

	if c.Notify == nil {
		c.Notify = &NotifyConfig{}
	}
	if c.Notify.GracePeriodMs == 0 {
		c.Notify.GracePeriodMs = DefaultGracePeriodMs
	}

	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.Enable && c.API.ListenAddr == "" {
		c.API.ListenAddr = DefaultAPIListenAddr
	}
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}
