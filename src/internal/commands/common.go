package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool

	// Stdout receives command output. Nil means os.Stdout.
	Stdout io.Writer
}

func (c *AppContext) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadStateOrFail loads the state file named by override, or the one from
// the configuration when override is empty.
func loadStateOrFail(cfg *config.Config, override string) (*store.StateFile, error) {
	path := override
	if path == "" {
		path = cfg.GetAbsStateFilePath()
	}

	state, _, err := store.LoadStateFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load state file: %w", err)
	}
	return state, nil
}
