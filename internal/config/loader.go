package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads the optional configuration file and applies defaults. An
// empty or missing path yields a default configuration, so a flags-only
// invocation works without any file; CLI flags are layered on top by the
// caller, which then runs Validate before the pipeline starts. Callers
// that require the file to exist must check that themselves.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		UseCache: true,
		Model: ModelConfig{
			// Pre-set before unmarshal so an explicit temperature = 0.0
			// in the file survives; zero is a meaningful setting here.
			Temperature: DefaultTemperature,
		},
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// Absent file, run on defaults.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}
