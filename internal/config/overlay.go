// config/overlay.go
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// OverlayEnv loads optional dotenv files and then applies environment
// variables on top of cfg. Variables that are not set leave cfg untouched.
func OverlayEnv(cfg *Config, dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		// Missing .env files are normal outside local development.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// LoadWithEnv reads the YAML file at path and overlays the environment.
func LoadWithEnv(path string, dotenvFiles ...string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := OverlayEnv(&cfg, dotenvFiles...); err != nil {
		return cfg, err
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}
