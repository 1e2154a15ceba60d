package config

import (
	"fmt"

	"github.com/yndnr/tokvault-go/internal/infra/confloader"
)

// Load builds a ServerConfig from defaults, the YAML file at path (if
// any) and TOKVAULT_* environment variables, then verifies it.
func Load(path string, opts ...confloader.Option) (*ServerConfig, error) {
	cfg, err := LoadUnverified(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadUnverified is Load without Verify.
func LoadUnverified(path string, opts ...confloader.Option) (*ServerConfig, error) {
	cfg := Default()
	loader := confloader.NewLoader(append([]confloader.Option{confloader.WithConfigFile(path)}, opts...)...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
