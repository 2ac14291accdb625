package driver

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration read from minipy.yml. Zero values mean
// "no limit" / defaults throughout.
type Config struct {
	// MaxTicks bounds coroutine resumes per scheduler; 0 is unlimited.
	MaxTicks uint64 `yaml:"max_ticks"`
	// Suite is the default suite manifest path for the CLI.
	Suite string `yaml:"suite"`
}

// LoadConfig reads minipy.yml; a missing file yields the zero config.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
