package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML config file. Flags given on the command line
// take precedence over it.
type Config struct {
	Timeout    time.Duration `yaml:"timeout"`
	Memory     string        `yaml:"memory"`
	MaxHandles int           `yaml:"max_handles"`
	Database   string        `yaml:"database"`
	Cache      *bool         `yaml:"cache"`
	Malloc     string        `yaml:"malloc"`
	Free       string        `yaml:"free"`
}

func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "sexprbox", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "sexprbox", "config.yaml")
	}
	return ""
}

// loadConfig reads path. An empty path means the default location, which
// may be absent.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// apply copies config values into flags the user did not set. Flags the
// running command does not define are skipped.
func (c Config) apply(flags *pflag.FlagSet) error {
	values := map[string]string{}
	if c.Timeout > 0 {
		values["timeout"] = c.Timeout.String()
	}
	if c.Memory != "" {
		values["memory"] = c.Memory
	}
	if c.MaxHandles > 0 {
		values["max-handles"] = strconv.Itoa(c.MaxHandles)
	}
	if c.Database != "" {
		values["db"] = c.Database
	}
	if c.Cache != nil {
		values["no-cache"] = strconv.FormatBool(!*c.Cache)
	}
	if c.Malloc != "" {
		values["malloc"] = c.Malloc
	}
	if c.Free != "" {
		values["free"] = c.Free
	}

	for name, v := range values {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
	}
	return nil
}
