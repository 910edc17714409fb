// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gitlab.com/accumulatenetwork/multifile/internal/logging"
	"gitlab.com/accumulatenetwork/multifile/pkg/archive"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile"
	"gopkg.in/yaml.v3"
)

// Config is the contents of a configuration file.
type Config struct {
	Log        LogConfig     `json:"log" toml:"log" yaml:"log"`
	Container  ContainerConf `json:"container" toml:"container" yaml:"container"`
	ArchiveFmt string        `json:"archiveFormat" toml:"archive-format" yaml:"archiveFormat"`
}

type LogConfig struct {
	Format string `json:"format" toml:"format" yaml:"format"`
	Level  string `json:"level" toml:"level" yaml:"level"`
}

type ContainerConf struct {
	MemoryMap  bool   `json:"memoryMap" toml:"memory-map" yaml:"memoryMap"`
	Allocation string `json:"allocation" toml:"allocation" yaml:"allocation"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Format: "plain",
			Level:  "error",
		},
		Container: ContainerConf{
			Allocation: multifile.ReuseFreeBlocks.String(),
		},
	}
}

// LoadConfig reads the file at path over the defaults. The format is chosen
// by the extension. ${NAME} references in string values are replaced with
// values from a .env file in the same directory or else from the environment.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("load config: %w", err)
	}

	var format func([]byte, any) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", ".tml":
		format = toml.Unmarshal
	case ".yaml", ".yml":
		format = yaml.Unmarshal
	case ".json":
		format = json.Unmarshal
	default:
		return nil, errors.BadRequest.WithFormat("load config: unsupported file type %q", ext)
	}

	cfg := DefaultConfig()
	err = format(b, cfg)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("load config %s: %w", path, err)
	}

	err = cfg.expandEnv(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) expandEnv(dotEnv string) error {
	env, err := godotenv.Read(dotEnv)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.BadRequest.WithFormat("load config: read .env: %w", err)
	}

	var missing []string
	expand := func(name string) string {
		if v, ok := env[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		missing = append(missing, name)
		return ""
	}
	expandStrings(reflect.ValueOf(c).Elem(), expand)

	if len(missing) > 0 {
		return errors.BadRequest.WithFormat("load config: undefined variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func expandStrings(v reflect.Value, expand func(string) string) {
	switch v.Kind() {
	case reflect.String:
		v.SetString(os.Expand(v.String(), expand))

	case reflect.Struct:
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			if typ.Field(i).IsExported() {
				expandStrings(v.Field(i), expand)
			}
		}
	}
}

// Validate checks every field that has a fixed set of values.
func (c *Config) Validate() error {
	if _, err := logging.ParseRules(c.Log.Level); err != nil {
		return errors.UnknownError.WithFormat("log level: %w", err)
	}
	switch c.Log.Format {
	case "", "plain", "text", "json":
	default:
		return errors.BadRequest.WithFormat("invalid log format %q", c.Log.Format)
	}
	if _, err := multifile.ParseAllocationPolicy(c.Container.Allocation); err != nil {
		return errors.UnknownError.Wrap(err)
	}
	if c.ArchiveFmt != "" {
		if _, err := archive.ParseFormat(c.ArchiveFmt); err != nil {
			return errors.UnknownError.Wrap(err)
		}
	}
	return nil
}

// Options returns the container options described by the configuration.
func (c *Config) Options() []multifile.Option {
	var options []multifile.Option
	if c.Container.MemoryMap {
		options = append(options, multifile.WithMemoryMap())
	}
	if p, err := multifile.ParseAllocationPolicy(c.Container.Allocation); err == nil {
		options = append(options, multifile.WithAllocationPolicy(p))
	}
	return options
}
