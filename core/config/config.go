// Package config loads and validates the shell's configuration file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default.yaml
var defaultConfigData []byte

// FileName is the configuration file looked up under $HOME.
const FileName = ".qsh.yaml"

// Config is the user-tunable shell configuration.
type Config struct {
	// Prompt is the PS1-style prompt template; \u, \h and \w expand to
	// the user, host and working directory.
	Prompt string `json:"prompt" validate:"required"`
	// HistoryFile is where command history persists; a leading ~ expands
	// to the home directory.
	HistoryFile string `json:"history_file" validate:"required"`
	// WelcomeBanner toggles the startup banner.
	WelcomeBanner bool `json:"welcome_banner"`
	// Aliases are preloaded into the alias table at startup.
	Aliases map[string]string `json:"aliases"`
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	return validate.Struct(c)
}

// Default returns the embedded default configuration.
func Default() *Config {
	var out Config
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Load reads the configuration at path; a missing file yields the
// defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var out Config
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &out, nil
}

// Initialize writes the default configuration to path unless one already
// exists.
func Initialize(fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return afero.WriteFile(fs, path, defaultConfigData, 0o644)
}
