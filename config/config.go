package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/componentize-go/errors"
	"github.com/wippyai/componentize-go/wasmtools"
)

const (
	// DefaultFile is read from the working directory when present.
	DefaultFile = "componentize.yaml"
	// EnvWasmTools supplies the wasm-tools path when neither flags nor the
	// file set one.
	EnvWasmTools = "COMPONENTIZE_GO_WASM_TOOLS"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	Validate    *bool    `yaml:"validate,omitempty"`
	World       string   `yaml:"world,omitempty"`
	Go          string   `yaml:"go,omitempty"`
	WasmTools   string   `yaml:"wasm_tools,omitempty"`
	LogLevel    string   `yaml:"log_level,omitempty"`
	WitPaths    []string `yaml:"wit_paths,omitempty"`
	Features    []string `yaml:"features,omitempty"`
	AllFeatures bool     `yaml:"all_features,omitempty"`
}

// Load reads the file at path. A missing file is an empty configuration
// unless required is set.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &Config{}, nil
		}
		return nil, errors.IO(errors.PhaseConfig, path, err)
	}
	return Parse(path, data)
}

// Parse decodes a configuration document. Unknown keys are rejected.
func Parse(path string, data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalWithOptions(data, &c, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindParse).
			Path(path).
			Detail("%s", yaml.FormatError(err, false, true)).
			Build()
	}
	if _, err := c.Level(); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindArgument).
			Path(path).
			Detail("invalid log_level %q", c.LogLevel).
			Cause(err).
			Build()
	}
	return &c, nil
}

// Overrides carries values set on the command line. Nil pointers and empty
// slices leave the file value in place.
type Overrides struct {
	World       *string
	Go          *string
	WasmTools   *string
	LogLevel    *string
	Validate    *bool
	AllFeatures *bool
	WitPaths    []string
	Features    []string
}

// With returns c with every set override applied.
func (c Config) With(o Overrides) Config {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.World, o.World)
	set(&c.Go, o.Go)
	set(&c.WasmTools, o.WasmTools)
	set(&c.LogLevel, o.LogLevel)
	if o.Validate != nil {
		v := *o.Validate
		c.Validate = &v
	}
	if o.AllFeatures != nil {
		c.AllFeatures = *o.AllFeatures
	}
	if len(o.WitPaths) > 0 {
		c.WitPaths = o.WitPaths
	}
	if len(o.Features) > 0 {
		c.Features = o.Features
	}
	return c
}

// WasmToolsPath returns the configured wasm-tools path, falling back to
// EnvWasmTools and then to PATH lookup.
func (c Config) WasmToolsPath(lookup func(string) (string, bool)) string {
	if c.WasmTools != "" {
		return c.WasmTools
	}
	if v, ok := lookup(EnvWasmTools); ok && v != "" {
		return v
	}
	return wasmtools.DefaultPath
}

// ValidateModules reports whether modules are validated before encoding.
// It defaults to true.
func (c Config) ValidateModules() bool {
	return c.Validate == nil || *c.Validate
}

// Level parses LogLevel; empty means info.
func (c Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.LogLevel)
}
