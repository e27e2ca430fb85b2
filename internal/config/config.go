// Package config loads the YAML process configuration for the run command.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Input types.
const (
	InputStdin = "stdin"
	InputFile  = "file"
	InputKafka = "kafka"
)

// Output types.
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputKafka  = "kafka"
	OutputRedis  = "redis"
	OutputSQLite = "sqlite"
)

var (
	inputTypes  = []string{InputStdin, InputFile, InputKafka}
	outputTypes = []string{OutputStdout, OutputFile, OutputKafka, OutputRedis, OutputSQLite}
)

// Config represents the top-level structure of the config file.
type Config struct {
	Rules         string        `yaml:"rules"`          // CUE rules directory
	TimerInterval time.Duration `yaml:"timer_interval"` // tick period, e.g. "1s"
	Quorum        int           `yaml:"quorum"`         // 0 = number of producers
	Input         InputConfig   `yaml:"input"`
	Output        OutputConfig  `yaml:"output"`
}

// InputConfig selects where log messages come from.
type InputConfig struct {
	Type    string   `yaml:"type"`
	Path    string   `yaml:"path,omitempty"`    // file
	Brokers []string `yaml:"brokers,omitempty"` // kafka
	Topic   string   `yaml:"topic,omitempty"`   // kafka
	Group   string   `yaml:"group,omitempty"`   // kafka consumer group
}

// OutputConfig selects where output records go.
type OutputConfig struct {
	Type    string   `yaml:"type"`
	Path    string   `yaml:"path,omitempty"`    // file, sqlite
	Brokers []string `yaml:"brokers,omitempty"` // kafka
	Topic   string   `yaml:"topic,omitempty"`   // kafka
	Addr    string   `yaml:"addr,omitempty"`    // redis
	Key     string   `yaml:"key,omitempty"`     // redis list
	DB      int      `yaml:"db,omitempty"`      // redis database
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Rules:         "rules",
		TimerInterval: time.Second,
		Input:         InputConfig{Type: InputStdin, Group: "correlate"},
		Output: OutputConfig{
			Type: OutputStdout,
			Addr: "localhost:6379",
			Key:  "correlate:results",
		},
	}
}

// Error reports an invalid configuration field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsConfigError returns true if err is a config Error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load reads the YAML file over Default() and validates the result.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values and the settings each type requires.
func (c *Config) Validate() error {
	if c.Rules == "" {
		return &Error{Field: "rules", Message: "rules directory is required"}
	}
	if c.TimerInterval <= 0 {
		return &Error{Field: "timer_interval", Message: "must be positive"}
	}
	if c.Quorum < 0 {
		return &Error{Field: "quorum", Message: "must not be negative"}
	}

	if !slices.Contains(inputTypes, c.Input.Type) {
		return &Error{Field: "input.type", Message: fmt.Sprintf("unknown type %q, must be one of %v", c.Input.Type, inputTypes)}
	}
	switch c.Input.Type {
	case InputFile:
		if c.Input.Path == "" {
			return &Error{Field: "input.path", Message: "required for file input"}
		}
	case InputKafka:
		if len(c.Input.Brokers) == 0 || c.Input.Topic == "" {
			return &Error{Field: "input", Message: "kafka input requires brokers and topic"}
		}
	}

	if !slices.Contains(outputTypes, c.Output.Type) {
		return &Error{Field: "output.type", Message: fmt.Sprintf("unknown type %q, must be one of %v", c.Output.Type, outputTypes)}
	}
	switch c.Output.Type {
	case OutputFile, OutputSQLite:
		if c.Output.Path == "" {
			return &Error{Field: "output.path", Message: fmt.Sprintf("required for %s output", c.Output.Type)}
		}
	case OutputKafka:
		if len(c.Output.Brokers) == 0 || c.Output.Topic == "" {
			return &Error{Field: "output", Message: "kafka output requires brokers and topic"}
		}
	case OutputRedis:
		if c.Output.Addr == "" || c.Output.Key == "" {
			return &Error{Field: "output", Message: "redis output requires addr and key"}
		}
	}

	return nil
}
