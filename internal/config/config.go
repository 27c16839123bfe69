// Package config loads the TOML configuration of the mashtml command.
package config

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Output formats understood by the tokenize command.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the content of a mashtml config file.
//
//	[output]
//	format = "json"
//	coalesce = true
//
//	[log]
//	level = "debug"
type Config struct {
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`
}

// Output controls how tokens are printed.
type Output struct {
	Format   string `toml:"format"`
	Coalesce bool   `toml:"coalesce"`
}

// Log controls the command's logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Output: Output{Format: FormatText},
		Log:    Log{Level: logrus.WarnLevel.String()},
	}
}

// Load reads the config file at path. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading %s", path)
	}
	return cfg, nil
}

// Parse decodes a TOML document on top of the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the output format and log level.
func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return errors.Errorf("unknown output format %q", c.Output.Format)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// LogLevel is the parsed log level, warning if it doesn't parse.
func (c Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.WarnLevel
	}
	return level
}
