package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.False(t, cfg.Output.Coalesce)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[output]
format = "json"
coalesce = true

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.True(t, cfg.Output.Coalesce)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[output]\ncoalesce = true\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, "warning", cfg.Log.Level)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{"bad toml", "[output\n", "decoding config"},
		{"unknown key", "[output]\ncolor = true\n", "decoding config"},
		{"unknown format", "[output]\nformat = \"xml\"\n", `unknown output format "xml"`},
		{"unknown level", "[log]\nlevel = \"loud\"\n", "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mashtml.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"json\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = 3\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
