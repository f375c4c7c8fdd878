package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/numerator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "JMD", cfg.Numbering.Org)
	assert.Equal(t, numerator.DefaultMaxAttempts, cfg.Numbering.MaxAttempts)

	loc, err := cfg.Numbering.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	types, err := cfg.Numbering.NumeratorConfigs()
	require.NoError(t, err)
	require.Len(t, types, len(numerator.DocumentTypes))
	for _, dt := range numerator.DocumentTypes {
		assert.Equal(t, numerator.DefaultConfig(dt, "JMD"), types[dt], dt)
	}
}

func TestLoadFile_OverridesAndEnv(t *testing.T) {
	path := writeConfig(t, `
[app]
port = "9090"

[database]
driver = "postgres"
dsn = "postgres://localhost/billing"

[numbering]
org = "ACME"

[numbering.invoice]
style = "padded"
width = 4
finder = "latest"
`)
	t.Setenv("BILLING_NUMBERING_MAX_ATTEMPTS", "9")
	t.Setenv("BILLING_NUMBERING_ESTIMATE_FLOOR", "0")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 9, cfg.Numbering.MaxAttempts)

	types, err := cfg.Numbering.NumeratorConfigs()
	require.NoError(t, err)
	assert.Equal(t, numerator.Config{
		Org:    "ACME",
		Style:  numerator.ZeroPadded(4),
		Finder: numerator.FinderLatest,
	}, types[numerator.DocInvoice])
	assert.Zero(t, types[numerator.DocEstimate].Floor)
	assert.Equal(t, numerator.ZeroPadded(3), types[numerator.DocChallan].Style)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "[database]\ndriver = \"mysql\"\n"},
		{"postgres without dsn", "[database]\ndriver = \"postgres\"\n"},
		{"bad timezone", "[numbering]\ntimezone = \"Mars/Olympus\"\n"},
		{"slash in org", "[numbering]\norg = \"A/B\"\n"},
		{"zero attempts", "[numbering]\nmax_attempts = 0\n"},
		{"unknown style", "[numbering.challan]\nstyle = \"roman\"\n"},
		{"padded without width", "[numbering.invoice]\nstyle = \"padded\"\nwidth = 0\n"},
		{"unknown finder", "[numbering.estimate]\nfinder = \"guess\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
