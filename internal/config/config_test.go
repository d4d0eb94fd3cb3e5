package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, &Config{
		DBPath:     "olp.db",
		Format:     "text",
		BcryptCost: bcrypt.DefaultCost,
	}, c)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("OLP_DB", "/tmp/elsewhere.db")
	t.Setenv("OLP_FORMAT", "json")
	t.Setenv("OLP_BCRYPT_COST", "5")

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", c.DBPath)
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, 5, c.BcryptCost)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: from-file.db\nformat: json\n"), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", c.DBPath)
	assert.Equal(t, "json", c.Format)

	// Environment wins over the file.
	t.Setenv("OLP_DB", "from-env.db")
	c, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", c.DBPath)
}

func TestReadFile_MissingExplicitPath(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OLP_FORMAT=json\n"), 0o644))
	t.Setenv("OLP_FORMAT", "")
	require.NoError(t, os.Unsetenv("OLP_FORMAT"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	t.Cleanup(func() { os.Unsetenv("OLP_FORMAT") })

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "json", c.Format)
}

func TestValidate(t *testing.T) {
	base := Config{DBPath: "x.db", Format: "text", BcryptCost: bcrypt.MinCost}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db", func(c *Config) { c.DBPath = " " }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"cost too low", func(c *Config) { c.BcryptCost = 1 }},
		{"cost too high", func(c *Config) { c.BcryptCost = 99 }},
	}
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
