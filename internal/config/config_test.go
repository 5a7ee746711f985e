package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8420, cfg.Server.Port)
	require.Equal(t, "none", cfg.Embedding.Provider)
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyrite.toml")
	content := `
[server]
host = "0.0.0.0"
port = 9000

[storage]
driver = "sqlite"
path = "/data/pyrite.db"

[[kb]]
name = "notes"
path = "/data/notes"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Len(t, cfg.KBs, 1)
	require.Equal(t, "notes", cfg.KBs[0].Name)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyrite.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0o644))

	t.Setenv("PYRITE_SERVER_PORT", "9500")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9500, cfg.Server.Port)
}
