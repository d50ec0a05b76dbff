package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, 1337, cfg.Server.ListenPort)
	require.Equal(t, "world.sav", cfg.Server.DBFile)
	require.Equal(t, "@", cfg.Server.OpCommandPrefix)
	require.Equal(t, 300, cfg.Server.AutosavePeriod)
}

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embermoo.toml")
	contents := `
[server]
listen_port = 4242
db_file = "custom.sav"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4242, cfg.Server.ListenPort)
	require.Equal(t, "custom.sav", cfg.Server.DBFile)
	require.Equal(t, "@", cfg.Server.OpCommandPrefix) // untouched default
}

func TestLoadMissingFilePathIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
