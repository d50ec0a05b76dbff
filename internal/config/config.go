// Package config loads the server's text configuration (§6): a TOML file
// with the enumerated option set, defaults applied before the file is
// decoded over them, the way the ambient Whale-style example structures its
// nested [section] tables.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Server is the §6 configuration surface.
type Server struct {
	ListenAddress   string `toml:"listen_address"`
	ListenPort      int    `toml:"listen_port"`
	MOTDFile        string `toml:"motd_file"`
	DBFile          string `toml:"db_file"`
	OpPassword      string `toml:"op_password"`
	OpCommandPrefix string `toml:"op_command_prefix"`
	Debug           bool   `toml:"debug"`
	LogFile         string `toml:"log_file"`
	AutosavePeriod  int    `toml:"autosave_period"`
}

// Config is the top-level decoded document. Everything lives under
// [server] today; the table wrapper leaves room for a future [portal]
// section without another breaking rename.
type Config struct {
	Server Server `toml:"server"`
}

// Default returns the configuration §6 specifies when a file supplies
// nothing: empty listen address (all interfaces), port 1337, db_file
// world.sav, autosave every 300 seconds, op_command_prefix "@".
func Default() Config {
	return Config{Server: Server{
		ListenAddress:   "",
		ListenPort:      1337,
		DBFile:          "world.sav",
		OpCommandPrefix: "@",
		AutosavePeriod:  300,
	}}
}

// Load reads path, applying its tables over Default(). An empty path
// is not an error — the server runs on defaults, matching the teacher's
// and the original's tolerance of a missing config. A non-empty path that
// cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %q: %w", path, err)
	}
	if cfg.Server.OpCommandPrefix == "" {
		cfg.Server.OpCommandPrefix = "@"
	}
	return cfg, nil
}
