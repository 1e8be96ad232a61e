package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the optional tmasm.toml project file: defaults for any flag
// not given explicitly on the command line. Explicit flags always win
// over the file, and the file always wins over built-in defaults.
type Config struct {
	Listing struct {
		Rows int `toml:"rows"`
		Cols int `toml:"cols"`
	} `toml:"listing"`

	Build struct {
		IncludePaths   []string `toml:"include_paths"`
		CaseSensitive  bool     `toml:"case_sensitive"`
	} `toml:"build"`

	Diagnostics struct {
		TraceParse    bool `toml:"trace_parse"`
		TraceExpand   bool `toml:"trace_expand"`
		TraceAST      bool `toml:"trace_ast"`
		TraceCodegen  bool `toml:"trace_codegen"`
	} `toml:"diagnostics"`
}

// DefaultConfig returns the configuration in effect when no tmasm.toml is
// present or a key is left unset.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Listing.Rows = 60
	cfg.Listing.Cols = 132
	cfg.Build.CaseSensitive = false
	return cfg
}

// LoadConfig reads path, falling back to defaults unchanged if the file
// does not exist. A present file that fails to parse is an I/O error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
