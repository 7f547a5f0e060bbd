// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Server   ServerConfig   `toml:"server"`
}

// PracticeConfig maps typing test settings. Nil fields keep flag defaults.
type PracticeConfig struct {
	Duration   *int    `toml:"duration"`
	Difficulty *string `toml:"difficulty"`
	Words      *int    `toml:"words"`
	WordFile   *string `toml:"word-file"`
	Username   *string `toml:"username"`
	Server     *string `toml:"server"`
	Token      *string `toml:"token"`
}

// ServerConfig maps the results service settings.
type ServerConfig struct {
	Addr        *string  `toml:"addr"`
	DBDriver    *string  `toml:"db-driver"`
	DBDSN       *string  `toml:"db-dsn"`
	RedisAddr   *string  `toml:"redis-addr"`
	RedisPrefix *string  `toml:"redis-prefix"`
	JWTSecret   *string  `toml:"jwt-secret"`
	LogMode     *string  `toml:"log-mode"`
	CORSOrigins []string `toml:"cors-origins"`
	Pprof       *bool    `toml:"pprof"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultFileContents is written when the config command creates a new file.
const DefaultFileContents = `# typespeed configuration

[practice]
# duration = 1          # minutes: 1, 3 or 5
# difficulty = "medium" # easy, medium or hard
# words = 60
# username = ""
# server = ""           # submit results to a typespeed server instead of the local database
# token = ""            # bearer token for the server

[server]
# addr = ":8080"
# db-driver = "sqlite"  # sqlite or postgres
# db-dsn = ""
# redis-addr = ""       # enables the leaderboard cache
# redis-prefix = "typespeed"
# jwt-secret = ""
# log-mode = "dev"      # dev or prod
# cors-origins = ["http://localhost:5173"]
# pprof = false
`

// EnsureFile creates the config file with commented defaults when it does not exist.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := EnsureDir(path); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(DefaultFileContents), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
