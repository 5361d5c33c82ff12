// Package config loads the TOML configuration shared by every langlab
// binary: where the saved-automaton store lives, and (for langlabserver)
// the HTTP listen address, session secret, and operator password. The
// struct is read straight out of toml.Unmarshal rather than a bespoke
// parser.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// StoreKind selects which internal/store backend a binary should open.
type StoreKind string

const (
	StoreKindMemory StoreKind = "memory"
	StoreKindSQLite StoreKind = "sqlite"
)

// Config is the on-disk shape of langlab.toml.
type Config struct {
	Store struct {
		// Kind is "memory" or "sqlite". Defaults to "memory" when absent so
		// a config-less run still works.
		Kind StoreKind `toml:"kind"`

		// Dir is the directory sqlite database files live in, used only
		// when Kind is "sqlite".
		Dir string `toml:"dir"`
	} `toml:"store"`

	Server struct {
		ListenAddr string `toml:"listen_addr"`

		// Secret signs session JWTs (server/httpapi). A config with an
		// empty secret is rejected by server/httpapi's constructor rather
		// than silently signing with an empty key.
		Secret string `toml:"secret"`

		// Password is the operator password that mints session tokens. It
		// is bcrypt-hashed at server startup; only the hash is handed to
		// the API layer.
		Password string `toml:"password"`
	} `toml:"server"`
}

// Default returns the zero-config baseline every binary falls back to when
// no config file is given: an in-memory store, no server fields set.
func Default() Config {
	var c Config
	c.Store.Kind = StoreKindMemory
	return c
}

// Load reads and parses the TOML file at path. A missing file is not an
// error - callers get Default() back - so flags and config keys always have
// workable defaults rather than demanding a config file exist.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreKindMemory
	}
	return c, nil
}
