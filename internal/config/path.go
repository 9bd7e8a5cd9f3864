// Package config holds helpers shared by the CLI configuration layer.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves the database and archive paths the CLI reads from
// its config file: a leading ~ becomes the user's home directory and
// $VAR references are expanded from the environment. An unresolvable
// home directory leaves the path untouched.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
