package util

import (
	"os"
	"path/filepath"
)

// DefaultWorkDir returns the per-user data directory for streamlog,
// optionally suffixed with a sub directory.
func DefaultWorkDir(sub string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base, err = os.UserHomeDir()
		if err != nil {
			base = "."
		}
	}
	dir := filepath.Join(base, "streamlog")
	if sub != "" {
		dir = filepath.Join(dir, sub)
	}
	return dir
}

// PrepareDir creates the directory if it does not exist yet.
func PrepareDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}
