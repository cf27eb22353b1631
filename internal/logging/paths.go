package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.insightql/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".insightql", "logs")
	}
	return filepath.Join(home, ".insightql", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "insightql.log")
}

// ensureDir creates the directory containing path if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
