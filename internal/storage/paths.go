// Package storage persists engine preferences, game statistics and cached
// analyses in BadgerDB.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chesscore"

// platformBase returns the per-user application data root:
// ~/Library/Application Support on macOS, %APPDATA% on Windows and
// $XDG_DATA_HOME (or ~/.local/share) elsewhere.
func platformBase() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// ensureDir joins elem under the data directory and creates it.
func ensureDir(elem ...string) (string, error) {
	base, err := platformBase()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append([]string{base, appName}, elem...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDataDir returns the application data directory, creating it if needed.
func GetDataDir() (string, error) {
	return ensureDir()
}

// GetPGNDir returns the directory chesscore-replay reads when given no files.
func GetPGNDir() (string, error) {
	return ensureDir("pgn")
}

// GetDatabaseDir returns the BadgerDB directory.
func GetDatabaseDir() (string, error) {
	return ensureDir("db")
}
