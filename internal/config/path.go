package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	appDirName  = "sbclip" // directory name under os.UserConfigDir
	configName  = "config.yaml"
	historyName = "history.db"
	defaultBase = "https://scrapbox.io"
)

func DefaultBaseURL() string { return defaultBase }

func DefaultDir() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if d == "" {
		return "", errors.New("os.UserConfigDir() returned empty string")
	}
	return filepath.Join(d, appDirName), nil
}

func DefaultConfigPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName), nil
}

// DefaultHistoryPath puts the history database next to the config file.
func DefaultHistoryPath(configPath string) string {
	if configPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			return historyName
		}
		return filepath.Join(dir, historyName)
	}
	return filepath.Join(filepath.Dir(configPath), historyName)
}
