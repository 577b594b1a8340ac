package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PlaceholderProject is the project value shipped in a fresh config. Saving
// is refused until the user replaces it.
const PlaceholderProject = "your-project"

// ErrInvalid marks errors caused by bad config contents or values.
var ErrInvalid = errors.New("invalid config")

// What to do when the import API cannot be used for a reason other than
// authentication.
const (
	FailureReport        = "report"
	FailureFallbackToURL = "fallbackToUrl"
)

type Config struct {
	Project      string `json:"scrapbox_project" yaml:"scrapbox_project" toml:"scrapbox_project"`
	AutoOpen     *bool  `json:"scrapbox_auto_open,omitempty" yaml:"scrapbox_auto_open,omitempty" toml:"scrapbox_auto_open,omitempty"`
	BaseURL      string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	SID          string `json:"sid,omitempty" yaml:"sid,omitempty" toml:"sid,omitempty"`
	OnAPIFailure string `json:"on_api_failure,omitempty" yaml:"on_api_failure,omitempty" toml:"on_api_failure,omitempty"`
	History      *bool  `json:"history,omitempty" yaml:"history,omitempty" toml:"history,omitempty"`
	LogLevel     string `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Project:      PlaceholderProject,
		BaseURL:      DefaultBaseURL(),
		OnAPIFailure: FailureReport,
		LogLevel:     "info",
	}
}

// AutoOpenValue defaults to true when unset.
func (c *Config) AutoOpenValue() bool {
	if c.AutoOpen == nil {
		return true
	}
	return *c.AutoOpen
}

// HistoryValue defaults to true when unset.
func (c *Config) HistoryValue() bool {
	if c.History == nil {
		return true
	}
	return *c.History
}

// Configured reports whether a real destination project is set.
func (c *Config) Configured() bool {
	p := strings.TrimSpace(c.Project)
	return p != "" && p != PlaceholderProject
}

func (c *Config) FallbackToURL() bool {
	return c.OnAPIFailure == FailureFallbackToURL
}

func (c *Config) HasSession() bool {
	return c.SID != ""
}

func (c *Config) Validate() error {
	switch c.OnAPIFailure {
	case "", FailureReport, FailureFallbackToURL:
	default:
		return fmt.Errorf("%w: on_api_failure must be %q or %q, got %q", ErrInvalid, FailureReport, FailureFallbackToURL, c.OnAPIFailure)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: base_url must start with http:// or https://, got %q", ErrInvalid, c.BaseURL)
	}
	return nil
}

// ApplyEnv overrides file values with SCRAPBOX_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SCRAPBOX_PROJECT"); v != "" {
		c.Project = v
	}
	if v := getenv("SCRAPBOX_SID"); v != "" {
		c.SID = v
	}
	if v := getenv("SCRAPBOX_BASE_URL"); v != "" {
		c.BaseURL = v
	}
}

func Load(path string) (*Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return c, nil
	}
	if err := decode(path, b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w: %w", path, ErrInvalid, err)
	}
	// Fill defaults if missing
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL()
	}
	if c.OnAPIFailure == "" {
		c.OnAPIFailure = FailureReport
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c, nil
}

func (c *Config) Save(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := encode(path, c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	// Windows can't replace existing files via rename.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmp, path); err2 != nil {
			_ = os.Remove(tmp)
			return err2
		}
	}
	return nil
}

func decode(path string, b []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal(b, c)
	case ".toml":
		_, err := toml.Decode(string(b), c)
		return err
	default:
		return yaml.Unmarshal(b, c)
	}
}

func encode(path string, c *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return yaml.Marshal(c)
	}
}

// Keys lists the names accepted by Get and Set, in display order.
var Keys = []string{"scrapbox_project", "scrapbox_auto_open", "base_url", "sid", "on_api_failure", "history", "log_level"}

func (c *Config) Get(key string) (string, error) {
	switch key {
	case "scrapbox_project":
		return c.Project, nil
	case "scrapbox_auto_open":
		return strconv.FormatBool(c.AutoOpenValue()), nil
	case "base_url":
		return c.BaseURL, nil
	case "sid":
		return c.SID, nil
	case "on_api_failure":
		return c.OnAPIFailure, nil
	case "history":
		return strconv.FormatBool(c.HistoryValue()), nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
}

func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "scrapbox_project":
		c.Project = value
	case "scrapbox_auto_open":
		b, err := ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		}
		c.AutoOpen = &b
	case "base_url":
		c.BaseURL = strings.TrimRight(value, "/")
	case "sid":
		c.SID = value
	case "on_api_failure":
		c.OnAPIFailure = value
	case "history":
		b, err := ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		}
		c.History = &b
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
	}
	return c.Validate()
}

// ParseBool accepts 1/0, true/false, yes/no and y/n.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}
