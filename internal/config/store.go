package config

import "os"

// Store is the persistent key/value store behind every save. Load reads the
// file each time; nothing is cached between calls.
type Store struct {
	Path   string
	Getenv func(string) string
}

func NewStore(path string) *Store {
	return &Store{Path: path, Getenv: os.Getenv}
}

// Load returns the effective config: file values, then SCRAPBOX_* overrides.
func (s *Store) Load() (*Config, error) {
	c, err := s.LoadFile()
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(s.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile returns the file values only. Use it when the result will be
// saved back, so environment overrides are not persisted.
func (s *Store) LoadFile() (*Config, error) {
	return Load(s.Path)
}

func (s *Store) Save(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.Save(s.Path)
}
