package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir string `yaml:"data_dir"`

	// Catalog is an optional yaml denomination catalog; empty selects the
	// built-in one.
	Catalog string `yaml:"catalog"`

	Audit             bool   `yaml:"audit"`
	ArchiveAfterHours int    `yaml:"archive_after_hours"`
	IndexDB           string `yaml:"index_db"`
}

func Default() Config {
	return Config{
		DataDir:           "data",
		Audit:             true,
		ArchiveAfterHours: 48,
	}
}

func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	if c.DataDir == "" {
		return c, fmt.Errorf("config %s: data_dir must not be empty", path)
	}
	if c.ArchiveAfterHours < 0 {
		return c, fmt.Errorf("config %s: archive_after_hours must not be negative", path)
	}
	if c.IndexDB == "" {
		c.IndexDB = filepath.Join(c.DataDir, "index", "transactions.db")
	}
	return c, nil
}
