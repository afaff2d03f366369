package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's on-disk defaults, loaded from icydb.yaml if
// present: the same "find the dotfile walking up from cwd" pattern a
// ddb.ui.yaml loader would use.
type Config struct {
	DataDir string `yaml:"dataDir"`
}

// LoadConfig searches for icydb.yaml starting from the current directory
// and walking up to the filesystem root. Returns an empty Config if none
// is found.
func LoadConfig() Config {
	var cfg Config

	path := findConfigFile()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "icydb.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
