package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	EnvMaxImages    = "MAX_IMAGES"
	EnvSkipCaptions = "SKIP_CAPTIONS"
)

// LoadFile overlays the values found in a YAML or TOML file onto base.
// Keys missing from the file keep the base value.
func LoadFile(path string, base Profile) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	p := base
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	default:
		return Profile{}, fmt.Errorf("profile %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment. Variables
// already set take precedence. A missing default ".env" is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ApplyEnv applies MAX_IMAGES and SKIP_CAPTIONS when the profile honours
// environment overrides. Invalid values are ignored.
func ApplyEnv(p Profile, getenv func(string) string) Profile {
	if !p.EnvOverrides {
		return p
	}
	if s := strings.TrimSpace(getenv(EnvMaxImages)); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			p.MaxImages = n
		}
	}
	if getenv(EnvSkipCaptions) == "1" {
		p.SkipCaptions = true
	}
	return p
}
