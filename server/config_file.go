package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

// ErrConfigPath is returned when an empty path is passed to LoadUserConfig.
var ErrConfigPath = errors.New("config path must not be empty")

// LoadUserConfig loads the user configuration stored in the TOML file at the path passed. If the file does not
// exist yet, it is created with the values of DefaultConfig. Fields missing from an existing file keep their
// default values.
func LoadUserConfig(path string) (UserConfig, error) {
	if strings.TrimSpace(path) == "" {
		return UserConfig{}, ErrConfigPath
	}
	c := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, WriteUserConfig(path, c)
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &c); err != nil {
			return c, fmt.Errorf("decode config: %w", err)
		}
	}
	return c, nil
}

// WriteUserConfig writes c to the TOML file at the path passed, creating its directory if needed.
func WriteUserConfig(path string, c UserConfig) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
