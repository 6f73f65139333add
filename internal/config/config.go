// Package config handles project discovery and user settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProjectFile marks a project root and holds project-level settings.
	ProjectFile = "argonaut.yaml"

	// WorkflowsDirName is the directory holding declaration files.
	WorkflowsDirName = "workflows"

	settingsFile = "config.yaml"
	envPrefix    = "ARGONAUT"
)

// ErrRootNotFound is returned when no project root exists above the start directory.
var ErrRootNotFound = errors.New("project root not found (no workflows/ directory or argonaut.yaml)")

// Config holds the argonaut project layout.
type Config struct {
	// Root is the project root directory.
	Root string

	// WorkflowsDir is the path to the declaration files.
	WorkflowsDir string

	// Settings are the merged user, project and environment settings.
	Settings *Settings
}

// FindRoot searches upward from the current directory to find the project root.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindRootFrom(dir)
}

// FindRootFrom searches upward from dir. The project root is the first
// directory containing a workflows/ directory or an argonaut.yaml file.
func FindRootFrom(dir string) (string, error) {
	for {
		if info, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil && !info.IsDir() {
			return dir, nil
		}
		if info, err := os.Stat(filepath.Join(dir, WorkflowsDirName)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

// Load finds the project root and returns a Config with settings loaded from
// the user file, the project file and the environment.
func Load() (*Config, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom returns the Config for a known project root.
func LoadFrom(root string) (*Config, error) {
	settings, err := LoadSettings(SettingsPath(), filepath.Join(root, ProjectFile))
	if err != nil {
		return nil, err
	}

	return &Config{
		Root:         root,
		WorkflowsDir: filepath.Join(root, WorkflowsDirName),
		Settings:     settings,
	}, nil
}

// LibraryDir returns the path to the shared library directory.
func (c *Config) LibraryDir() string {
	return filepath.Join(c.WorkflowsDir, "libraries")
}

// ValuesDir returns the path to the values overlay directory.
func (c *Config) ValuesDir() string {
	return filepath.Join(c.WorkflowsDir, "values")
}

// OutputDir returns the path rendered manifests are written to. A relative
// output_dir setting is resolved against the project root.
func (c *Config) OutputDir() string {
	dir := "rendered"
	if c.Settings != nil && c.Settings.OutputDir != "" {
		dir = c.Settings.OutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// Settings are user preferences. Later sources win: defaults, the user file,
// the project file, then ARGONAUT_* environment variables.
type Settings struct {
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	Indent           int    `mapstructure:"indent"`
	FilenameTemplate string `mapstructure:"filename_template"`
	OutputDir        string `mapstructure:"output_dir"`
	NoColor          bool   `mapstructure:"no_color"`
}

// Keys lists the recognized setting names.
var Keys = []string{"log_level", "log_format", "indent", "filename_template", "output_dir", "no_color"}

// Dir returns the user settings directory (~/.argonaut/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".argonaut"
	}
	return filepath.Join(home, ".argonaut")
}

// SettingsPath returns the user settings file (~/.argonaut/config.yaml).
func SettingsPath() string {
	return filepath.Join(Dir(), settingsFile)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("indent", 2)
	v.SetDefault("filename_template", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("no_color", false)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings merges the given settings files in order. Missing files are
// skipped.
func LoadSettings(paths ...string) (*Settings, error) {
	v := newViper()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Indent < 0 {
		return nil, fmt.Errorf("indent must not be negative, got %d", s.Indent)
	}
	return &s, nil
}

// GetSetting returns a single setting from path with defaults and environment
// applied.
func GetSetting(path, key string) (string, error) {
	if !isKey(key) {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	v := newViper()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read settings %s: %w", path, err)
		}
	}
	return v.GetString(key), nil
}

// SetSetting writes key=value into the settings file at path, creating it
// and its directory if needed.
func SetSetting(path, key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	// Only file contents are written back, not defaults or environment.
	v := viper.New()
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func isKey(key string) bool {
	return slices.Contains(Keys, key)
}
