package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// appDir is the config folder under the user's home
const appDir = "~/.config/go-cvseq"

// EngineConfig sets up the real-time runner and the power-on panel
type EngineConfig struct {
	SampleRate int     `json:"sampleRate,omitempty"`
	BlockSize  int     `json:"blockSize,omitempty"`
	BPM        float64 `json:"bpm,omitempty"`
	Swing      float64 `json:"swing,omitempty"`
	PulseWidth float64 `json:"pulseWidth,omitempty"`
	Seed       uint64  `json:"seed,omitempty"`
}

// StorageConfig locates saved projects
type StorageConfig struct {
	ProjectsDir string `json:"projectsDir,omitempty"`
	Format      string `json:"format,omitempty"` // json or yaml
	Autosave    bool   `json:"autosave,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `json:"palette,omitempty"` // optional .gpl file
	LastProject string `json:"lastProject,omitempty"`
}

// DebugConfig controls the debug log
type DebugConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Level   string `json:"level,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Storage StorageConfig `json:"storage"`
	UI      UIConfig      `json:"ui,omitempty"`
	Debug   DebugConfig   `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SampleRate: 48000,
			BlockSize:  64,
			BPM:        120,
			PulseWidth: 0.5,
			Seed:       1,
		},
		Storage: StorageConfig{
			ProjectsDir: filepath.Join(appDir, "projects"),
			Format:      "json",
		},
		UI: UIConfig{
			LastProject: "untitled",
		},
		Debug: DebugConfig{
			Level: "debug",
			Path:  filepath.Join(appDir, "debug.log"),
		},
	}
}

// Expand resolves a leading ~ in path
func Expand(path string) (string, error) {
	p, err := homedir.Expand(path)
	return p, errors.Wrapf(err, "expand %s", path)
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	return Expand(appDir)
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Fields missing from the file keep their
// defaults and out-of-range values are repaired.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Engine.SampleRate <= 0 {
		c.Engine.SampleRate = def.Engine.SampleRate
	}
	if c.Engine.BlockSize <= 0 {
		c.Engine.BlockSize = def.Engine.BlockSize
	}
	if c.Engine.BPM <= 0 {
		c.Engine.BPM = def.Engine.BPM
	}
	if c.Storage.ProjectsDir == "" {
		c.Storage.ProjectsDir = def.Storage.ProjectsDir
	}
	if c.Storage.Format != "yaml" {
		c.Storage.Format = "json"
	}
	if c.Debug.Path == "" {
		c.Debug.Path = def.Debug.Path
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// ProjectsDir returns the expanded projects root
func (c *Config) ProjectsDir() (string, error) {
	return Expand(c.Storage.ProjectsDir)
}

// DebugPath returns the expanded debug log path
func (c *Config) DebugPath() (string, error) {
	return Expand(c.Debug.Path)
}
