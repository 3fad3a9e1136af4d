package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Preview styles understood by glamour.
const (
	PreviewAuto  = "auto"
	PreviewDark  = "dark"
	PreviewLight = "light"
	PreviewNoTTY = "notty"
)

var validLogLevels = []interface{}{"debug", "info", "warn", "error"}

type EditorConfig struct {
	TabWidth int `yaml:"tab_width" json:"tab_width"`
	Padding  int `yaml:"padding"   json:"padding"`
	// PageSize overrides the page motion distance. Zero follows the
	// viewport height.
	PageSize int `yaml:"page_size" json:"page_size"`
}

func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TabWidth, validation.Required, validation.Min(1), validation.Max(16)),
		validation.Field(&c.Padding, validation.Min(0), validation.Max(20)),
		validation.Field(&c.PageSize, validation.Min(0)),
	)
}

type SearchConfig struct {
	EnableBody bool `yaml:"enable_body" json:"enable_body"`
	Fuzzy      bool `yaml:"fuzzy"       json:"fuzzy"`
}

type PreviewConfig struct {
	Style string `yaml:"style" json:"style"`
}

func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Style, validation.Required,
			validation.In(PreviewAuto, PreviewDark, PreviewLight, PreviewNoTTY)),
	)
}

type AutosaveConfig struct {
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
	)
}

type Config struct {
	NotesDir string         `yaml:"notes_dir" json:"notes_dir"`
	LogLevel string         `yaml:"log_level" json:"log_level"`
	LogFile  string         `yaml:"log_file"  json:"log_file"`
	Editor   EditorConfig   `yaml:"editor"    json:"editor"`
	Search   SearchConfig   `yaml:"search"    json:"search"`
	Preview  PreviewConfig  `yaml:"preview"   json:"preview"`
	Autosave AutosaveConfig `yaml:"autosave"  json:"autosave"`

	path string `yaml:"-"`
}

// Default returns the configuration written on first run.
func Default(home string) *Config {
	return &Config{
		NotesDir: filepath.Join(home, "snyft"),
		LogLevel: "info",
		Editor:   EditorConfig{TabWidth: 4, Padding: 2},
		Search:   SearchConfig{EnableBody: true, Fuzzy: true},
		Preview:  PreviewConfig{Style: PreviewAuto},
		Autosave: AutosaveConfig{RetryDelay: 5 * time.Second},
		path:     GetConfigPath(home),
	}
}

// Validate checks every section.
func (cfg *Config) Validate() error {
	if err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.NotesDir, validation.Required),
		validation.Field(&cfg.LogLevel, validation.Required, validation.In(validLogLevels...)),
	); err != nil {
		return err
	}
	if err := cfg.Editor.Validate(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if err := cfg.Preview.Validate(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := cfg.Autosave.Validate(); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

// Load reads the config file under home. An empty file yields the defaults.
func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default(home)
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.path = path
	cfg.NotesDir = expandHome(cfg.NotesDir, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyOverrides folds flags and environment bound into v over the file
// values.
func (cfg *Config) ApplyOverrides(v *viper.Viper) error {
	if v == nil {
		return nil
	}
	if dir := strings.TrimSpace(v.GetString("notes_dir")); dir != "" {
		home, _ := os.UserHomeDir()
		cfg.NotesDir = expandHome(dir, home)
	}
	if level := strings.TrimSpace(v.GetString("log_level")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	return cfg.Validate()
}

// Level maps LogLevel onto slog.
func (cfg *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabasePath is where the record store lives.
func (cfg *Config) DatabasePath(fileName string) string {
	return filepath.Join(cfg.NotesDir, fileName)
}

// LogPath returns the log file, defaulting to one inside the notes directory.
func (cfg *Config) LogPath(defaultName string) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return filepath.Join(cfg.NotesDir, defaultName)
}

// Path returns the file the config was loaded from.
func (cfg *Config) Path() string {
	return cfg.path
}

// Save writes the config back to the file it was loaded from.
func (cfg *Config) Save() error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cfg.path = GetConfigPath(home)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(cfg.path, data, 0o644)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
