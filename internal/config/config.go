package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	appName        = "lj"
	configFileName = "config.yaml"

	defaultAPIBaseURL             = "https://api.real-debrid.com/rest/1.0"
	defaultAPIKeyEnv              = "RD_API_TOKEN"
	defaultFilesPollInterval      = time.Second
	defaultFilesTimeout           = 60 * time.Second
	defaultCompletionPollInterval = 2 * time.Second
	defaultCompletionTimeout      = 600 * time.Second
	defaultCheckpointInterval     = 500 * time.Millisecond
	defaultMinFileSize            = 1_000_000
	defaultRequestTimeout         = 30 * time.Second
	defaultUserAgent              = "lj/1.0"
)

// Paths is the set of locations every component reads and writes. It is built
// once at startup and handed down instead of being recomputed.
type Paths struct {
	BaseDir     string
	JobsDir     string
	KeyFile     string
	ConfigFile  string
	LogFile     string
	JournalFile string
	LedgerFile  string
}

// NewPaths lays out the state directory under base.
func NewPaths(base string) Paths {
	return Paths{
		BaseDir:     base,
		JobsDir:     filepath.Join(base, "downloads"),
		KeyFile:     filepath.Join(base, "api_key"),
		ConfigFile:  filepath.Join(base, configFileName),
		LogFile:     filepath.Join(base, "lj.log"),
		JournalFile: filepath.Join(base, "journal.db"),
		LedgerFile:  filepath.Join(base, "ledger.db"),
	}
}

// DefaultPaths uses the per-user configuration directory.
func DefaultPaths() Paths {
	return NewPaths(filepath.Join(xdg.ConfigHome, appName))
}

// Ensure creates the base and job directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.BaseDir, p.JobsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Config holds the tunables read from config.yaml.
type Config struct {
	APIBaseURL             string        `yaml:"apiBaseUrl,omitempty"`
	APIKeyEnv              string        `yaml:"apiKeyEnv,omitempty"`
	FilesPollInterval      time.Duration `yaml:"filesPollInterval,omitempty"`
	FilesTimeout           time.Duration `yaml:"filesTimeout,omitempty"`
	CompletionPollInterval time.Duration `yaml:"completionPollInterval,omitempty"`
	CompletionTimeout      time.Duration `yaml:"completionTimeout,omitempty"`
	CheckpointInterval     time.Duration `yaml:"checkpointInterval,omitempty"`
	MinFileSize            uint64        `yaml:"minFileSize,omitempty"`
	RequestTimeout         time.Duration `yaml:"requestTimeout,omitempty"`
	UserAgent              string        `yaml:"userAgent,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:             defaultAPIBaseURL,
		APIKeyEnv:              defaultAPIKeyEnv,
		FilesPollInterval:      defaultFilesPollInterval,
		FilesTimeout:           defaultFilesTimeout,
		CompletionPollInterval: defaultCompletionPollInterval,
		CompletionTimeout:      defaultCompletionTimeout,
		CheckpointInterval:     defaultCheckpointInterval,
		MinFileSize:            defaultMinFileSize,
		RequestTimeout:         defaultRequestTimeout,
		UserAgent:              defaultUserAgent,
	}
}

// Load reads path and fills every unset field from the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	defaults := DefaultConfig()

	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	conf := Config{
		APIBaseURL:             zeroOr(cfg.APIBaseURL, defaults.APIBaseURL),
		APIKeyEnv:              zeroOr(cfg.APIKeyEnv, defaults.APIKeyEnv),
		FilesPollInterval:      zeroOr(cfg.FilesPollInterval, defaults.FilesPollInterval),
		FilesTimeout:           zeroOr(cfg.FilesTimeout, defaults.FilesTimeout),
		CompletionPollInterval: zeroOr(cfg.CompletionPollInterval, defaults.CompletionPollInterval),
		CompletionTimeout:      zeroOr(cfg.CompletionTimeout, defaults.CompletionTimeout),
		CheckpointInterval:     zeroOr(cfg.CheckpointInterval, defaults.CheckpointInterval),
		MinFileSize:            zeroOr(cfg.MinFileSize, defaults.MinFileSize),
		RequestTimeout:         zeroOr(cfg.RequestTimeout, defaults.RequestTimeout),
		UserAgent:              zeroOr(cfg.UserAgent, defaults.UserAgent),
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" || c.APIKeyEnv == "" {
		return ErrInvalidConfig
	}

	if c.FilesPollInterval < 0 || c.FilesTimeout < c.FilesPollInterval {
		return ErrInvalidConfig
	}

	if c.CompletionPollInterval < 0 || c.CompletionTimeout < c.CompletionPollInterval {
		return ErrInvalidConfig
	}

	if c.CheckpointInterval < 0 || c.RequestTimeout < 0 {
		return ErrInvalidConfig
	}

	return nil
}
