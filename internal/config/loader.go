package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"nssmexec/internal/logger"
)

// rawConfig is used for TOML unmarshaling with duration strings.
type rawConfig struct {
	NssmPath                 string       `toml:"nssm_path"`
	PendingStopPollInterval  string       `toml:"pending_stop_poll_interval"`
	PendingStopPollCount     int          `toml:"pending_stop_poll_count"`
	PendingStartPollInterval string       `toml:"pending_start_poll_interval"`
	PendingStartPollCount    int          `toml:"pending_start_poll_count"`
	Global                   *rawDefaults `toml:"global"`
	Services                 []rawService `toml:"services"`
}

type rawDefaults struct {
	Startup       string      `toml:"startup"`
	StartOnCreate *bool       `toml:"start_on_create"`
	Account       *rawAccount `toml:"account"`
}

type rawAccount struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type rawService struct {
	Name          string      `toml:"name"`
	Path          string      `toml:"path"`
	Args          []string    `toml:"args"`
	WorkingDir    string      `toml:"working_dir"`
	DisplayName   string      `toml:"display_name"`
	Description   string      `toml:"description"`
	Startup       string      `toml:"startup"`
	DependsOn     []string    `toml:"depends_on"`
	StartOnCreate *bool       `toml:"start_on_create"`
	Account       *rawAccount `toml:"account"`
}

type rawLoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   *bool  `yaml:"compress"`
	Console    *bool  `yaml:"console"`
	Format     string `yaml:"format"`
}

// Load reads configuration from the specified file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses, defaults, resolves and validates configuration from
// TOML bytes. On any rejection the whole document is discarded.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: KindSyntax, Err: err}
	}

	parsed, err := convertRawConfig(&raw)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Merge(parsed)
	cfg.ApplyGlobals()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func convertRawConfig(raw *rawConfig) (*Config, error) {
	cfg := &Config{
		ManagerPath: raw.NssmPath,
	}

	if raw.PendingStopPollInterval != "" {
		d, err := time.ParseDuration(raw.PendingStopPollInterval)
		if err != nil {
			return nil, &Error{Kind: KindSyntax, Field: "pending_stop_poll_interval", Err: err}
		}
		cfg.Poll.StopInterval = d
	}
	cfg.Poll.StopCount = raw.PendingStopPollCount

	if raw.PendingStartPollInterval != "" {
		d, err := time.ParseDuration(raw.PendingStartPollInterval)
		if err != nil {
			return nil, &Error{Kind: KindSyntax, Field: "pending_start_poll_interval", Err: err}
		}
		cfg.Poll.StartInterval = d
	}
	cfg.Poll.StartCount = raw.PendingStartPollCount

	if raw.Global != nil {
		cfg.Global = ServiceDefaults{
			Startup:       raw.Global.Startup,
			StartOnCreate: raw.Global.StartOnCreate,
			Account:       convertRawAccount(raw.Global.Account),
		}
	}

	cfg.Services = make([]Service, 0, len(raw.Services))
	for _, rs := range raw.Services {
		cfg.Services = append(cfg.Services, Service{
			Name:          rs.Name,
			Path:          rs.Path,
			Args:          rs.Args,
			WorkingDir:    rs.WorkingDir,
			DisplayName:   rs.DisplayName,
			Description:   rs.Description,
			Startup:       rs.Startup,
			DependsOn:     rs.DependsOn,
			StartOnCreate: rs.StartOnCreate,
			Account:       convertRawAccount(rs.Account),
		})
	}

	return cfg, nil
}

func convertRawAccount(raw *rawAccount) *Account {
	if raw == nil {
		return nil
	}
	return &Account{User: raw.User, Password: raw.Password}
}

// LoadLogging reads logging configuration from the specified YAML file.
func LoadLogging(path string) (*logger.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logging config file: %w", err)
	}
	return ParseLogging(data)
}

// ParseLogging parses logging configuration from YAML bytes, merging
// parsed values over the logger defaults.
func ParseLogging(data []byte) (*logger.Config, error) {
	var raw rawLoggingConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse logging config YAML: %w", err)
	}

	def := logger.DefaultConfig()

	if raw.Level != "" {
		def.Level = raw.Level
	}
	if raw.FilePath != "" {
		def.FilePath = raw.FilePath
	}
	if raw.MaxSizeMB != 0 {
		def.MaxSizeMB = raw.MaxSizeMB
	}
	if raw.MaxBackups != 0 {
		def.MaxBackups = raw.MaxBackups
	}
	if raw.MaxAgeDays != 0 {
		def.MaxAgeDays = raw.MaxAgeDays
	}
	if raw.Compress != nil {
		def.Compress = *raw.Compress
	}
	if raw.Console != nil {
		def.Console = *raw.Console
	}
	if raw.Format != "" {
		def.Format = raw.Format
	}

	return &def, nil
}

// LoadSplit loads the service configuration and the logging
// configuration from their separate files. A missing logging file is
// not an error; the logger defaults apply.
func LoadSplit(configPath, loggingPath string) (*Config, *logger.Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	lc, err := LoadLogging(loggingPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := logger.DefaultConfig()
			return cfg, &def, nil
		}
		return nil, nil, fmt.Errorf("failed to load logging config: %w", err)
	}

	return cfg, lc, nil
}
