// Package config loads server and CLI settings from defaults, an optional
// YAML file, a .env file, TEXTEDIT_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Server modes.
const (
	ModeDefault    = ""
	ModeClaudeCode = "claude-code"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "TEXTEDIT"
	// DefaultConfigDir is created under the user's home directory.
	DefaultConfigDir = ".textedit"
	DefaultAddr      = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultEncoding  = "utf-8"
)

// Config holds every setting of the textedit binary.
type Config struct {
	Mode            string `mapstructure:"mode"`
	Transport       string `mapstructure:"transport"`
	Addr            string `mapstructure:"addr"`
	BaseURL         string `mapstructure:"base_url"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	LogFile         string `mapstructure:"log_file"`
	DefaultEncoding string `mapstructure:"default_encoding"`
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an explicit config path. When empty, config.yaml is looked
	// up in ~/.textedit and the working directory, and may be missing.
	ConfigFile string
	// EnvFile is loaded into the process environment first. Defaults to ".env";
	// a missing file is ignored.
	EnvFile string
	// Flags are bound by name with dashes mapped to underscores (log-level -> log_level).
	Flags *pflag.FlagSet
}

// Load resolves the configuration. Precedence from lowest to highest is
// defaults, config file, environment, explicitly set flags.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isKnownKey(key) {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("error binding flags: %w", bindErr)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var knownKeys = []string{"mode", "transport", "addr", "base_url", "log_level", "log_format", "log_file", "default_encoding"}

func isKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeDefault)
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("base_url", "")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("log_file", "")
	v.SetDefault("default_encoding", DefaultEncoding)
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Mode:            ModeDefault,
		Transport:       TransportStdio,
		Addr:            DefaultAddr,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		DefaultEncoding: DefaultEncoding,
	}
}

func (c *Config) normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.DefaultEncoding == "" {
		c.DefaultEncoding = DefaultEncoding
	}
}

// Validate rejects unknown modes, transports and log formats.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDefault, ModeClaudeCode:
	default:
		return fmt.Errorf("unknown mode %q (expected %q or empty)", c.Mode, ModeClaudeCode)
	}
	switch c.Transport {
	case TransportStdio, TransportSSE:
	default:
		return fmt.Errorf("unknown transport %q (expected %s or %s)", c.Transport, TransportStdio, TransportSSE)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (expected text or json)", c.LogFormat)
	}
	return nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultConfigDir)
}
