package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix is the prefix of environment variables overriding file values,
// e.g. SCENE_SERVER_PORT=9090 sets server.port.
const EnvPrefix = "SCENE_"

// ServerConfig defines HTTP server configurations
type ServerConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	Mode           string `koanf:"mode"`
	MaxUploadBytes int64  `koanf:"maxuploadbytes"`
}

// ModelConfig locates the classifier artifact and the runtime that executes it
type ModelConfig struct {
	Path          string `koanf:"path"`
	SharedLibrary string `koanf:"sharedlibrary"`
	InputName     string `koanf:"inputname"`
	OutputName    string `koanf:"outputname"`
	Interpolation string `koanf:"interpolation"`
}

// LogConfig defines logger configurations
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AppConfig is the root configuration
type AppConfig struct {
	Server ServerConfig `koanf:"server"`
	Model  ModelConfig  `koanf:"model"`
	Log    LogConfig    `koanf:"log"`
}

// Addr returns the listen address of the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var defaults = map[string]any{
	"server.host":           "0.0.0.0",
	"server.port":           8080,
	"server.mode":           "release",
	"server.maxuploadbytes": 32 << 20,
	"model.path":            "models/intel_model.onnx",
	"model.interpolation":   "nearest",
	"log.level":             "info",
	"log.format":            "json",
}

// Load reads the configuration from defaults, the optional YAML file at
// filePath and SCENE_ environment variables, in that order of precedence.
func Load(filePath string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", filePath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", filePath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func Validate(cfg *AppConfig) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid server.mode %q", cfg.Server.Mode)
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid server.maxuploadbytes %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Model.Path == "" {
		return errors.New("model.path must be set")
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q", cfg.Log.Format)
	}
	return nil
}

var defaultConfigPath = "config/config.yaml"

// ParseConfigFlag returns the configuration file path given with -file.
func ParseConfigFlag() string {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("file", defaultConfigPath, "configuration file")
	_ = fs.Parse(os.Args[1:])

	return *configPath
}
