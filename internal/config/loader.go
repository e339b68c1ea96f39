package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WIRELOBBY"
	envConfigDefaultPath = "WIRELOBBY_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load resolves configuration and returns it with the config file path.
// Precedence: defaults < config file < WIRELOBBY_* env vars. Callers apply
// flag overrides afterwards with UpdateFrom. A missing file is created
// from Default.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	defaults, err := defaultValues()
	if err != nil {
		return Config{}, "", fmt.Errorf("encode defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := resolveConfigPath(explicitPath)
	v.SetConfigFile(path)

	if err := readOrCreate(v, path, logger); err != nil {
		return Default(), path, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

// defaultValues encodes Default through its yaml tags so the viper
// defaults, the env bindings and the written file share one key set.
func defaultValues() (map[string]any, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, err
	}
	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func readOrCreate(v *viper.Viper, path string, logger *zerolog.Logger) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if err := writeDefaultConfig(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
		return nil
	}
	logger.Info().Str("path", path).Msg("created default config")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to read config after writing default")
	}
	return nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
