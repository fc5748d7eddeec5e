package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles session configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the session configuration from a TOML file.
func (l *Loader) Load() (*Config, error) {
	if l.configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", l.configPath)
	}

	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("toml")

	v.SetEnvPrefix("FOCUSGROUP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills derived paths and empty collections after unmarshal.
func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "focusgroup.log")
	}
	if len(cfg.Tool.HelpArgs) == 0 {
		cfg.Tool.HelpArgs = []string{"--help"}
	}
	if cfg.Tool.Type == "" {
		cfg.Tool.Type = ToolTypeCLI
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
}

// ProvidersFile returns the path to the custom providers TOML file.
func ProvidersFile() string {
	return filepath.Join(DefaultConfigDir(), "providers.toml")
}

// LoadCustomProviders reads user-defined provider definitions from
// providers.toml. Each top-level table is a provider name. A missing
// file yields an empty map.
func LoadCustomProviders(path string) (map[string]map[string]any, error) {
	if path == "" {
		path = ProvidersFile()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]map[string]any{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	providers := make(map[string]map[string]any)
	for _, key := range v.AllKeys() {
		// Keys come back as "provider.setting"; regroup per provider.
		name, setting, ok := splitKey(key)
		if !ok {
			continue
		}
		if providers[name] == nil {
			providers[name] = make(map[string]any)
		}
		providers[name][setting] = v.Get(key)
	}
	return providers, nil
}

func splitKey(key string) (name, setting string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
