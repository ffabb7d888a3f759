/*
Package config manages TOML config for the pinyin IME services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	IME    IMEConfig    `toml:"ime"`
	Dict   DictConfig   `toml:"dict"`
	Server ServerConfig `toml:"server"`
}

// IMEConfig has session engine options.
type IMEConfig struct {
	Capacity     int  `toml:"capacity"`
	ForkLimit    int  `toml:"fork_limit"`
	PromoteDelta int  `toml:"promote_delta"`
	LearnPhrases bool `toml:"learn_phrases"`
	HistorySize  int  `toml:"history_size"`
}

// DictConfig holds lexicon file options.
type DictConfig struct {
	Path     string `toml:"path"`
	Snapshot string `toml:"snapshot"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit     int `toml:"max_limit"`
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/pinyinime
// 2. Current executable dir
// 3. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "pinyinime")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: config.toml in the directory GetConfigDir picks
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		IME: IMEConfig{
			Capacity:     128,
			ForkLimit:    64,
			PromoteDelta: 1,
			LearnPhrases: true,
			HistorySize:  1024,
		},
		Dict: DictConfig{
			Path:     "dict.txt",
			Snapshot: "",
		},
		Server: ServerConfig{
			MaxLimit:     64,
			DefaultLimit: 24,
		},
	}
}

// LoadConfig reads a TOML config file, filling gaps with defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return nil, err
	}
	config.normalize()
	return config, nil
}

// InitConfig loads the config at path, creating it with defaults first if
// it does not exist.
func InitConfig(configPath string) (*Config, error) {
	if !utils.FileExists(configPath) {
		if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
			return nil, err
		}
		if err := utils.SaveTOMLFile(DefaultConfig(), configPath); err != nil {
			return nil, err
		}
		log.Infof("Created default config at %s", configPath)
	}
	return LoadConfig(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// normalize clamps nonsense values back to defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.IME.Capacity <= 0 {
		c.IME.Capacity = def.IME.Capacity
	}
	if c.IME.ForkLimit <= 0 {
		c.IME.ForkLimit = def.IME.ForkLimit
	}
	if c.IME.PromoteDelta <= 0 {
		c.IME.PromoteDelta = def.IME.PromoteDelta
	}
	if c.IME.HistorySize <= 0 {
		c.IME.HistorySize = def.IME.HistorySize
	}
	if c.Server.MaxLimit <= 0 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.DefaultLimit <= 0 || c.Server.DefaultLimit > c.Server.MaxLimit {
		c.Server.DefaultLimit = def.Server.DefaultLimit
	}
}
