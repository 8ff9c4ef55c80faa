// Config loading for the hook CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/hook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyEditor    = "editor"
	cfgKeyTagPolicy = "tag_policy"
	cfgKeyLogLevel  = "log_level"

	defaultLogLevel = "warn"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	Editor    string `yaml:"editor,omitempty"`
	TagPolicy string `yaml:"tag_policy"`
	LogLevel  string `yaml:"log_level"`
}

// defaultConfigFile returns the values written on first run.
func defaultConfigFile() configFile {
	return configFile{
		Backend:   types.BackendSQLite,
		TagPolicy: string(types.TagPolicyHookBlocksMark),
		LogLevel:  defaultLogLevel,
	}
}

// settings are the config.yaml values the commands consume.
type settings struct {
	Backend   string
	DataDir   string
	Editor    string
	TagPolicy types.TagPolicy
	LogLevel  string
}

// loadConfig reads config.yaml from configDir with Viper. A missing file is
// not an error; the defaults apply.
func loadConfig(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyTagPolicy, string(types.TagPolicyHookBlocksMark))
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return settings{
		Backend:   v.GetString(cfgKeyBackend),
		DataDir:   v.GetString(cfgKeyDataDir),
		Editor:    v.GetString(cfgKeyEditor),
		TagPolicy: types.TagPolicy(v.GetString(cfgKeyTagPolicy)),
		LogLevel:  v.GetString(cfgKeyLogLevel),
	}, nil
}

// writeConfigIfMissing creates configDir and writes cfg to config.yaml when
// the file does not exist yet. It reports whether a file was written.
func writeConfigIfMissing(configDir string, cfg configFile) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
