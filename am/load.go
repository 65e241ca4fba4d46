package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/qsup/errors"
)

// ProjectConfigName is the file searched for upward from the working directory
const ProjectConfigName = "qsup.toml"

var (
	mu             sync.Mutex
	globalConfig   *Config
	viperInstance  *viper.Viper
	explicitConfig string

	// ConfigSources records which file each key was last set from while
	// merging. Keys absent here come from defaults or the environment.
	ConfigSources = make(map[string]SourceInfo)

	// Warnings collects non-fatal problems found while loading, such as
	// unknown keys in a config file.
	Warnings []string
)

// SetConfigFile adds an explicit config file (--config) on top of the
// discovered ones. Must be called before the first Load.
func SetConfigFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	explicitConfig = path
}

// Load reads the qsup configuration using Viper
func Load() (*Config, error) {
	mu.Lock()
	if globalConfig != nil {
		defer mu.Unlock()
		return globalConfig, nil
	}
	mu.Unlock()

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	globalConfig = cfg
	mu.Unlock()
	return cfg, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	v, _ := initViper()
	return v
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path over the defaults
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Set defaults but don't bind environment variables for this specific load
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return cfg, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	explicitConfig = ""
	ConfigSources = make(map[string]SourceInfo)
	Warnings = nil
}

// initViper initializes Viper with configuration sources and defaults
func initViper() (*viper.Viper, error) {
	mu.Lock()
	defer mu.Unlock()
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix("QSUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	// Set defaults first
	SetDefaults(v)

	// Merge configs in precedence order: system -> user -> project -> --config
	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// ConfigPath is one entry of the file cascade
type ConfigPath struct {
	Source ConfigSource
	Path   string
}

// CandidatePaths lists the config files consulted, lowest precedence first.
// Files that do not exist are included; callers check.
func CandidatePaths() []ConfigPath {
	paths := []ConfigPath{{SourceSystem, "/etc/qsup/am.toml"}}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, ConfigPath{SourceUser, filepath.Join(homeDir, ".qsup", "am.toml")})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, ConfigPath{SourceProject, project})
	}
	if explicitConfig != "" {
		paths = append(paths, ConfigPath{SourceExplicit, explicitConfig})
	}
	return paths
}

// findProjectConfig searches for qsup.toml by walking up the directory tree
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges each existing config file into v. Merged values sit
// in viper's config layer, so QSUP_* variables still override them.
func mergeConfigFiles(v *viper.Viper) error {
	for _, cp := range CandidatePaths() {
		if _, err := os.Stat(cp.Path); err != nil {
			if cp.Source == SourceExplicit {
				return errors.Wrapf(err, "config file %s", cp.Path)
			}
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(cp.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", cp.Path)
		}

		settings := tempViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", cp.Path)
		}
		markSettingsFromSource(settings, "", cp.Source, cp.Path, ConfigSources)

		unknown, err := CheckUnknownKeys(cp.Path)
		if err != nil {
			return err
		}
		for _, key := range unknown {
			Warnings = append(Warnings, "unknown key "+key+" in "+cp.Path)
		}
	}
	return nil
}

// markSettingsFromSource records source for every leaf key in settings
func markSettingsFromSource(settings map[string]interface{}, prefix string, source ConfigSource, path string, sourceMap map[string]SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			markSettingsFromSource(nested, fullKey, source, path, sourceMap)
			continue
		}
		sourceMap[fullKey] = SourceInfo{Source: source, Path: path}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}
