package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/qsup/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/qsup/am.toml
	SourceUser        ConfigSource = "user"        // ~/.qsup/am.toml
	SourceProject     ConfigSource = "project"     // qsup.toml found upward from cwd
	SourceExplicit    ConfigSource = "explicit"    // --config
	SourceEnvironment ConfigSource = "environment" // QSUP_* env vars
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Files    []ConfigPath  `json:"files"`    // cascade, lowest precedence first
	Settings []SettingInfo `json:"settings"` // All settings with sources
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource // The type of config source (default, system, user, etc.)
	Path   string       // File path or environment variable name
}

// GetConfigIntrospection reports every effective setting and where it came from
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	introspection := &ConfigIntrospection{
		Files:    CandidatePaths(),
		Settings: make([]SettingInfo, 0),
	}

	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, s := range ConfigSources {
		sources[k] = s
	}
	mu.Unlock()

	flattenSettingsWithSources(v.AllSettings(), "", introspection, sources, os.Getenv)
	return introspection, nil
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo, getenv func(string) string) {
	// Sort keys for deterministic iteration
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap, getenv)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}

		// Environment variables override every file
		envKey := EnvKey(fullKey)
		if envValue := getenv(envKey); envValue != "" {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}

// EnvKey returns the environment variable that overrides a dotted key
func EnvKey(key string) string {
	return "QSUP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
