package am

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/qsup/errors"
)

// CheckUnknownKeys decodes a config file against Config and returns the keys
// it does not recognize, sorted. Viper silently ignores these, so a typo like
// monitor_timout would otherwise fall back to the default unnoticed.
func CheckUnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return undecodedKeys(md), nil
}

// CheckUnknownKeysString is CheckUnknownKeys for TOML held in memory.
func CheckUnknownKeysString(data string) ([]string, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	return undecodedKeys(md), nil
}

func undecodedKeys(md toml.MetaData) []string {
	undecoded := md.Undecoded()
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}
