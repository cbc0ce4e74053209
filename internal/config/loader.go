package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// newViper builds a viper instance with the INDEXER_ env prefix, the given
// defaults, bound flags and an optional config file. Without an explicit
// file a ./config.* file is read when present.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// stringList reads a list given as a YAML sequence, a slice flag or a single
// comma-separated string. Entries are trimmed and blanks dropped.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch typed := v.Get(key).(type) {
	case string:
		raw = strings.Split(typed, ",")
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			raw = append(raw, fmt.Sprint(item))
		}
	}

	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// stringMap reads a mapping given as a YAML map or as "k=v,k=v". Malformed
// pairs are dropped.
func stringMap(v *viper.Viper, key string) map[string]string {
	out := make(map[string]string)
	switch typed := v.Get(key).(type) {
	case map[string]string:
		for k, val := range typed {
			out[k] = val
		}
	case map[string]any:
		for k, val := range typed {
			out[k] = fmt.Sprint(val)
		}
	case string:
		for _, pair := range strings.Split(typed, ",") {
			k, val, ok := strings.Cut(pair, "=")
			k, val = strings.TrimSpace(k), strings.TrimSpace(val)
			if ok && k != "" && val != "" {
				out[k] = val
			}
		}
	}
	return out
}
