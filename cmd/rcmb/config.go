package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is read from the file named by --config, e.g.
//
//	max_search_space: 1e12
//	defaults:
//	  series: e24
//	  max: 4
//	  format: tree
//
// Each entry of Defaults is the value of the like-named flag wherever that flag is not given on the command line.
// Entries naming a flag the running command does not have are ignored.
type Config struct {
	MaxSearchSpace float64                `yaml:"max_search_space"`
	Defaults       map[string]interface{} `yaml:"defaults"`
}

func loadConfig(pathname string) (*Config, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg := &Config{}
	if err = yaml.Unmarshal(buf, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %q", pathname)
	}
	return cfg, nil
}

func (cfg *Config) applyTo(flags *pflag.FlagSet) error {
	keys := make([]string, 0, len(cfg.Defaults))
	for key := range cfg.Defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		flag := flags.Lookup(key)
		if flag == nil || flag.Changed || key == "config" {
			continue
		}
		if err := flags.Set(key, fmt.Sprint(cfg.Defaults[key])); err != nil {
			return errors.Wrapf(err, "config default %q", key)
		}
	}
	return nil
}
