package config

import (
	"os"
	"strings"
	"time"

	"github.com/kvesta/vulngate/pkg/cache"
	"github.com/kvesta/vulngate/pkg/vulnlib"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. VULNGATE_CACHE_SIZE.
	EnvPrefix = "VULNGATE"

	configName = ".vulngate"
)

type CacheSettings struct {
	Size  int           `mapstructure:"size"`
	Idle  time.Duration `mapstructure:"idle"`
	Sweep time.Duration `mapstructure:"sweep"`
}

// Settings holds the resolved configuration of a run.
type Settings struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Proxy    string        `mapstructure:"proxy"`
	Insecure bool          `mapstructure:"insecure"`

	Cache CacheSettings `mapstructure:"cache"`

	Transitive bool     `mapstructure:"transitive"`
	Include    []string `mapstructure:"include"`
	Exclude    []string `mapstructure:"exclude"`
	Offline    bool     `mapstructure:"offline"`
	BestEffort bool     `mapstructure:"best_effort"`

	Debug    bool   `mapstructure:"debug"`
	Output   string `mapstructure:"output"`
	Parallel int    `mapstructure:"parallel"`
	Addr     string `mapstructure:"addr"`
}

// SetDefaults registers every key, so that environment overrides apply to
// all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", vulnlib.DefaultURL)
	v.SetDefault("timeout", vulnlib.DefaultTimeout)
	v.SetDefault("proxy", "")
	v.SetDefault("insecure", false)
	v.SetDefault("cache.size", cache.DefaultSize)
	v.SetDefault("cache.idle", cache.DefaultIdle)
	v.SetDefault("cache.sweep", 30*time.Second)
	v.SetDefault("transitive", true)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("offline", false)
	v.SetDefault("best_effort", false)
	v.SetDefault("debug", false)
	v.SetDefault("output", "")
	v.SetDefault("parallel", 1)
	v.SetDefault("addr", ":8080")
}

// Load reads cfgFile, or .vulngate.yaml from the working directory or the
// home directory when cfgFile is empty. A missing default config file is
// not an error.
func Load(v *viper.Viper, cfgFile string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) Validate() error {
	switch {
	case s.Cache.Size <= 0:
		return errors.Errorf("cache.size must be positive, got %d", s.Cache.Size)
	case s.Cache.Idle <= 0:
		return errors.Errorf("cache.idle must be positive, got %s", s.Cache.Idle)
	case s.Cache.Sweep <= 0:
		return errors.Errorf("cache.sweep must be positive, got %s", s.Cache.Sweep)
	case s.Timeout <= 0:
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	case s.Parallel <= 0:
		return errors.Errorf("parallel must be positive, got %d", s.Parallel)
	}
	return nil
}
