// Package config resolves elsatrace settings from defaults, an optional
// YAML file and ELSA_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/elsatrace/internal/elsa"
)

// EnvPrefix prefixes every environment override: ELSA_BASE_URL, ELSA_API_KEY, ...
const EnvPrefix = "ELSA"

// Config is the resolved configuration.
type Config struct {
	BaseURL       string        `mapstructure:"base_url" json:"base_url"`
	APIKey        string        `mapstructure:"api_key" json:"-"`
	APIKeyHeader  string        `mapstructure:"api_key_header" json:"api_key_header"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout"`
	JournalTake   int           `mapstructure:"journal_take" json:"journal_take"`
	InstancesTake int           `mapstructure:"instances_take" json:"instances_take"`
	Lanes         int           `mapstructure:"lanes" json:"lanes"`
	LogLevel      string        `mapstructure:"log_level" json:"log_level"`
	LogFormat     string        `mapstructure:"log_format" json:"log_format"`
	Listen        string        `mapstructure:"listen" json:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", elsa.DefaultBaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("api_key_header", elsa.DefaultAPIKeyHeader)
	v.SetDefault("timeout", elsa.DefaultTimeout)
	v.SetDefault("journal_take", elsa.DefaultJournalTake)
	v.SetDefault("instances_take", elsa.DefaultInstanceTake)
	v.SetDefault("lanes", 3)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("listen", ":7480")
}

// Load resolves the configuration. path names an explicit config file; when
// empty, elsatrace.yaml is looked up in the working directory and in
// $HOME/.config/elsatrace, and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("elsatrace")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/elsatrace")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Client returns the Elsa client settings.
func (c *Config) Client() elsa.Config {
	return elsa.Config{
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		APIKeyHeader: c.APIKeyHeader,
		Timeout:      c.Timeout,
	}
}

// JournalPage is the first journal page of the configured size.
func (c *Config) JournalPage() elsa.Page {
	return elsa.Page{Take: c.JournalTake}
}

// InstancesPage is the first instance page of the configured size.
func (c *Config) InstancesPage() elsa.Page {
	return elsa.Page{Take: c.InstancesTake}
}
