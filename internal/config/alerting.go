package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// AlertingConfig tunes alert generation. Threshold semantics are fixed;
// only the lookahead windows and message templates are operator-adjustable.
type AlertingConfig struct {
	ExpiryWarnDays     int `mapstructure:"expiryWarnDays"`
	ExpiryCriticalDays int `mapstructure:"expiryCriticalDays"`
}

func DefaultAlertingConfig() AlertingConfig {
	return AlertingConfig{
		ExpiryWarnDays:     7,
		ExpiryCriticalDays: 3,
	}
}

// AlertingConfigHolder exposes the current alerting config and hot-reloads
// it when the tuning file changes on disk.
type AlertingConfigHolder struct {
	current atomic.Value // holds AlertingConfig
}

// AlertingModule provides the hot-reloadable alerting config holder.
var AlertingModule = fx.Provide(NewAlertingConfigHolder)

func NewAlertingConfigHolder() (*AlertingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("stocksync")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/stocksync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOCKSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAlertingConfig()
	v.SetDefault("alerting.expiryWarnDays", defaults.ExpiryWarnDays)
	v.SetDefault("alerting.expiryCriticalDays", defaults.ExpiryCriticalDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg AlertingConfig
	if err := v.UnmarshalKey("alerting", &cfg); err != nil {
		return nil, err
	}
	if err := validateAlertingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AlertingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AlertingConfig
		if err := v.UnmarshalKey("alerting", &updated); err != nil {
			log.Printf("[alerting-config] reload failed: %v", err)
			return
		}
		if err := validateAlertingConfig(updated); err != nil {
			log.Printf("[alerting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[alerting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AlertingConfigHolder) Get() AlertingConfig {
	return h.current.Load().(AlertingConfig)
}

func validateAlertingConfig(cfg AlertingConfig) error {
	if cfg.ExpiryCriticalDays <= 0 {
		return errors.New("alerting.expiryCriticalDays must be positive")
	}
	if cfg.ExpiryWarnDays < cfg.ExpiryCriticalDays {
		return errors.New("alerting.expiryWarnDays must be >= expiryCriticalDays")
	}
	return nil
}
