// Package config contains feedsim configuration definitions.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-feedsim/feed"
	"github.com/spacemeshos/go-feedsim/feed/transport/inproc"
	"github.com/spacemeshos/go-feedsim/feed/transport/multicast"
	"github.com/spacemeshos/go-feedsim/feed/transport/zmqbus"
	"github.com/spacemeshos/go-feedsim/recovery"
)

// Names of the components a process can run.
const (
	ComponentRecovery  = "recovery"
	ComponentPublisher = "publisher"
	ComponentConsumer  = "consumer"
)

// Config defines the top level configuration of a feedsim process.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Feed       feed.Config      `mapstructure:"feed"`
	Multicast  multicast.Config `mapstructure:"multicast"`
	ZMQ        zmqbus.Config    `mapstructure:"zmq"`
	Inproc     inproc.Config    `mapstructure:"inproc"`
	Recovery   recovery.Config  `mapstructure:"recovery"`
	LOGGING    LoggerConfig     `mapstructure:"logging"`
}

// BaseConfig defines the options shared by all components.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	// Components started by the process.
	Components []string `mapstructure:"components"`

	CollectMetrics bool `mapstructure:"metrics"`
	MetricsPort    int  `mapstructure:"metrics-port"`

	// MetricsPush is the url of a prometheus pushgateway. Empty disables pushing.
	MetricsPush       string        `mapstructure:"metrics-push"`
	MetricsPushPeriod time.Duration `mapstructure:"metrics-push-period"`
}

// DefaultConfig returns the configuration of the demo: all components in one process,
// broadcasting over UDP multicast.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Feed:       feed.DefaultConfig(),
		Multicast:  multicast.DefaultConfig(),
		ZMQ:        zmqbus.DefaultConfig(),
		Inproc:     inproc.DefaultConfig(),
		Recovery:   recovery.DefaultConfig(),
		LOGGING:    DefaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		Components:        []string{ComponentRecovery, ComponentConsumer, ComponentPublisher},
		MetricsPort:       1010,
		MetricsPushPeriod: 60 * time.Second,
	}
}

// Has returns true if the component is enabled.
func (cfg *BaseConfig) Has(component string) bool {
	for _, c := range cfg.Components {
		if c == component {
			return true
		}
	}
	return false
}

// Validate returns the first invalid setting.
func (cfg *Config) Validate() error {
	if len(cfg.Components) == 0 {
		return errors.New("no components enabled")
	}
	for _, c := range cfg.Components {
		switch c {
		case ComponentRecovery, ComponentPublisher, ComponentConsumer:
		default:
			return fmt.Errorf("unknown component %q", c)
		}
	}
	if err := cfg.Feed.Transport.Validate(); err != nil {
		return err
	}
	if cfg.Feed.Transport == feed.TransportInproc &&
		cfg.Has(ComponentConsumer) != cfg.Has(ComponentPublisher) {
		return errors.New("inproc transport needs publisher and consumer in the same process")
	}
	if cfg.Has(ComponentRecovery) && cfg.Recovery.QueueSize <= 0 {
		return fmt.Errorf("recovery.queue-size must be positive, got %d", cfg.Recovery.QueueSize)
	}
	if (cfg.Has(ComponentRecovery) || cfg.Has(ComponentConsumer)) && cfg.Recovery.Timeout <= 0 {
		return fmt.Errorf("recovery.timeout must be positive, got %s", cfg.Recovery.Timeout)
	}
	if cfg.Has(ComponentConsumer) && !cfg.Has(ComponentRecovery) && cfg.Recovery.Address == "" {
		return errors.New("consumer needs recovery.address when the recovery server runs elsewhere")
	}
	return nil
}

// LoadConfig reads the config file at path into vip. An empty path reads nothing.
func LoadConfig(fs afero.Fs, path string, vip *viper.Viper) error {
	if path == "" {
		return nil
	}
	vip.SetFs(fs)
	vip.SetConfigFile(path)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

// Load overrides cfg with the values set in the config file at path. Unknown keys are errors.
func Load(fs afero.Fs, path string, cfg *Config) error {
	v := viper.New()
	if err := LoadConfig(fs, path, v); err != nil {
		return err
	}
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithZeroFields(),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}
	if err := v.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithZeroFields() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ZeroFields = true
	}
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}
