package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/feed"
	"github.com/spacemeshos/go-feedsim/recovery"
)

func writeConfig(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, feed.TransportUDP, cfg.Feed.Transport)
	require.Equal(t, "239.192.1.1:6000", cfg.Multicast.Group)
	require.Equal(t, "127.0.0.1:7000", cfg.Recovery.Listen)
	require.Empty(t, cfg.Recovery.Address)
	require.Equal(t, 500*time.Millisecond, cfg.Feed.Publisher.Interval)
	require.EqualValues(t, 5, cfg.Feed.Publisher.DropEvery)
	require.Len(t, cfg.Recovery.Records, 5)
	for _, c := range []string{ComponentRecovery, ComponentPublisher, ComponentConsumer} {
		require.True(t, cfg.Has(c), c)
	}
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	vip := viper.New()
	require.NoError(t, LoadConfig(fs, "", vip))

	err := LoadConfig(fs, "/etc/feedsim/missing.toml", vip)
	require.ErrorContains(t, err, "read config file /etc/feedsim/missing.toml")
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/feedsim.toml", `
[main]
components = ["recovery", "consumer"]
metrics = true
metrics-port = 9090

[feed]
transport = "zmq"

[feed.publisher]
interval = "50ms"
drop-every = 3

[zmq]
endpoint = "tcp://127.0.0.1:7100"

[recovery]
address = "10.0.0.1:7000"
requests-per-second = 10

[[recovery.records]]
seq = 3
payload = "three"

[[recovery.records]]
seq = 6
payload = "six"

[logging]
log-encoder = "json"
consumer = "debug"
`)

	cfg := DefaultConfig()
	require.NoError(t, Load(fs, "/feedsim.toml", &cfg))
	require.NoError(t, cfg.Validate())

	require.Equal(t, []string{ComponentRecovery, ComponentConsumer}, cfg.Components)
	require.True(t, cfg.CollectMetrics)
	require.Equal(t, 9090, cfg.MetricsPort)
	require.Equal(t, feed.TransportZMQ, cfg.Feed.Transport)
	require.Equal(t, 50*time.Millisecond, cfg.Feed.Publisher.Interval)
	require.EqualValues(t, 3, cfg.Feed.Publisher.DropEvery)
	require.Equal(t, "tcp://127.0.0.1:7100", cfg.ZMQ.Endpoint)
	require.Equal(t, "10.0.0.1:7000", cfg.Recovery.Address)
	require.Equal(t, 10, cfg.Recovery.RequestsPerSecond)
	require.Equal(t, []recovery.Record{
		{Sequence: types.Sequence(3), Payload: "three"},
		{Sequence: types.Sequence(6), Payload: "six"},
	}, cfg.Recovery.Records)
	require.Equal(t, JSONLogEncoder, cfg.LOGGING.Encoder)
	require.Equal(t, "debug", cfg.LOGGING.ConsumerLoggerLevel)

	// values absent from the file keep their defaults.
	require.Equal(t, "127.0.0.1:7000", cfg.Recovery.Listen)
	require.Equal(t, "239.192.1.1:6000", cfg.Multicast.Group)
	require.Equal(t, "info", cfg.LOGGING.PublisherLoggerLevel)
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, tc := range []struct {
		desc    string
		content string
	}{
		{desc: "unknown key", content: "[recovery]\nlisten-on = \"127.0.0.1:1\"\n"},
		{desc: "bad duration", content: "[feed.publisher]\ninterval = \"soon\"\n"},
		{desc: "negative sequence", content: "[[recovery.records]]\nseq = -1\npayload = \"x\"\n"},
		{desc: "not toml", content: "[feed\n"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			writeConfig(t, fs, "/bad.toml", tc.content)
			cfg := DefaultConfig()
			require.Error(t, Load(fs, "/bad.toml", &cfg))
		})
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		modify func(*Config)
		err    string
	}{
		{desc: "no components", modify: func(c *Config) { c.Components = nil }, err: "no components"},
		{
			desc:   "unknown component",
			modify: func(c *Config) { c.Components = []string{"relay"} },
			err:    `unknown component "relay"`,
		},
		{
			desc:   "unknown transport",
			modify: func(c *Config) { c.Feed.Transport = "tcp" },
			err:    `unknown feed transport "tcp"`,
		},
		{
			desc: "inproc split",
			modify: func(c *Config) {
				c.Feed.Transport = feed.TransportInproc
				c.Components = []string{ComponentConsumer, ComponentRecovery}
			},
			err: "same process",
		},
		{
			desc:   "empty recovery queue",
			modify: func(c *Config) { c.Recovery.QueueSize = 0 },
			err:    "recovery.queue-size must be positive",
		},
		{
			desc:   "zero recovery timeout",
			modify: func(c *Config) { c.Recovery.Timeout = 0 },
			err:    "recovery.timeout must be positive",
		},
		{
			desc: "negative recovery timeout on publisher only",
			modify: func(c *Config) {
				c.Components = []string{ComponentPublisher}
				c.Feed.Transport = feed.TransportUDP
				c.Recovery.Timeout = -time.Second
			},
		},
		{
			desc: "remote recovery without address",
			modify: func(c *Config) {
				c.Components = []string{ComponentConsumer}
				c.Recovery.Address = ""
			},
			err: "recovery.address",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if tc.err == "" {
				require.NoError(t, cfg.Validate())
				return
			}
			require.ErrorContains(t, cfg.Validate(), tc.err)
		})
	}
}
