package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-feedsim/config"
	"github.com/spacemeshos/go-feedsim/feed"
)

func TestAddFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	path := AddFlags(fs, &cfg)

	require.NoError(t, fs.Parse([]string{
		"-c", "/etc/feedsim.toml",
		"--components", "recovery,consumer",
		"--transport", "inproc",
		"--interval", "10ms",
		"--drop-every", "3",
		"--count", "30",
		"--recovery-listen", "127.0.0.1:0",
		"--recovery-address", "",
	}))
	require.Equal(t, "/etc/feedsim.toml", *path)
	require.Equal(t, []string{config.ComponentRecovery, config.ComponentConsumer}, cfg.Components)
	require.Equal(t, feed.TransportInproc, cfg.Feed.Transport)
	require.Equal(t, 10*time.Millisecond, cfg.Feed.Publisher.Interval)
	require.EqualValues(t, 3, cfg.Feed.Publisher.DropEvery)
	require.EqualValues(t, 30, cfg.Feed.Publisher.Count)
	require.Equal(t, "127.0.0.1:0", cfg.Recovery.Listen)
	require.Empty(t, cfg.Recovery.Address)

	// untouched flags keep the defaults.
	require.Equal(t, config.DefaultConfig().Multicast, cfg.Multicast)
}
