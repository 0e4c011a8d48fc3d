package cmd

import (
	"github.com/spf13/pflag"

	"github.com/spacemeshos/go-feedsim/config"
)

// AddFlags adds the flags of every configurable component to flagSet and binds them to cfg.
// It returns a pointer to the config file path.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")

	/** ======================== BaseConfig Flags ========================== **/
	flagSet.StringSliceVar(&cfg.Components, "components",
		cfg.Components, "components to run: recovery, publisher, consumer")
	flagSet.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "collect metrics and serve them over http")
	flagSet.IntVar(&cfg.MetricsPort, "metrics-port",
		cfg.MetricsPort, "metric server port")
	flagSet.StringVar(&cfg.MetricsPush, "metrics-push",
		cfg.MetricsPush, "push metrics to url")
	flagSet.DurationVar(&cfg.MetricsPushPeriod, "metrics-push-period",
		cfg.MetricsPushPeriod, "push period")
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as JSON instead of plain text")

	/** ======================== Feed Flags ========================== **/
	flagSet.StringVar((*string)(&cfg.Feed.Transport), "transport",
		string(cfg.Feed.Transport), "broadcast transport: udp, zmq or inproc")
	flagSet.DurationVar(&cfg.Feed.Publisher.Interval, "interval",
		cfg.Feed.Publisher.Interval, "delay between two published messages")
	flagSet.Uint32Var(&cfg.Feed.Publisher.DropEvery, "drop-every",
		cfg.Feed.Publisher.DropEvery, "drop every sequence divisible by this number, 0 drops nothing")
	flagSet.Uint32Var(&cfg.Feed.Publisher.Count, "count",
		cfg.Feed.Publisher.Count, "stop publishing after this many sequences, 0 publishes until interrupted")

	/** ======================== Transport Flags ========================== **/
	flagSet.StringVar(&cfg.Multicast.Group, "multicast-group",
		cfg.Multicast.Group, "udp multicast group and port of the feed")
	flagSet.StringVar(&cfg.Multicast.Interface, "multicast-interface",
		cfg.Multicast.Interface, "network interface used for multicast")
	flagSet.IntVar(&cfg.Multicast.TTL, "multicast-ttl",
		cfg.Multicast.TTL, "ttl of multicast datagrams")
	flagSet.BoolVar(&cfg.Multicast.Loopback, "multicast-loopback",
		cfg.Multicast.Loopback, "deliver multicast datagrams to receivers on the same host")
	flagSet.StringVar(&cfg.ZMQ.Endpoint, "zmq-endpoint",
		cfg.ZMQ.Endpoint, "endpoint the zmq publisher binds and subscribers connect to")

	/** ======================== Recovery Flags ========================== **/
	flagSet.StringVar(&cfg.Recovery.Listen, "recovery-listen",
		cfg.Recovery.Listen, "address the recovery server listens on")
	flagSet.StringVar(&cfg.Recovery.Address, "recovery-address",
		cfg.Recovery.Address, "address of the recovery server used by the consumer")
	flagSet.DurationVar(&cfg.Recovery.Timeout, "recovery-timeout",
		cfg.Recovery.Timeout, "timeout of a single recovery exchange")
	flagSet.IntVar(&cfg.Recovery.QueueSize, "recovery-queue-size",
		cfg.Recovery.QueueSize, "recovery connections waiting for a handler")
	flagSet.IntVar(&cfg.Recovery.RequestsPerSecond, "recovery-rps",
		cfg.Recovery.RequestsPerSecond, "recovery requests served per second, 0 is unlimited")

	return configPath
}
