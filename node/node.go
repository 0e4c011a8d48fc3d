// Package node wires the feedsim components into a runnable process.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-feedsim/cmd"
	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/config"
	"github.com/spacemeshos/go-feedsim/feed"
	"github.com/spacemeshos/go-feedsim/feed/transport/inproc"
	"github.com/spacemeshos/go-feedsim/feed/transport/multicast"
	"github.com/spacemeshos/go-feedsim/log"
	"github.com/spacemeshos/go-feedsim/metrics"
	"github.com/spacemeshos/go-feedsim/recovery"
)

// Logger names of the components.
const (
	PublisherLogger = "publisher"
	ConsumerLogger  = "consumer"
	RecoveryLogger  = "recovery"
	TransportLogger = "transport"
	MetricsLogger   = "metrics"
)

// GetCommand returns the root command of feedsim.
func GetCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "feedsim",
		Short: "run a sequenced feed with gap recovery",
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}

			app := New(
				WithConfig(&conf),
				WithLog(rootLogger(conf.LOGGING.AppLoggerLevel)),
			)

			// os.Interrupt for all systems, especially windows, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// Don't print usage on error from this point forward
			c.SilenceUsage = true
			return app.Start(ctx)
		},
	}

	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)

	// versionCmd returns the current version of feedsim.
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(c *cobra.Command, args []string) {
			fmt.Print(cmd.Version)
			if cmd.Commit != "" {
				fmt.Printf(" (%s %s)", cmd.Branch, cmd.Commit)
			}
			fmt.Println()
		},
	}
	c.AddCommand(versionCmd)

	recoverCmd := &cobra.Command{
		Use:          "recover <seq>",
		Short:        "Request the payload of one sequence from a recovery server",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			if err := configure(c, *configPath, &conf); err != nil {
				return err
			}
			return runRecover(c.Context(), c.OutOrStdout(), &conf, args[0])
		},
	}
	c.AddCommand(recoverCmd)

	return c
}

func configure(c *cobra.Command, configPath string, conf *config.Config) error {
	if err := config.Load(afero.NewOsFs(), configPath, conf); err != nil {
		return log.ErrMalformedConfig(err)
	}
	// apply CLI args to config
	if err := c.ParseFlags(os.Args[1:]); err != nil {
		return log.ErrBadFlags(err)
	}
	conf.ConfigFile = configPath

	if conf.LOGGING.Encoder == config.JSONLogEncoder {
		log.JSONLog(true)
	}
	return nil
}

// rootLogger creates the application logger. Component loggers can only raise its level.
func rootLogger(lvl string) *zap.Logger {
	level, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		logger := log.NewWithLevel("feedsim", zap.NewAtomicLevelAt(zap.InfoLevel))
		logger.Warn("invalid app log level, using info", zap.String("level", lvl), zap.Error(err))
		return logger
	}
	return log.NewWithLevel("feedsim", level)
}

// runRecover performs one recovery exchange with the configured server and prints the result.
func runRecover(ctx context.Context, w io.Writer, conf *config.Config, arg string) error {
	seq, err := types.ParseSequence(arg)
	if err != nil {
		return err
	}
	addr := conf.Recovery.Address
	if addr == "" {
		addr = conf.Recovery.Listen
	}
	client := recovery.NewClient(addr, recovery.WithClientTimeout(conf.Recovery.Timeout))
	payload, err := client.Recover(ctx, seq)
	switch {
	case errors.Is(err, recovery.ErrNotFound):
		_, err = fmt.Fprintf(w, "SEQ:%s not found\n", seq)
		return err
	case err != nil:
		return fmt.Errorf("recover %s: %w", seq, err)
	}
	_, err = fmt.Fprintln(w, payload)
	return err
}

// Option to modify an App instance.
type Option func(app *App)

// WithLog enables logger for an App.
func WithLog(logger *zap.Logger) Option {
	return func(app *App) {
		app.log = logger
	}
}

// WithConfig overwrites default App config.
func WithConfig(conf *config.Config) Option {
	return func(app *App) {
		app.Config = conf
	}
}

// WithOutcomeHandler observes every message handled by the consumer.
func WithOutcomeHandler(handler func(feed.Outcome)) Option {
	return func(app *App) {
		app.onOutcome = handler
	}
}

// New creates an instance of the feedsim app.
func New(opts ...Option) *App {
	defaultConfig := config.DefaultConfig()
	app := &App{
		Config: &defaultConfig,
		log:    log.NewNop(),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// App runs the configured feedsim components.
type App struct {
	Config    *config.Config
	log       *zap.Logger
	onOutcome func(feed.Outcome)
}

func (app *App) addLogger(name, lvl string) *zap.Logger {
	level, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		app.log.Warn("invalid log level, using info",
			zap.String("module", name),
			zap.String("level", lvl),
			zap.Error(err),
		)
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return log.WithLevel(app.log, name, level)
}

type broadcaster interface {
	feed.Broadcaster
	io.Closer
}

type receiver interface {
	feed.Receiver
	io.Closer
}

// Start starts the configured components and blocks until ctx is cancelled and all of them
// stopped. A component that fails to start is logged and skipped, Start fails only if no
// component could start.
func (app *App) Start(ctx context.Context) error {
	if err := app.Config.Validate(); err != nil {
		return log.ErrMalformedConfig(err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	if app.Config.CollectMetrics {
		app.startMetrics(ctx, eg)
	}

	var bus *inproc.Bus
	if app.Config.Feed.Transport == feed.TransportInproc {
		bus = inproc.NewBus(inproc.WithLogger(app.addLogger(TransportLogger, app.Config.LOGGING.TransportLoggerLevel)))
	}

	started := 0
	recoveryAddr := app.Config.Recovery.Address
	if app.Config.Has(config.ComponentRecovery) {
		srv, err := app.newRecoveryServer()
		if err != nil {
			app.log.Error("recovery server not started", zap.Error(err))
		} else {
			if recoveryAddr == "" {
				recoveryAddr = srv.Addr().String()
			}
			started++
			eg.Go(func() error {
				return srv.Run(ctx)
			})
		}
	}
	// the consumer subscribes before the publisher emits the first message.
	if app.Config.Has(config.ComponentConsumer) {
		consumer, rx, err := app.newConsumer(bus, recoveryAddr)
		if err != nil {
			app.log.Error("consumer not started", zap.Error(err))
		} else {
			started++
			eg.Go(func() error {
				defer rx.Close()
				return consumer.Run(ctx)
			})
		}
	}
	if app.Config.Has(config.ComponentPublisher) {
		publisher, tx, err := app.newPublisher(bus)
		if err != nil {
			app.log.Error("publisher not started", zap.Error(err))
		} else {
			started++
			eg.Go(func() error {
				defer tx.Close()
				return publisher.Run(ctx)
			})
		}
	}
	if started == 0 {
		cancel()
		eg.Wait()
		return errors.New("no component started")
	}
	app.log.Info("feedsim started",
		zap.Strings("components", app.Config.Components),
		zap.String("transport", string(app.Config.Feed.Transport)),
		zap.Int("started", started),
	)
	err := eg.Wait()
	app.log.Info("feedsim stopped", zap.Error(err))
	return err
}

func (app *App) startMetrics(ctx context.Context, eg *errgroup.Group) {
	logger := app.addLogger(MetricsLogger, app.Config.LOGGING.MetricsLoggerLevel)
	srv := metrics.NewServer(logger, app.Config.MetricsPort)
	eg.Go(func() error {
		// the feed keeps running without the metrics endpoint.
		if err := srv.Run(ctx); err != nil {
			app.log.Error("metrics server stopped", zap.Error(err))
		}
		return nil
	})
	if app.Config.MetricsPush != "" {
		eg.Go(func() error {
			metrics.PushMetrics(ctx, logger, app.Config.MetricsPush, "feedsim", app.Config.MetricsPushPeriod)
			return nil
		})
	}
}

func (app *App) newRecoveryServer() (*recovery.Server, error) {
	cfg := app.Config.Recovery
	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, log.ErrBindRecovery(err)
	}
	opts := []recovery.Opt{
		recovery.WithLog(app.addLogger(RecoveryLogger, app.Config.LOGGING.RecoveryLoggerLevel)),
		recovery.WithTimeout(cfg.Timeout),
		recovery.WithQueueSize(cfg.QueueSize),
		recovery.WithRequestsPerInterval(cfg.RequestsPerSecond, time.Second),
	}
	if app.Config.CollectMetrics {
		opts = append(opts, recovery.WithMetrics())
	}
	return recovery.New(l, recovery.NewStore(cfg.Records...), opts...), nil
}

func (app *App) newConsumer(bus *inproc.Bus, recoveryAddr string) (*feed.Consumer, receiver, error) {
	if recoveryAddr == "" {
		return nil, nil, errors.New("recovery server address is unknown")
	}
	rx, err := app.openReceiver(bus)
	if err != nil {
		return nil, nil, log.ErrOpenFeed(err)
	}
	logger := app.addLogger(ConsumerLogger, app.Config.LOGGING.ConsumerLoggerLevel)
	clientOpts := []recovery.ClientOpt{
		recovery.WithClientLog(logger),
		recovery.WithClientTimeout(app.Config.Recovery.Timeout),
	}
	opts := []feed.ConsumerOpt{feed.WithConsumerLogger(logger)}
	if app.Config.CollectMetrics {
		clientOpts = append(clientOpts, recovery.WithClientMetrics())
		opts = append(opts, feed.WithConsumerMetrics())
	}
	if app.onOutcome != nil {
		opts = append(opts, feed.WithOutcomeHandler(app.onOutcome))
	}
	return feed.NewConsumer(rx, recovery.NewClient(recoveryAddr, clientOpts...), opts...), rx, nil
}

func (app *App) newPublisher(bus *inproc.Bus) (*feed.Publisher, broadcaster, error) {
	tx, err := app.openBroadcaster(bus)
	if err != nil {
		return nil, nil, log.ErrOpenFeed(err)
	}
	opts := []feed.PublisherOpt{
		feed.WithPublisherLogger(app.addLogger(PublisherLogger, app.Config.LOGGING.PublisherLoggerLevel)),
		feed.WithPublisherConfig(app.Config.Feed.Publisher),
	}
	if app.Config.CollectMetrics {
		opts = append(opts, feed.WithPublisherMetrics())
	}
	return feed.NewPublisher(tx, opts...), tx, nil
}

func (app *App) openReceiver(bus *inproc.Bus) (receiver, error) {
	logger := app.addLogger(TransportLogger, app.Config.LOGGING.TransportLoggerLevel)
	switch app.Config.Feed.Transport {
	case feed.TransportUDP:
		rx, err := multicast.NewReceiver(app.Config.Multicast, multicast.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return rx, nil
	case feed.TransportZMQ:
		return openZMQReceiver(app.Config.ZMQ, logger)
	case feed.TransportInproc:
		return bus.Subscribe(app.Config.Inproc.Buffer), nil
	}
	return nil, app.Config.Feed.Transport.Validate()
}

func (app *App) openBroadcaster(bus *inproc.Bus) (broadcaster, error) {
	logger := app.addLogger(TransportLogger, app.Config.LOGGING.TransportLoggerLevel)
	switch app.Config.Feed.Transport {
	case feed.TransportUDP:
		tx, err := multicast.NewSender(app.Config.Multicast, multicast.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return tx, nil
	case feed.TransportZMQ:
		return openZMQBroadcaster(app.Config.ZMQ, logger)
	case feed.TransportInproc:
		// closing the bus after the last message lets the consumer drain it and stop.
		return bus, nil
	}
	return nil, app.Config.Feed.Transport.Validate()
}
