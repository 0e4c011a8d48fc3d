package node

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/config"
	"github.com/spacemeshos/go-feedsim/feed"
	"github.com/spacemeshos/go-feedsim/log"
	"github.com/spacemeshos/go-feedsim/log/logtest"
	"github.com/spacemeshos/go-feedsim/recovery"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Feed.Transport = feed.TransportInproc
	cfg.Feed.Publisher = feed.PublisherConfig{Interval: time.Millisecond, DropEvery: 5, Count: 26}
	cfg.Recovery.Listen = "127.0.0.1:0"
	return cfg
}

type outcomes struct {
	mu   sync.Mutex
	gaps map[types.Sequence]feed.Outcome
	last types.Sequence
	done chan struct{}
}

func newOutcomes(last types.Sequence) *outcomes {
	return &outcomes{gaps: map[types.Sequence]feed.Outcome{}, last: last, done: make(chan struct{})}
}

func (o *outcomes) handle(out feed.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if out.Gap {
		o.gaps[out.Missing] = out
	}
	if out.Message.Sequence == o.last {
		close(o.done)
	}
}

func runApp(t *testing.T, cfg config.Config, last types.Sequence) *outcomes {
	t.Helper()
	res := newOutcomes(last)
	app := New(WithConfig(&cfg), WithLog(logtest.New(t)), WithOutcomeHandler(res.handle))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	select {
	case <-res.done:
	case err := <-errc:
		require.FailNow(t, "app stopped early", "error: %v", err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "consumer didn't receive the last message")
	}
	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "app didn't stop")
	}
	return res
}

func requireDemoOutcomes(t *testing.T, res *outcomes) {
	t.Helper()
	res.mu.Lock()
	defer res.mu.Unlock()
	require.Len(t, res.gaps, 5)
	require.Equal(t, feed.RecoveryNotFound, res.gaps[5].Status)
	for _, seq := range []types.Sequence{10, 15, 20, 25} {
		require.Equal(t, feed.Recovered, res.gaps[seq].Status, "seq %d", seq)
		require.Equal(t, "Recovered data for SEQ:"+seq.String(), res.gaps[seq].Payload)
		require.Equal(t, seq+1, res.gaps[seq].Message.Sequence)
	}
}

func TestAppInproc(t *testing.T) {
	requireDemoOutcomes(t, runApp(t, testConfig(), 26))
}

func TestAppFollowsRecoveryListen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feed.Transport = feed.TransportInproc
	cfg.Feed.Publisher.Interval = time.Millisecond
	cfg.Feed.Publisher.Count = 26
	cfg.Recovery.Listen = "127.0.0.1:0"
	requireDemoOutcomes(t, runApp(t, cfg, 26))
}

func TestRootLogger(t *testing.T) {
	for _, tc := range []struct {
		level   string
		enabled zapcore.Level
		below   zapcore.Level
	}{
		{level: "debug", enabled: zap.DebugLevel, below: zap.DebugLevel - 1},
		{level: "warn", enabled: zap.WarnLevel, below: zap.InfoLevel},
		{level: "verbose", enabled: zap.InfoLevel, below: zap.DebugLevel},
	} {
		t.Run(tc.level, func(t *testing.T) {
			core := rootLogger(tc.level).Core()
			require.True(t, core.Enabled(tc.enabled))
			require.False(t, core.Enabled(tc.below))
		})
	}
}

func TestAppUDP(t *testing.T) {
	free, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	addr := free.LocalAddr().String()
	require.NoError(t, free.Close())

	cfg := testConfig()
	cfg.Feed.Transport = feed.TransportUDP
	cfg.Multicast.Group = addr
	requireDemoOutcomes(t, runApp(t, cfg, 26))
}

func TestAppRemoteRecovery(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	store := recovery.NewStore(recovery.Record{Sequence: 3, Payload: "three"})
	srv := recovery.New(l, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(ctx) }()

	cfg := testConfig()
	cfg.Components = []string{config.ComponentPublisher, config.ComponentConsumer}
	cfg.Recovery.Address = l.Addr().String()
	cfg.Feed.Publisher = feed.PublisherConfig{DropEvery: 3, Count: 7}
	res := runApp(t, cfg, 7)

	res.mu.Lock()
	require.Equal(t, feed.Recovered, res.gaps[3].Status)
	require.Equal(t, "three", res.gaps[3].Payload)
	require.Equal(t, feed.RecoveryNotFound, res.gaps[6].Status)
	res.mu.Unlock()

	cancel()
	require.NoError(t, <-srvErr)
}

func TestAppNoComponentStarted(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := testConfig()
	cfg.Components = []string{config.ComponentRecovery}
	cfg.Recovery.Listen = l.Addr().String()
	app := New(WithConfig(&cfg), WithLog(logtest.New(t)))
	require.ErrorContains(t, app.Start(context.Background()), "no component started")
}

func TestAppInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Components = []string{"broker"}
	app := New(WithConfig(&cfg))

	err := app.Start(context.Background())
	var fatal *log.FatalError
	require.True(t, errors.As(err, &fatal))
	require.Equal(t, "ERR_MALFORMED_CONFIG", fatal.Code)
}

func TestRunRecover(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := recovery.New(l, recovery.NewStore(recovery.DemoRecords()...))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(ctx) }()

	cfg := config.DefaultConfig()
	cfg.Recovery.Address = l.Addr().String()

	var out bytes.Buffer
	require.NoError(t, runRecover(ctx, &out, &cfg, "10"))
	require.Equal(t, "Recovered data for SEQ:10\n", out.String())

	out.Reset()
	require.NoError(t, runRecover(ctx, &out, &cfg, "5"))
	require.Equal(t, "SEQ:5 not found\n", out.String())

	require.Error(t, runRecover(ctx, &out, &cfg, "five"))

	cancel()
	require.NoError(t, <-srvErr)

	require.ErrorContains(t, runRecover(context.Background(), &out, &cfg, "10"), "recover 10")
}
