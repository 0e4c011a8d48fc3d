package recovery

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-feedsim/metrics"
)

const subsystem = "recovery"

var (
	targetQueue = metrics.NewGauge(
		"target_queue",
		subsystem,
		"target size of the queue",
		[]string{},
	)
	queue = metrics.NewGauge(
		"queue",
		subsystem,
		"actual size of the queue",
		[]string{},
	)
	targetRps = metrics.NewGauge(
		"rps",
		subsystem,
		"target requests per second",
		[]string{},
	)
	requests = metrics.NewCounter(
		"requests",
		subsystem,
		"requests counter",
		[]string{"state"},
	)
	lookups = metrics.NewCounter(
		"lookups",
		subsystem,
		"store lookups by result",
		[]string{"result"},
	)
	serverLatency = metrics.NewHistogramWithBuckets(
		"server_latency_seconds",
		subsystem,
		"latency since accepting a connection",
		[]string{},
		prometheus.ExponentialBuckets(0.0005, 2, 12),
	)
	clientLatency = metrics.NewHistogramWithBuckets(
		"client_latency_seconds",
		subsystem,
		"latency since initiating a request",
		[]string{"result"},
		prometheus.ExponentialBuckets(0.0005, 2, 12),
	)
)

func newTracker() *tracker {
	return &tracker{
		targetQueue:   targetQueue.WithLabelValues(),
		queue:         queue.WithLabelValues(),
		targetRps:     targetRps.WithLabelValues(),
		completed:     requests.WithLabelValues("completed"),
		accepted:      requests.WithLabelValues("accepted"),
		dropped:       requests.WithLabelValues("dropped"),
		failed:        requests.WithLabelValues("failed"),
		hit:           lookups.WithLabelValues("hit"),
		miss:          lookups.WithLabelValues("miss"),
		serverLatency: serverLatency.WithLabelValues(),
	}
}

type tracker struct {
	targetQueue   prometheus.Gauge
	queue         prometheus.Gauge
	targetRps     prometheus.Gauge
	completed     prometheus.Counter
	accepted      prometheus.Counter
	dropped       prometheus.Counter
	failed        prometheus.Counter
	hit, miss     prometheus.Counter
	serverLatency prometheus.Observer
}

func newClientTracker() *clientTracker {
	return &clientTracker{
		recovered: clientLatency.WithLabelValues("recovered"),
		notFound:  clientLatency.WithLabelValues("not_found"),
		failed:    clientLatency.WithLabelValues("failed"),
	}
}

type clientTracker struct {
	recovered, notFound, failed prometheus.Observer
}
