package feed

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-feedsim/metrics"
)

const subsystem = "feed"

var (
	published = metrics.NewCounter(
		"published",
		subsystem,
		"messages handled by the publisher",
		[]string{"state"},
	)
	received = metrics.NewCounter(
		"received",
		subsystem,
		"messages received by the consumer",
		[]string{"result"},
	)
	recoveries = metrics.NewCounter(
		"recoveries",
		subsystem,
		"recovery attempts made by the consumer",
		[]string{"result"},
	)
	expectedSequence = metrics.NewGauge(
		"expected_sequence",
		subsystem,
		"next sequence the consumer expects",
		[]string{},
	)
)

type publisherTracker struct {
	sent, dropped, failed prometheus.Counter
}

func newPublisherTracker() *publisherTracker {
	return &publisherTracker{
		sent:    published.WithLabelValues("sent"),
		dropped: published.WithLabelValues("dropped"),
		failed:  published.WithLabelValues("failed"),
	}
}

type consumerTracker struct {
	accepted, gap, malformed           prometheus.Counter
	recovered, notFound, failedRecover prometheus.Counter
	expected                           prometheus.Gauge
}

func newConsumerTracker() *consumerTracker {
	return &consumerTracker{
		accepted:      received.WithLabelValues("accepted"),
		gap:           received.WithLabelValues("gap"),
		malformed:     received.WithLabelValues("malformed"),
		recovered:     recoveries.WithLabelValues("recovered"),
		notFound:      recoveries.WithLabelValues("not_found"),
		failedRecover: recoveries.WithLabelValues("failed"),
		expected:      expectedSequence.WithLabelValues(),
	}
}
