package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushMetrics pushes the default registry to a pushgateway at url every period until ctx is
// cancelled, and once more on exit so that bounded runs report their final counters.
func PushMetrics(ctx context.Context, logger *zap.Logger, url, instance string, period time.Duration) {
	pusher := push.New(url, Namespace).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instance)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := pusher.Push(); err != nil {
				logger.Warn("failed to push final metrics", zap.String("url", url), zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := pusher.Push(); err != nil {
				logger.Warn("failed to push metrics", zap.String("url", url), zap.Error(err))
			}
		}
	}
}
