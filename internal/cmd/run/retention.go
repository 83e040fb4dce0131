package runcmd

import (
	"context"
	"time"

	cfgpkg "sessionflow/internal/config"
	"sessionflow/internal/route"
	"sessionflow/internal/runtime"
	logpkg "sessionflow/pkg/log"
)

const (
	retentionSweepInterval = 5 * time.Minute
	retentionBatchLimit    = 512
	retentionThrottle      = 10 * time.Millisecond
)

// retentionLoop periodically trims records older than the configured
// retention from the source topic and every destination topic. Trimming is
// best effort; a failed sweep is retried on the next tick.
func retentionLoop(ctx context.Context, rt *runtime.Runtime, cfg cfgpkg.Config, routes route.Table, logger logpkg.Logger) {
	logger = logger.WithComponent("retention")
	retention := time.Duration(cfg.Storage.RetentionHours) * time.Hour

	topics := append([]string{cfg.Source.Topic}, routes.Destinations()...)

	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cutoffMs := time.Now().Add(-retention).UnixMilli()
		total := 0
		for _, topic := range topics {
			n, err := trimTopic(ctx, rt, topic, cutoffMs)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("retention sweep failed", logpkg.Str("topic", topic), logpkg.Err(err))
				continue
			}
			total += n
		}
		if total > 0 {
			logger.Info("retention sweep trimmed records", logpkg.Int("records", total))
		}
	}
}

func trimTopic(ctx context.Context, rt *runtime.Runtime, topic string, cutoffMs int64) (int, error) {
	meta, ok := rt.TopicMeta(topic)
	if !ok {
		return 0, nil
	}
	total := 0
	for p := 0; p < meta.Partitions; p++ {
		lg, err := rt.OpenLog(topic, uint32(p))
		if err != nil {
			return total, err
		}
		n, err := lg.TrimOlderThan(ctx, cutoffMs, retentionBatchLimit, retentionThrottle)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
