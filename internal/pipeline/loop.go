package pipeline

import (
	"context"
	"errors"
	"time"

	"sessionflow/internal/session"
	"sessionflow/internal/stream"
	logpkg "sessionflow/pkg/log"
)

// runPartition drives one partition's loop until cancellation or an
// unrecoverable cursor error. Failures never propagate to sibling loops.
func (p *Pipeline) runPartition(ctx context.Context, partition uint32) {
	logger := p.logger.With(logpkg.Int("partition", int(partition)))

	// starting: resolve the initial cursor.
	cur, err := p.src.InitialCursor(ctx, partition, p.opts.StartPolicy)
	if err != nil {
		logger.Error("partition failed to start", logpkg.Err(err))
		return
	}
	logger.Info("partition loop started")

	resumed := false
	for {
		if ctx.Err() != nil {
			logger.Info("partition loop stopped")
			return
		}

		recs, next, err := p.src.Fetch(ctx, cur)
		if err != nil {
			if errors.Is(err, stream.ErrCursorExpired) {
				if resumed {
					logger.Error("cursor expired after resume, stopping partition", logpkg.Err(err))
					return
				}
				// One resume anchored at the oldest retained record.
				nc, rerr := p.src.InitialCursor(ctx, partition, stream.StartEarliest)
				if rerr != nil {
					logger.Error("cursor resume failed, stopping partition", logpkg.Err(rerr))
					return
				}
				logger.Warn("cursor expired, resuming at earliest retained")
				cur = nc
				resumed = true
				continue
			}
			if ctx.Err() != nil {
				logger.Info("partition loop stopped")
				return
			}
			logger.Error("fetch failed", logpkg.Err(err))
			if !p.sleep(ctx, p.opts.EmptyBackoff) {
				logger.Info("partition loop stopped")
				return
			}
			continue
		}
		resumed = false

		// The replacement cursor is adopted even for an empty batch.
		cur = next

		if len(recs) == 0 {
			if !p.sleep(ctx, p.opts.EmptyBackoff) {
				logger.Info("partition loop stopped")
				return
			}
			continue
		}

		// processing: a fetched batch is always carried through, even when
		// cancellation arrives mid-batch.
		batchCtx := context.WithoutCancel(ctx)
		for _, rec := range recs {
			p.processRecord(batchCtx, rec, logger)
		}
	}
}

// processRecord runs decode → filter → enrich → route → publish for one
// record. Every failure is logged and skips only this record.
func (p *Pipeline) processRecord(ctx context.Context, rec stream.Record, logger logpkg.Logger) {
	rlog := logger.With(logpkg.Uint64("seq", rec.Seq))

	s, err := session.Decode(rec.Payload)
	if err != nil {
		rlog.Warn("record skipped: decode failed", logpkg.Err(err))
		return
	}
	if !p.filter.Eval(s, rec.Payload) {
		rlog.Debug("record skipped by filter", logpkg.Str("session", s.ID))
		return
	}
	enriched, err := session.Enrich(s, p.clock())
	if err != nil {
		rlog.Warn("record skipped: enrich failed", logpkg.Err(err))
		return
	}
	topic, err := p.routes.Resolve(s.Country)
	if err != nil {
		// Validated at startup; reaching this means the table changed
		// underneath us, which the model forbids.
		rlog.Error("record skipped: no route", logpkg.Err(err))
		return
	}
	payload, err := enriched.Encode()
	if err != nil {
		rlog.Warn("record skipped: encode failed", logpkg.Err(err))
		return
	}

	seq, err := p.publishWithRetry(ctx, topic, s.ID, payload)
	if err != nil {
		rlog.Error("record dropped: publish failed", logpkg.Err(err), logpkg.Str("dest", topic))
		return
	}
	rlog.Debug("record published",
		logpkg.Str("dest", topic),
		logpkg.Str("session", s.ID),
		logpkg.Uint64("dest_seq", seq),
	)
}

// sleep waits for d or cancellation, reporting false when cancelled.
func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
