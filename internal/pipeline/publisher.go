package pipeline

import (
	"context"
	"fmt"

	logpkg "sessionflow/pkg/log"
)

// PublishError reports a record dropped after exhausting publish attempts.
type PublishError struct {
	Topic    string
	Key      string
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %q failed after %d attempts (key=%q): %v", e.Topic, e.Attempts, e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// publishWithRetry publishes one record, retrying transient failures with
// doubling delays up to PublishMaxAttempts.
func (p *Pipeline) publishWithRetry(ctx context.Context, topic, key string, payload []byte) (uint64, error) {
	var lastErr error
	delay := p.opts.PublishRetryBase
	for attempt := 1; attempt <= p.opts.PublishMaxAttempts; attempt++ {
		seq, err := p.sink.Publish(ctx, topic, key, payload)
		if err == nil {
			return seq, nil
		}
		lastErr = err
		if attempt < p.opts.PublishMaxAttempts {
			p.logger.Warn("publish attempt failed, retrying",
				logpkg.Str("dest", topic),
				logpkg.Int("attempt", attempt),
				logpkg.Err(err),
			)
			if !p.sleep(ctx, delay) {
				break
			}
			delay *= 2
		}
	}
	return 0, &PublishError{Topic: topic, Key: key, Attempts: p.opts.PublishMaxAttempts, Err: lastErr}
}
