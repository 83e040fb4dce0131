// Package pipeline runs the poll → decode → enrich → route → publish loops.
//
// # Overview
//
// One loop owns each source partition. Loops share nothing but the immutable
// routing table; cursors, decoded sessions, and enriched records stay inside
// their loop. A stalled partition never blocks a sibling.
//
// Per-partition lifecycle: starting → polling ⇄ processing → stopped.
//
//   - starting: resolve the initial cursor from the configured start policy.
//     Failures here stop this partition only.
//   - polling: fetch a batch; an empty batch sleeps the configured backoff
//     and re-fetches with the cursor the empty fetch returned.
//   - processing: each record runs decode → filter → enrich → route →
//     publish. Per-record failures are logged and the record is skipped.
//   - stopped: on cancellation (after finishing the in-flight batch) or on an
//     unrecoverable cursor expiry (one resume at earliest retained is
//     attempted first).
//
// Publish failures retry with exponential backoff a bounded number of times;
// exhaustion drops the record for this run and is logged as such.
package pipeline
