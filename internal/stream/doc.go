// Package stream defines the contracts between the pipeline and the
// partitioned logs it consumes and produces.
//
// A Source exposes a fixed partition set, start-policy cursor resolution, and
// cursored batch fetches. A Sink appends key-partitioned payloads to a named
// destination topic. Two backends implement these contracts: the embedded
// Pebble-backed log (stream/embedded) and Kafka via franz-go (stream/kafka).
//
// Cursor tokens are opaque to callers: a token returned by Fetch must replace
// the one that produced it, even when the batch was empty.
package stream
