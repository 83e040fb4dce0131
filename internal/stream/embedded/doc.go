// Package embedded implements the stream contracts on top of the
// Pebble-backed eventlog, giving the pipeline a self-contained backend with
// no external broker.
//
// Cursor tokens are 8-byte big-endian "next sequence" positions. Retention
// trims on the underlying log surface as stream.ErrCursorExpired when a held
// cursor falls below the first retained sequence.
package embedded
