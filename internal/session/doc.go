// Package session holds the pipeline's domain model: decoding raw payloads
// into validated Sessions, enriching them with derived metrics, and encoding
// the enriched result back to the wire.
//
// Decode is strict so that missing or mistyped fields fail here, with a named
// field or byte offset, instead of surfacing later in enrichment or routing.
// Both Decode and Enrich are pure given their inputs; Enrich stamps the
// wall-clock time it is handed, so replays produce a fresh timestamp.
package session
