package session

import (
	"fmt"
	"time"
)

// EnrichError reports a Session whose line items cannot be aggregated.
type EnrichError struct {
	reason string
}

func (e *EnrichError) Error() string { return "enrich: " + e.reason }

// Enrich derives metrics from a Session at the given processing time.
//
// ProcessedAt is the wall-clock time of processing, not event time: replaying
// the same record later yields a different timestamp. LineItemCount is a raw
// count of entries, repeated product codes included.
//
// An empty history is valid and yields all-zero counters.
func Enrich(s Session, now time.Time) (Enriched, error) {
	total := 0
	inCart := 0
	for i, it := range s.LineItems {
		if it.Quantity < 0 {
			return Enriched{}, &EnrichError{reason: fmt.Sprintf("line item %d has negative quantity %d", i, it.Quantity)}
		}
		total += it.Quantity
		if it.InCart {
			inCart += it.Quantity
		}
	}
	return Enriched{
		Session:       s,
		ProcessedAt:   now,
		TotalQuantity: total,
		TotalInCart:   inCart,
		LineItemCount: len(s.LineItems),
	}, nil
}
