package session

import (
	"encoding/json"
	"time"
)

// LineItem is one product entry in a session's browse history.
type LineItem struct {
	ProductCode string
	Quantity    int
	InCart      bool
}

// Session is one decoded user-activity record. Never mutated after Decode.
type Session struct {
	ID             string
	CustomerNumber int64
	City           string
	Country        string
	CreditLimit    float64
	LineItems      []LineItem
}

// Enriched is a Session plus derived metrics. Published exactly once, never
// persisted by the pipeline.
type Enriched struct {
	Session

	ProcessedAt   time.Time
	TotalQuantity int
	TotalInCart   int
	LineItemCount int
}

type wireItemOut struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
	InCart      bool   `json:"in_shopping_cart"`
}

type wireEnriched struct {
	SessionID      string        `json:"session_id"`
	CustomerNumber int64         `json:"customer_number"`
	City           string        `json:"city"`
	Country        string        `json:"country"`
	CreditLimit    float64       `json:"credit_limit"`
	BrowseHistory  []wireItemOut `json:"browse_history"`

	ProcessingTimestamp    string `json:"processing_timestamp"`
	OverallProductQuantity int    `json:"overall_product_quantity"`
	OverallInShoppingCart  int    `json:"overall_in_shopping_cart"`
	TotalDifferentProducts int    `json:"total_different_products"`
}

// Encode serializes the enriched session to the output wire format: the input
// fields plus the derived counters and an RFC 3339 processing timestamp.
func (e Enriched) Encode() ([]byte, error) {
	items := make([]wireItemOut, len(e.LineItems))
	for i, it := range e.LineItems {
		items[i] = wireItemOut{ProductCode: it.ProductCode, Quantity: it.Quantity, InCart: it.InCart}
	}
	return json.Marshal(wireEnriched{
		SessionID:      e.ID,
		CustomerNumber: e.CustomerNumber,
		City:           e.City,
		Country:        e.Country,
		CreditLimit:    e.CreditLimit,
		BrowseHistory:  items,

		ProcessingTimestamp:    e.ProcessedAt.Format(time.RFC3339Nano),
		OverallProductQuantity: e.TotalQuantity,
		OverallInShoppingCart:  e.TotalInCart,
		TotalDifferentProducts: e.LineItemCount,
	})
}
