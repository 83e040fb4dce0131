package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports a malformed payload. Field names the offending wire
// field when known; Offset is the byte position for syntax errors.
type DecodeError struct {
	Field  string
	Offset int64
	reason string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("decode: field %q %s", e.Field, e.reason)
	case e.Offset > 0:
		return fmt.Sprintf("decode: malformed payload at offset %d", e.Offset)
	default:
		return "decode: malformed payload"
	}
}

// quantity accepts a JSON integer or a numeric string, as both occur on the
// wire.
type quantity int

func (q *quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*q = quantity(n)
	return nil
}

type wireLineItem struct {
	ProductCode *string   `json:"product_code"`
	Quantity    *quantity `json:"quantity"`
	InCart      bool      `json:"in_shopping_cart"`
}

type wireSession struct {
	SessionID      *string        `json:"session_id"`
	CustomerNumber int64          `json:"customer_number"`
	City           string         `json:"city"`
	Country        *string        `json:"country"`
	CreditLimit    float64        `json:"credit_limit"`
	BrowseHistory  []wireLineItem `json:"browse_history"`
}

// Decode parses a UTF-8 JSON payload into a validated Session. session_id,
// country, and browse_history are required; quantities must be non-negative
// integers (numeric strings accepted). Decode is pure: identical bytes yield
// structurally identical Sessions.
func Decode(b []byte) (Session, error) {
	var w wireSession
	if err := json.Unmarshal(b, &w); err != nil {
		return Session{}, wrapJSONError(err)
	}

	if w.SessionID == nil || *w.SessionID == "" {
		return Session{}, &DecodeError{Field: "session_id", reason: "is required"}
	}
	if w.Country == nil {
		return Session{}, &DecodeError{Field: "country", reason: "is required"}
	}
	if w.BrowseHistory == nil {
		return Session{}, &DecodeError{Field: "browse_history", reason: "is required"}
	}

	items := make([]LineItem, 0, len(w.BrowseHistory))
	for i, it := range w.BrowseHistory {
		field := func(name string) string { return fmt.Sprintf("browse_history[%d].%s", i, name) }
		if it.ProductCode == nil {
			return Session{}, &DecodeError{Field: field("product_code"), reason: "is required"}
		}
		var qty int
		if it.Quantity != nil {
			qty = int(*it.Quantity)
		}
		if qty < 0 {
			return Session{}, &DecodeError{Field: field("quantity"), reason: "must be non-negative"}
		}
		items = append(items, LineItem{ProductCode: *it.ProductCode, Quantity: qty, InCart: it.InCart})
	}

	return Session{
		ID:             *w.SessionID,
		CustomerNumber: w.CustomerNumber,
		City:           w.City,
		Country:        *w.Country,
		CreditLimit:    w.CreditLimit,
		LineItems:      items,
	}, nil
}

func wrapJSONError(err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return &DecodeError{Offset: syn.Offset}
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return &DecodeError{Field: typ.Field, Offset: typ.Offset, reason: "has wrong type"}
	}
	return &DecodeError{reason: err.Error()}
}
