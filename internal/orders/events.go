package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCommitted  = "OrderCommitted"
	EventInvoiceRendered = "InvoiceRendered"
)

// Envelope is the wire frame every event travels in, versioned so the
// invoice worker can skip payloads it does not understand.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id as text
	Payload       json.RawMessage `json:"payload"`
}

// LineSnapshot is what the invoice needs per line: name, unit price,
// count, comment. Prices travel as fixed-point text.
type LineSnapshot struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Count     int    `json:"count"`
	Comment   string `json:"comment,omitempty"`
}

type OrderCommittedPayload struct {
	OrderID     int64          `json:"order_id"`
	Description string         `json:"description"`
	CustomerID  int64          `json:"customer_id"`
	Total       string         `json:"total"`
	Items       []LineSnapshot `json:"items"`
}

type InvoiceRenderedPayload struct {
	OrderID     int64  `json:"order_id"`
	InvoiceFile string `json:"invoice_file"`
}
