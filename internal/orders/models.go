package orders

import (
	"time"

	"github.com/yzzyx/invoice/internal/money"
)

// UnsavedID marks an order or line item with no row behind it yet.
const UnsavedID int64 = -1

type Order struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CustomerID  int64     `json:"customer_id"`
	Status      Status    `json:"status"`
	InvoiceFile string    `json:"invoice_file,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderLineItem maps to one order_products row. Price is the unit price
// snapshotted when the product was added, independently editable since.
// Name and Description are display copies joined in from products at
// load time; they are never written back.
type OrderLineItem struct {
	ID          int64       `json:"id"`
	OrderID     int64       `json:"order_id"`
	ProductID   int64       `json:"product_id"`
	Price       money.Money `json:"price"`
	Count       int         `json:"count"`
	Comment     string      `json:"comment"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// Subtotal is price times count, exact.
func (li OrderLineItem) Subtotal() money.Money {
	return li.Price.MulInt(li.Count)
}
