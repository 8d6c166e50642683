package catalog

import (
	"time"

	"github.com/yzzyx/invoice/internal/money"
)

// UnsavedID marks a record that has no row behind it yet.
const UnsavedID int64 = -1

type Product struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Price            money.Money `json:"price"`
	Stock            int         `json:"stock"`
	DistributorID    int64       `json:"distributor_id"`
	DistributorPrice money.Money `json:"distributor_price"`
	UPC              string      `json:"upc,omitempty"`
	// Physical controls whether stock is tracked at all. Services and
	// other non-physical products never touch the stock ledger.
	Physical  bool      `json:"physical"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Distributor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
