package draft

import (
	"sort"

	"github.com/yzzyx/invoice/internal/catalog"
)

// Ledger tracks the net tentative stock delta per product for one
// editing session. It owns the session's catalog copies and is their
// only writer; nothing here touches storage. Stock is allowed to go
// negative — the tool tracks the requested change, it does not block
// overselling.
type Ledger struct {
	products map[int64]*catalog.Product
	entries  map[int64]*ledgerEntry
}

type ledgerEntry struct {
	delta int
	dirty bool
}

// NewLedger takes the baseline truth a session starts from. The slice
// elements are copied; callers can discard theirs.
func NewLedger(products []catalog.Product) *Ledger {
	l := &Ledger{
		products: make(map[int64]*catalog.Product, len(products)),
		entries:  make(map[int64]*ledgerEntry),
	}
	for i := range products {
		p := products[i]
		l.products[p.ID] = &p
	}
	return l
}

// Product returns the session copy, or nil for an unknown id.
func (l *Ledger) Product(id int64) *catalog.Product {
	return l.products[id]
}

// Reserve decreases the session copy's stock by count and marks the
// product dirty. Non-physical products are never stock-tracked.
func (l *Ledger) Reserve(productID int64, count int) {
	l.apply(productID, -count)
}

// Release gives count units back. Used when a line item is removed or
// its count shrinks.
func (l *Ledger) Release(productID int64, count int) {
	l.apply(productID, count)
}

// Adjust applies a signed resize in one step: positive delta reserves,
// negative releases. Resizing a line item goes through here so a
// count change of N never decomposes into N observable steps.
func (l *Ledger) Adjust(productID int64, delta int) {
	l.apply(productID, -delta)
}

func (l *Ledger) apply(productID int64, stockDelta int) {
	p := l.products[productID]
	if p == nil || !p.Physical || stockDelta == 0 {
		return
	}
	e := l.entries[productID]
	if e == nil {
		e = &ledgerEntry{}
		l.entries[productID] = e
	}
	p.Stock += stockDelta
	e.delta += stockDelta
	e.dirty = true
}

// Delta reports the cumulative tentative stock change for a product.
// Zero for anything untouched or non-physical.
func (l *Ledger) Delta(productID int64) int {
	if e := l.entries[productID]; e != nil {
		return e.delta
	}
	return 0
}

// DirtyProducts returns copies of every product whose stock changed
// during the session — exactly the set that must be persisted on
// commit. Ordered by id so commits are deterministic.
func (l *Ledger) DirtyProducts() []catalog.Product {
	ids := make([]int64, 0, len(l.entries))
	for id, e := range l.entries {
		if e.dirty {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.products[id])
	}
	return out
}
