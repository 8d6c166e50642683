package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/yzzyx/invoice/internal/catalog"
	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
)

type State int

const (
	// StateNew is the zero value; a usable draft starts in StateEditing.
	StateNew State = iota
	StateEditing
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateEditing:
		return "editing"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNotEditing     = errors.New("draft: not in editing state")
	ErrNoSuchItem     = errors.New("draft: no such line item")
	ErrUnknownProduct = errors.New("draft: product not in catalog snapshot")
	ErrBadTransition  = errors.New("draft: invalid status transition")
)

// LineItem is an order line plus the session-local Key used to address
// it before it has a database id (unsaved items all carry ID == -1, so
// the id cannot be the handle).
type LineItem struct {
	orders.OrderLineItem
	Key int `json:"key"`
}

// Gateway persists a confirmed draft. Implemented by orders.Repo.
type Gateway interface {
	CommitDraft(ctx context.Context, c orders.Commit) (orders.Order, error)
}

// Draft is the ephemeral editable aggregate: one order header, its live
// line items, the items staged for deletion, and the stock ledger over
// the session's catalog copies. One actor edits one draft; nothing here
// is safe for concurrent use.
type Draft struct {
	state   State
	order   orders.Order
	items   []*LineItem
	removed []*LineItem
	ledger  *Ledger
	nextKey int
}

// New starts a draft for an order that has no row yet.
func New(products []catalog.Product) *Draft {
	return &Draft{
		state:  StateEditing,
		order:  orders.Order{ID: orders.UnsavedID, Status: orders.StatusNew},
		ledger: NewLedger(products),
	}
}

// Load starts a draft over an existing order. Existing counts are
// already reflected in persisted stock, so loading reserves nothing —
// only changes made during this session are tentative.
func Load(o orders.Order, items []orders.OrderLineItem, products []catalog.Product) *Draft {
	d := &Draft{
		state:  StateEditing,
		order:  o,
		ledger: NewLedger(products),
	}
	for _, it := range items {
		d.nextKey++
		d.items = append(d.items, &LineItem{OrderLineItem: it, Key: d.nextKey})
	}
	return d
}

func (d *Draft) State() State        { return d.state }
func (d *Draft) Order() orders.Order { return d.order }
func (d *Draft) Ledger() *Ledger     { return d.ledger }

// AddLineItem appends a line for the product with count 1 and the
// product's current price as an independently editable snapshot, and
// reserves one unit.
func (d *Draft) AddLineItem(productID int64) (LineItem, error) {
	if d.state != StateEditing {
		return LineItem{}, ErrNotEditing
	}
	p := d.ledger.Product(productID)
	if p == nil {
		return LineItem{}, ErrUnknownProduct
	}
	d.nextKey++
	li := &LineItem{
		OrderLineItem: orders.OrderLineItem{
			ID:          orders.UnsavedID,
			OrderID:     d.order.ID,
			ProductID:   p.ID,
			Price:       p.Price,
			Count:       1,
			Name:        p.Name,
			Description: p.Description,
		},
		Key: d.nextKey,
	}
	d.items = append(d.items, li)
	d.ledger.Reserve(p.ID, 1)
	return *li, nil
}

func (d *Draft) IncreaseCount(key int) error { return d.bump(key, +1) }

// DecreaseCount does not clamp at zero; the core tracks whatever the
// user asked for and leaves clamping to the UI.
func (d *Draft) DecreaseCount(key int) error { return d.bump(key, -1) }

func (d *Draft) bump(key, delta int) error {
	if d.state != StateEditing {
		return ErrNotEditing
	}
	li := d.find(key)
	if li == nil {
		return ErrNoSuchItem
	}
	li.Count += delta
	d.ledger.Adjust(li.ProductID, delta)
	return nil
}

// EditLineItem replaces comment and price directly and resizes count via
// a single ledger adjustment (delta = new − old), so a multi-unit resize
// never decomposes into per-unit steps.
func (d *Draft) EditLineItem(key int, comment string, price money.Money, count int) error {
	if d.state != StateEditing {
		return ErrNotEditing
	}
	li := d.find(key)
	if li == nil {
		return ErrNoSuchItem
	}
	li.Comment = comment
	li.Price = price
	delta := count - li.Count
	li.Count = count
	d.ledger.Adjust(li.ProductID, delta)
	return nil
}

// RemoveLineItem releases the line's full reservation and stages the
// row for deletion at commit. Nothing is deleted now; cancel leaves the
// stored row untouched.
func (d *Draft) RemoveLineItem(key int) error {
	if d.state != StateEditing {
		return ErrNotEditing
	}
	for i, li := range d.items {
		if li.Key == key {
			d.items = append(d.items[:i], d.items[i+1:]...)
			d.removed = append(d.removed, li)
			d.ledger.Release(li.ProductID, li.Count)
			return nil
		}
	}
	return ErrNoSuchItem
}

// Item returns a copy of one live line.
func (d *Draft) Item(key int) (LineItem, error) {
	if li := d.find(key); li != nil {
		return *li, nil
	}
	return LineItem{}, ErrNoSuchItem
}

// Items returns copies of the live lines in order.
func (d *Draft) Items() []LineItem {
	out := make([]LineItem, 0, len(d.items))
	for _, li := range d.items {
		out = append(out, *li)
	}
	return out
}

// Total is a pure projection over the live lines: Σ price × count,
// recomputed from scratch every time so repeated add/remove cycles
// cannot drift. Pending-delete lines do not count.
func (d *Draft) Total() money.Money {
	t := money.Zero()
	for _, li := range d.items {
		t = t.Add(li.Subtotal())
	}
	return t
}

func (d *Draft) SetHeader(description string, customerID int64) error {
	if d.state != StateEditing {
		return ErrNotEditing
	}
	d.order.Description = description
	d.order.CustomerID = customerID
	return nil
}

func (d *Draft) SetStatus(s orders.Status) error {
	if d.state != StateEditing {
		return ErrNotEditing
	}
	if !orders.CanTransition(d.order.Status, s) {
		return ErrBadTransition
	}
	d.order.Status = s
	return nil
}

// Commit hands the whole session to the gateway as one unit: header,
// live lines, deferred deletions, dirty stock. On success the draft is
// terminal; on failure it stays editable (the gateway rolled back) and
// the error is surfaced, never swallowed.
func (d *Draft) Commit(ctx context.Context, gw Gateway) (orders.Order, error) {
	if d.state != StateEditing {
		return orders.Order{}, ErrNotEditing
	}

	c := orders.Commit{Order: d.order, Dirty: d.ledger.DirtyProducts()}
	for _, li := range d.items {
		c.Items = append(c.Items, li.OrderLineItem)
	}
	for _, li := range d.removed {
		if li.ID != orders.UnsavedID {
			c.Deleted = append(c.Deleted, li.ID)
		}
	}

	o, err := gw.CommitDraft(ctx, c)
	if err != nil {
		return orders.Order{}, err
	}
	d.order = o
	d.state = StateCommitted
	return o, nil
}

// Cancel discards every tentative change. The catalog copies die with
// the ledger; a fresh load observes the pre-session stock.
func (d *Draft) Cancel() {
	d.state = StateCancelled
	d.items = nil
	d.removed = nil
	d.ledger = NewLedger(nil)
}

func (d *Draft) find(key int) *LineItem {
	for _, li := range d.items {
		if li.Key == key {
			return li
		}
	}
	return nil
}
