package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
)

// fakeGateway records commits and hands out ids like the real repo.
type fakeGateway struct {
	commits  []orders.Commit
	nextID   int64
	failWith error
}

func (g *fakeGateway) CommitDraft(_ context.Context, c orders.Commit) (orders.Order, error) {
	if g.failWith != nil {
		return orders.Order{}, g.failWith
	}
	g.commits = append(g.commits, c)
	o := c.Order
	if o.ID == orders.UnsavedID {
		g.nextID++
		o.ID = g.nextID
		o.CreatedAt = time.Now()
	}
	return o, nil
}

func TestAddLineItem(t *testing.T) {
	d := New(testProducts())

	li, err := d.AddLineItem(1)
	require.NoError(t, err)
	assert.Equal(t, orders.UnsavedID, li.ID)
	assert.Equal(t, 1, li.Count)
	assert.Equal(t, "Produkt 1", li.Name)
	assert.True(t, li.Price.Equal(money.MustParse("50.50")))
	assert.Equal(t, -1, d.Ledger().Delta(1))
	assert.Equal(t, 9, d.Ledger().Product(1).Stock)

	_, err = d.AddLineItem(99)
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestLineItemPriceIsASnapshot(t *testing.T) {
	d := New(testProducts())
	li, err := d.AddLineItem(1)
	require.NoError(t, err)

	// editing the line price never touches the catalog copy
	require.NoError(t, d.EditLineItem(li.Key, "", money.MustParse("45.00"), 1))
	got, err := d.Item(li.Key)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(money.MustParse("45.00")))
	assert.True(t, d.Ledger().Product(1).Price.Equal(money.MustParse("50.50")))
}

func TestReservationCorrectness(t *testing.T) {
	d := New(testProducts())

	li, err := d.AddLineItem(1)
	require.NoError(t, err)
	require.NoError(t, d.IncreaseCount(li.Key))
	require.NoError(t, d.IncreaseCount(li.Key))
	assert.Equal(t, -3, d.Ledger().Delta(1))

	// same sequence on a non-physical product moves nothing
	svc, err := d.AddLineItem(3)
	require.NoError(t, err)
	require.NoError(t, d.IncreaseCount(svc.Key))
	require.NoError(t, d.IncreaseCount(svc.Key))
	assert.Equal(t, 0, d.Ledger().Delta(3))
}

func TestEditAtomicity(t *testing.T) {
	// edit 2 -> 5 must land on the same delta as three +1 steps
	a := New(testProducts())
	la, _ := a.AddLineItem(1)
	require.NoError(t, a.IncreaseCount(la.Key)) // count 2
	require.NoError(t, a.EditLineItem(la.Key, "", money.MustParse("50.50"), 5))

	b := New(testProducts())
	lb, _ := b.AddLineItem(1)
	require.NoError(t, b.IncreaseCount(lb.Key))
	require.NoError(t, b.IncreaseCount(lb.Key))
	require.NoError(t, b.IncreaseCount(lb.Key))
	require.NoError(t, b.IncreaseCount(lb.Key)) // count 5

	assert.Equal(t, -5, a.Ledger().Delta(1))
	assert.Equal(t, a.Ledger().Delta(1), b.Ledger().Delta(1))
	assert.Equal(t, a.Ledger().Product(1).Stock, b.Ledger().Product(1).Stock)
}

func TestDecreaseBelowZeroNotPrevented(t *testing.T) {
	d := New(testProducts())
	li, _ := d.AddLineItem(1)
	require.NoError(t, d.DecreaseCount(li.Key))
	require.NoError(t, d.DecreaseCount(li.Key))

	got, err := d.Item(li.Key)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Count)
	assert.Equal(t, 1, d.Ledger().Delta(1)) // net release of one unit
}

func TestTotalProjection(t *testing.T) {
	d := New(testProducts())
	li1, _ := d.AddLineItem(1)
	require.NoError(t, d.IncreaseCount(li1.Key)) // 50.50 x 2
	_, err := d.AddLineItem(2)                   // 202.50 x 1
	require.NoError(t, err)

	assert.Equal(t, "303.50", d.Total().String())
	// idempotent: recomputing without a mutation yields the same value
	assert.True(t, d.Total().Equal(d.Total()))
}

func TestDeferredDeletion(t *testing.T) {
	existing := []orders.OrderLineItem{
		{ID: 11, OrderID: 7, ProductID: 1, Price: money.MustParse("50.50"), Count: 2, Name: "Produkt 1"},
		{ID: 12, OrderID: 7, ProductID: 2, Price: money.MustParse("202.50"), Count: 1, Name: "Produkt 2"},
	}
	o := orders.Order{ID: 7, Status: orders.StatusNew, CustomerID: 1}
	d := Load(o, existing, testProducts())

	items := d.Items()
	require.Len(t, items, 2)
	require.NoError(t, d.RemoveLineItem(items[0].Key))

	// gone from the live total immediately
	assert.Equal(t, "202.50", d.Total().String())
	assert.Len(t, d.Items(), 1)
	// full count released back to the session copy
	assert.Equal(t, 2, d.Ledger().Delta(1))

	// the row is only deleted at commit
	gw := &fakeGateway{}
	_, err := d.Commit(context.Background(), gw)
	require.NoError(t, err)
	require.Len(t, gw.commits, 1)
	assert.Equal(t, []int64{11}, gw.commits[0].Deleted)
}

func TestRemovedUnsavedItemNeedsNoDeletion(t *testing.T) {
	d := New(testProducts())
	li, _ := d.AddLineItem(1)
	require.NoError(t, d.RemoveLineItem(li.Key))

	gw := &fakeGateway{}
	_, err := d.Commit(context.Background(), gw)
	require.NoError(t, err)
	assert.Empty(t, gw.commits[0].Deleted)
}

func TestStockConservationOnCancel(t *testing.T) {
	products := testProducts()
	d := New(products)

	li, _ := d.AddLineItem(1)
	require.NoError(t, d.IncreaseCount(li.Key))
	li2, _ := d.AddLineItem(2)
	require.NoError(t, d.EditLineItem(li2.Key, "", money.MustParse("200"), 4))
	require.NoError(t, d.RemoveLineItem(li.Key))

	d.Cancel()
	assert.Equal(t, StateCancelled, d.State())

	// nothing leaked: the baseline the next session loads is untouched
	assert.Equal(t, 10, products[0].Stock)
	assert.Equal(t, 5, products[1].Stock)
	assert.Empty(t, d.Ledger().DirtyProducts())
}

func TestCommitCarriesHeaderItemsAndDirtyStock(t *testing.T) {
	d := New(testProducts())
	require.NoError(t, d.SetHeader("spring order", 3))
	li, _ := d.AddLineItem(1)
	require.NoError(t, d.IncreaseCount(li.Key))
	_, err := d.AddLineItem(3) // non-physical, must not appear in dirty
	require.NoError(t, err)

	gw := &fakeGateway{}
	o, err := d.Commit(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, d.State())
	assert.Equal(t, int64(1), o.ID)

	c := gw.commits[0]
	assert.Equal(t, "spring order", c.Order.Description)
	assert.Equal(t, int64(3), c.Order.CustomerID)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 2, c.Items[0].Count)
	require.Len(t, c.Dirty, 1)
	assert.Equal(t, int64(1), c.Dirty[0].ID)
	assert.Equal(t, 8, c.Dirty[0].Stock)
}

func TestCommitFailureLeavesDraftEditable(t *testing.T) {
	d := New(testProducts())
	_, err := d.AddLineItem(1)
	require.NoError(t, err)

	gw := &fakeGateway{failWith: &orders.PersistenceError{Op: "order header", Err: errors.New("boom")}}
	_, err = d.Commit(context.Background(), gw)
	var pe *orders.PersistenceError
	require.ErrorAs(t, err, &pe)

	// the gateway rolled back, so the draft stays usable
	assert.Equal(t, StateEditing, d.State())
	require.NoError(t, d.IncreaseCount(d.Items()[0].Key))
}

func TestTerminalStatesRejectMutation(t *testing.T) {
	d := New(testProducts())
	li, _ := d.AddLineItem(1)
	_, err := d.Commit(context.Background(), &fakeGateway{})
	require.NoError(t, err)

	assert.ErrorIs(t, d.IncreaseCount(li.Key), ErrNotEditing)
	_, err = d.AddLineItem(2)
	assert.ErrorIs(t, err, ErrNotEditing)
	_, err = d.Commit(context.Background(), &fakeGateway{})
	assert.ErrorIs(t, err, ErrNotEditing)

	c := New(testProducts())
	c.Cancel()
	assert.ErrorIs(t, c.SetHeader("x", 1), ErrNotEditing)
}

func TestStatusTransitions(t *testing.T) {
	d := New(testProducts())
	assert.ErrorIs(t, d.SetStatus(orders.StatusPaid), ErrBadTransition)
	require.NoError(t, d.SetStatus(orders.StatusOngoing))
	require.NoError(t, d.SetStatus(orders.StatusPaid))
	assert.ErrorIs(t, d.SetStatus(orders.StatusNew), ErrBadTransition)
}

func TestRoundTrip(t *testing.T) {
	// commit N lines, reload them into a fresh draft, compare by
	// product, count, price and comment
	d := New(testProducts())
	require.NoError(t, d.SetHeader("round trip", 2))
	li1, _ := d.AddLineItem(1)
	require.NoError(t, d.EditLineItem(li1.Key, "first", money.MustParse("50.50"), 2))
	li2, _ := d.AddLineItem(2)
	require.NoError(t, d.EditLineItem(li2.Key, "", money.MustParse("199.00"), 1))

	gw := &fakeGateway{}
	o, err := d.Commit(context.Background(), gw)
	require.NoError(t, err)

	// replay what the gateway stored, as orders.Repo would on load
	stored := gw.commits[0].Items
	for i := range stored {
		stored[i].ID = int64(100 + i)
		stored[i].OrderID = o.ID
	}
	reloaded := Load(o, stored, testProducts())

	got := reloaded.Items()
	require.Len(t, got, 2)
	for i, want := range []struct {
		productID int64
		count     int
		price     string
		comment   string
	}{
		{1, 2, "50.50", "first"},
		{2, 1, "199.00", ""},
	} {
		assert.Equal(t, want.productID, got[i].ProductID)
		assert.Equal(t, want.count, got[i].Count)
		assert.Equal(t, want.price, got[i].Price.String())
		assert.Equal(t, want.comment, got[i].Comment)
	}
	// loading an existing order reserves nothing
	assert.Equal(t, 0, reloaded.Ledger().Delta(1))
	assert.Equal(t, "300.00", reloaded.Total().String())
}

func TestSessions(t *testing.T) {
	ss := NewSessions()
	s := ss.Open(New(testProducts()))
	require.NotEmpty(t, s.ID)

	got, err := ss.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	snap := s.Snapshot()
	assert.Equal(t, "editing", snap.State)
	assert.Equal(t, "0.00", snap.Total.String())

	ss.Close(s.ID)
	_, err = ss.Get(s.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}
