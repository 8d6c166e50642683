package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yzzyx/invoice/internal/catalog"
	"github.com/yzzyx/invoice/internal/money"
)

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: 1, Name: "Produkt 1", Price: money.MustParse("50.50"), Stock: 10, Physical: true},
		{ID: 2, Name: "Produkt 2", Price: money.MustParse("202.50"), Stock: 5, Physical: true},
		{ID: 3, Name: "Support hours", Price: money.MustParse("800.00"), Stock: 0, Physical: false},
	}
}

func TestReserveRelease(t *testing.T) {
	l := NewLedger(testProducts())

	l.Reserve(1, 1)
	l.Reserve(1, 2)
	assert.Equal(t, -3, l.Delta(1))
	assert.Equal(t, 7, l.Product(1).Stock)

	l.Release(1, 2)
	assert.Equal(t, -1, l.Delta(1))
	assert.Equal(t, 9, l.Product(1).Stock)
}

func TestNonPhysicalNeverTracked(t *testing.T) {
	l := NewLedger(testProducts())

	l.Reserve(3, 5)
	l.Adjust(3, 2)
	assert.Equal(t, 0, l.Delta(3))
	assert.Equal(t, 0, l.Product(3).Stock)
	assert.Empty(t, l.DirtyProducts())
}

func TestAdjustSigns(t *testing.T) {
	l := NewLedger(testProducts())

	// positive delta reserves, negative releases
	l.Adjust(2, 3)
	assert.Equal(t, -3, l.Delta(2))
	assert.Equal(t, 2, l.Product(2).Stock)

	l.Adjust(2, -1)
	assert.Equal(t, -2, l.Delta(2))
	assert.Equal(t, 3, l.Product(2).Stock)

	l.Adjust(2, 0)
	assert.Equal(t, -2, l.Delta(2))
}

func TestStockMayGoNegative(t *testing.T) {
	l := NewLedger(testProducts())

	l.Reserve(2, 8) // only 5 in stock; no clamping, no error
	assert.Equal(t, -3, l.Product(2).Stock)
	assert.Equal(t, -8, l.Delta(2))
}

func TestDirtyProductsIsExactlyTheChangedSet(t *testing.T) {
	l := NewLedger(testProducts())

	l.Reserve(2, 1)
	l.Reserve(1, 1)
	l.Release(1, 1) // back to baseline but still touched, still dirty

	dirty := l.DirtyProducts()
	require.Len(t, dirty, 2)
	assert.Equal(t, int64(1), dirty[0].ID)
	assert.Equal(t, int64(2), dirty[1].ID)
	assert.Equal(t, 10, dirty[0].Stock)
	assert.Equal(t, 4, dirty[1].Stock)
}

func TestLedgerCopiesBaseline(t *testing.T) {
	products := testProducts()
	l := NewLedger(products)

	l.Reserve(1, 10)
	// the caller's slice is untouched; only session copies move
	assert.Equal(t, 10, products[0].Stock)
	assert.Equal(t, 0, l.Product(1).Stock)
}

func TestUnknownProductIgnored(t *testing.T) {
	l := NewLedger(testProducts())
	l.Reserve(99, 1)
	assert.Equal(t, 0, l.Delta(99))
	assert.Empty(t, l.DirtyProducts())
}
