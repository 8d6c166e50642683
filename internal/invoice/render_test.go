package invoice

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yzzyx/invoice/internal/customers"
	"github.com/yzzyx/invoice/internal/money"
	"github.com/yzzyx/invoice/internal/orders"
)

func TestRender(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{Dir: dir}

	o := orders.Order{ID: 42, Description: "spring order", CustomerID: 1, Status: orders.StatusNew}
	c := customers.Customer{
		Name:      "Kund AB",
		Reference: "PO-1178",
		Address1:  "Storgatan 1",
		Postcode:  "114 32",
		City:      "Stockholm",
	}
	items := []orders.OrderLineItem{
		{ProductID: 1, Name: "Produkt 1", Price: money.MustParse("50.50"), Count: 2},
		{ProductID: 2, Name: "Produkt 2", Price: money.MustParse("202.50"), Count: 1, Comment: "rush"},
	}

	name, err := r.Render(o, c, items)
	require.NoError(t, err)

	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "invoice-"+date+"-42.txt", name)

	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, "INVOICE 42")
	assert.Contains(t, out, "Kund AB")
	assert.Contains(t, out, "Ref: PO-1178")
	assert.Contains(t, out, "114 32 Stockholm")
	assert.Contains(t, out, "Produkt 2 - rush")
	assert.Contains(t, out, "Total: 303.50")
}

func TestRenderSkipsEmptyCustomerLines(t *testing.T) {
	r := &Renderer{Dir: t.TempDir()}

	o := orders.Order{ID: 7}
	c := customers.Customer{Name: "Bare AB"}
	name, err := r.Render(o, c, nil)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(r.Dir, name))
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, "Bare AB")
	assert.NotContains(t, out, "Ref:")
	assert.Contains(t, out, "Total: 0.00")
}
