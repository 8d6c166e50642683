package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yzzyx/invoice/internal/catalog"
	"github.com/yzzyx/invoice/internal/money"
)

var ErrNotFound = errors.New("orders: not found")

// PersistenceError wraps a failed storage call during commit so callers
// can tell it apart from validation problems.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("orders: persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Repo struct{ DB *pgxpool.Pool }

// Commit is everything a draft session hands over at confirmation time:
// the header, the surviving line items, the ids staged for deletion and
// the catalog copies whose stock changed.
type Commit struct {
	Order   Order
	Items   []OrderLineItem
	Deleted []int64
	Dirty   []catalog.Product
}

type Filter struct {
	Status Status
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, description, customer_id, status, COALESCE(invoice_file,''), created_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC`, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, description, customer_id, status, COALESCE(invoice_file,''), created_at
		FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// LineItems loads an order's rows with product name/description joined
// in for display. Orphaned rows (product deleted) still come back, with
// empty display fields.
func (r *Repo) LineItems(ctx context.Context, orderID int64) ([]OrderLineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT op.id, op.order_id, op.product_id, op.price::text, op.count, op.comment,
		       COALESCE(p.name,''), COALESCE(p.description,'')
		FROM order_products op
		LEFT JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY op.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLineItem
	for rows.Next() {
		var (
			li    OrderLineItem
			price string
		)
		if err := rows.Scan(&li.ID, &li.OrderID, &li.ProductID, &price, &li.Count,
			&li.Comment, &li.Name, &li.Description); err != nil {
			return nil, err
		}
		if li.Price, err = money.Parse(price); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// CommitDraft persists header, line items, deferred deletions and dirty
// stock as one transaction. Order of operations: header first (a new
// order needs its id before its items), then item upserts, then
// deletions, then stock. Any failure rolls the whole commit back.
func (r *Repo) CommitDraft(ctx context.Context, c Commit) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, &PersistenceError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := c.Order
	if o.ID == UnsavedID {
		err = tx.QueryRow(ctx, `
			INSERT INTO orders(description, customer_id, status)
			VALUES ($1,$2,$3)
			RETURNING id, created_at`,
			o.Description, o.CustomerID, string(o.Status)).Scan(&o.ID, &o.CreatedAt)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE orders SET description=$2, customer_id=$3, status=$4
			WHERE id=$1`,
			o.ID, o.Description, o.CustomerID, string(o.Status))
	}
	if err != nil {
		return Order{}, &PersistenceError{Op: "order header", Err: err}
	}

	for i := range c.Items {
		it := &c.Items[i]
		if it.ID == UnsavedID {
			// prices travel as text, cast server-side, so numeric
			// columns never round-trip through binary floats
			err = tx.QueryRow(ctx, `
				INSERT INTO order_products(order_id, product_id, price, count, comment)
				VALUES ($1,$2,$3::numeric,$4,$5)
				RETURNING id`,
				o.ID, it.ProductID, it.Price.String(), it.Count, it.Comment).Scan(&it.ID)
			it.OrderID = o.ID
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE order_products SET price=$2::numeric, count=$3, comment=$4
				WHERE id=$1`,
				it.ID, it.Price.String(), it.Count, it.Comment)
		}
		if err != nil {
			return Order{}, &PersistenceError{Op: fmt.Sprintf("line item product=%d", it.ProductID), Err: err}
		}
	}

	for _, id := range c.Deleted {
		if _, err := tx.Exec(ctx, `DELETE FROM order_products WHERE id=$1`, id); err != nil {
			return Order{}, &PersistenceError{Op: fmt.Sprintf("delete line item %d", id), Err: err}
		}
	}

	for _, p := range c.Dirty {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`,
			p.ID, p.Stock); err != nil {
			return Order{}, &PersistenceError{Op: fmt.Sprintf("stock product=%d", p.ID), Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, &PersistenceError{Op: "commit", Err: err}
	}
	return o, nil
}

// SetInvoiceFile records the rendered invoice on an order and advances
// its status. Used by the invoice worker, never by the draft core.
func (r *Repo) SetInvoiceFile(ctx context.Context, orderID int64, file string, status Status) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET invoice_file=$2, status=$3 WHERE id=$1`,
		orderID, file, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.Description, &o.CustomerID, &status, &o.InvoiceFile, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if o.Status, err = ParseStatus(status); err != nil {
		return Order{}, err
	}
	return o, nil
}
