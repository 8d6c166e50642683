package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yzzyx/invoice/internal/money"
)

var ErrNotFound = errors.New("catalog: not found")

type Repo struct{ DB *pgxpool.Pool }

// Filter narrows List. Zero value lists everything.
type Filter struct {
	NameLike     string
	PhysicalOnly bool
}

// List returns value copies ordered by name. A draft session takes these
// copies as its baseline truth and is their only writer until commit.
func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT id, name, description, price::text, stock,
	             distributor_id, distributor_price::text, upc, physical_product,
	             created_at, updated_at
	      FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
	        AND (NOT $2 OR physical_product)
	      ORDER BY name`
	rows, err := r.DB.Query(ctx, q, f.NameLike, f.PhysicalOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT id, name, description, price::text, stock,
	                                  distributor_id, distributor_price::text, upc, physical_product,
	                                  created_at, updated_at
	                           FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) ListDistributors(ctx context.Context) ([]Distributor, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM distributor ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Distributor
	for rows.Next() {
		var d Distributor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// scanProduct is the one place a products row becomes a Product. Prices
// travel as text so numeric columns never round-trip through floats.
func scanProduct(row pgx.Row) (Product, error) {
	var (
		p          Product
		price      string
		distrPrice string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock,
		&p.DistributorID, &distrPrice, &p.UPC, &p.Physical,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if p.Price, err = money.Parse(price); err != nil {
		return Product{}, err
	}
	if p.DistributorPrice, err = money.Parse(distrPrice); err != nil {
		return Product{}, err
	}
	return p, nil
}
