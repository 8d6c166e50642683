package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("customers: not found")

type Customer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	Postcode  string `json:"postcode"`
	City      string `json:"city"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, reference, address1, address2, postcode, city
	                              FROM customer ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Reference, &c.Address1, &c.Address2, &c.Postcode, &c.City); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.DB.QueryRow(ctx, `SELECT id, name, reference, address1, address2, postcode, city
	                           FROM customer WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Reference, &c.Address1, &c.Address2, &c.Postcode, &c.City)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}
