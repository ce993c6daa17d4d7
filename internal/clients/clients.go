// Package clients holds the synchronous lookups the order orchestrator
// performs against the user and product services. Both are plain
// request/response calls with no state on this side.
package clients

import "context"

type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Active     bool   `json:"active"`
}

type Users interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

type Products interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
}
