package repository

import (
	"strings"

	"github.com/agunghasbi/be-ekuator/internal/domain"
)

// ListQuery describes one page of a sorted listing. OrderBy names the column
// and SortBy the direction, mirroring the public query parameters.
type ListQuery struct {
	Page    int
	Limit   int
	OrderBy string
	SortBy  string
}

// Normalize fills defaults, caps the page size and resolves OrderBy through
// the allowed column whitelist.
func (q ListQuery) Normalize(allowed map[string]string, defaultLimit, maxLimit int) (ListQuery, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	field := strings.ToLower(strings.TrimSpace(q.OrderBy))
	if field == "" {
		field = "id"
	}
	col, ok := allowed[field]
	if !ok {
		return q, domain.ErrInvalidSort
	}
	q.OrderBy = col

	switch dir := strings.ToLower(strings.TrimSpace(q.SortBy)); dir {
	case "":
		q.SortBy = "desc"
	case "asc", "desc":
		q.SortBy = dir
	default:
		return q, domain.ErrInvalidSort
	}
	return q, nil
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// OrderClause must only be called on a normalized query.
func (q ListQuery) OrderClause() string {
	return q.OrderBy + " " + strings.ToUpper(q.SortBy)
}

var ProductSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"price":      "price",
	"quantity":   "quantity",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

var TransactionSortColumns = map[string]string{
	"id":         "id",
	"user_id":    "user_id",
	"product_id": "product_id",
	"price":      "price",
	"quantity":   "quantity",
	"tax":        "tax",
	"admin_fee":  "admin_fee",
	"total":      "total",
	"created_at": "created_at",
}
