package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const productColumns = `
p.id, p.category_id, c.name, p.name, COALESCE(p.description, ''), COALESCE(p.image, ''), p.price, p.quantity, p.created_at`

func (s *PgStore) FindProducts(ctx context.Context, filter Filter, limit, offset int32) ([]Product, int64, error) {
	where, args := buildWhere(filter)

	listQuery := fmt.Sprintf(`
SELECT %s
FROM products p
JOIN categories c ON c.id = p.category_id
%s
ORDER BY p.created_at DESC
LIMIT $%d OFFSET $%d
`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, ErrFailedToFindProducts
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows.Scan, &p); err != nil {
			return nil, 0, ErrFailedToFindProducts
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, ErrFailedToFindProducts
	}

	countQuery := fmt.Sprintf(`
SELECT COUNT(*)
FROM products p
JOIN categories c ON c.id = p.category_id
%s
`, where)
	var total int64
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, ErrFailedToFindProducts
	}

	return products, total, nil
}

func (s *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE p.id = $1
`, productColumns)

	var p Product
	if err := scanProduct(func(dest ...any) error {
		return s.db.QueryRow(ctx, query, id).Scan(dest...)
	}, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, ErrFailedToFindProducts
	}
	return &p, nil
}

func (s *PgStore) FindCategories(ctx context.Context) ([]Category, error) {
	const q = `
SELECT id, name, created_at
FROM categories
ORDER BY name
`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, ErrFailedToFindCategories
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, ErrFailedToFindCategories
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrFailedToFindCategories
	}
	return categories, nil
}

// buildWhere assembles the WHERE clause for a product filter.
func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	if len(filter.CategoryIDs) > 0 {
		args = append(args, filter.CategoryIDs)
		conditions = append(conditions, fmt.Sprintf("p.category_id = ANY($%d)", len(args)))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil {
		args = append(args, *filter.MinPrice, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("p.price BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanProduct(scan func(dest ...any) error, p *Product) error {
	return scan(&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description, &p.Image, &p.Price, &p.Quantity, &p.CreatedAt)
}
