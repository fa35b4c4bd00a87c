package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Order, []Line, error) {
	const orderQuery = `
SELECT id, user_id, status, total_price, created_at
FROM orders
WHERE id = $1
`
	var o Order
	err := p.db.QueryRow(ctx, orderQuery, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, ErrFailedToFindOrder
	}

	lines, err := p.linesByOrderIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, nil, err
	}
	return &o, lines[id], nil
}

func (p *PgStore) FindOrdersByUserID(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]OrderWithLines, int64, error) {
	const pageQuery = `
SELECT id, user_id, status, total_price, created_at
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := p.db.Query(ctx, pageQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, ErrFailedToFindUserOrders
	}
	defer rows.Close()

	var orders []Order
	var ids []uuid.UUID
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, 0, ErrFailedToFindUserOrders
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, ErrFailedToFindUserOrders
	}

	var total int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, ErrFailedToFindUserOrders
	}

	lineMap := map[uuid.UUID][]Line{}
	if len(ids) > 0 {
		lineMap, err = p.linesByOrderIDs(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
	}

	result := make([]OrderWithLines, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderWithLines{Order: o, Lines: lineMap[o.ID]})
	}
	return result, total, nil
}

// linesByOrderIDs loads lines for a set of orders, product name joined in.
func (p *PgStore) linesByOrderIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Line, error) {
	const q = `
SELECT op.order_id, op.product_id, pr.name, op.price, op.quantity
FROM order_products op
JOIN products pr ON pr.id = op.product_id
WHERE op.order_id = ANY($1)
ORDER BY pr.name
`
	rows, err := p.db.Query(ctx, q, ids)
	if err != nil {
		return nil, ErrFailedToFindOrderLines
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]Line)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductName, &l.Price, &l.Quantity); err != nil {
			return nil, ErrFailedToFindOrderLines
		}
		result[l.OrderID] = append(result[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrFailedToFindOrderLines
	}
	return result, nil
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return ErrTransactionBegin
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return ErrTransactionCommit
	}

	return nil
}

// pgTx implements TxStore on top of a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) ProductsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	// Row locks are the concurrency control for placement: two transactions
	// requesting the same product serialize here, so the loser observes the
	// already-decremented stock.
	const q = `
SELECT id, name, price, quantity
FROM products
WHERE id = ANY($1)
FOR UPDATE
`
	rows, err := t.tx.Query(ctx, q, ids)
	if err != nil {
		return nil, ErrFailedToFindProducts
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, ErrFailedToFindProducts
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrFailedToFindProducts
	}
	return products, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, userID uuid.UUID, status string, totalPrice decimal.Decimal) (*Order, error) {
	const q = `
INSERT INTO orders (user_id, status, total_price)
VALUES ($1, $2, $3)
RETURNING id, user_id, status, total_price, created_at
`
	var o Order
	err := t.tx.QueryRow(ctx, q, userID, status, totalPrice).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		return nil, ErrCreateOrder
	}
	return &o, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID uuid.UUID, by int32) error {
	// The CHECK (quantity >= 0) constraint backstops the availability filter.
	const q = `UPDATE products SET quantity = quantity - $2 WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, productID, by)
	if err != nil || tag.RowsAffected() == 0 {
		return ErrDecrementStock
	}
	return nil
}

func (t *pgTx) InsertLine(ctx context.Context, line Line) error {
	const q = `
INSERT INTO order_products (order_id, product_id, price, quantity)
VALUES ($1, $2, $3, $4)
`
	if _, err := t.tx.Exec(ctx, q, line.OrderID, line.ProductID, line.Price, line.Quantity); err != nil {
		return ErrCreateOrderLine
	}
	return nil
}
