package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/craftisland/internal/apperr"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertOrderQuery = `
		INSERT INTO orders (user_id, total, status, shipping_details, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	insertItemQuery = `
		INSERT INTO order_items (order_id, product_id, qty, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	// floor at zero so concurrent orders can never drive stock negative
	decrementStockQuery = `UPDATE products SET stock = GREATEST(stock - $1, 0) WHERE id = $2`

	selectOrderColumns = `SELECT id, user_id, total, status, shipping_details, payment_method, created_at FROM orders`
	listByUserQuery    = selectOrderColumns + ` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	listAllQuery       = selectOrderColumns + ` ORDER BY created_at DESC, id DESC`
	getOrderQuery      = selectOrderColumns + ` WHERE id = $1`

	listItemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.qty, oi.price_at_purchase, p.name, p.image, p.category
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`
	updateStatusQuery    = `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`
	deleteItemsQuery     = `DELETE FROM order_items WHERE order_id = $1`
	deleteOrderQuery     = `DELETE FROM orders WHERE id = $1`
	deleteAllItemsQuery  = `DELETE FROM order_items`
	deleteAllOrdersQuery = `DELETE FROM orders`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Place writes order, items and stock decrements in one transaction.
func (r *PostgresRepository) Place(ctx context.Context, o Order) (Order, error) {
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return Order{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := tx.QueryRowContext(ctx, insertOrderQuery,
		o.UserID, o.Total, string(o.Status), shipping, o.PaymentMethod, o.CreatedAt,
	).Scan(&o.ID); err != nil {
		return Order{}, err
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		li := o.Items[i]
		if err := tx.QueryRowContext(ctx, insertItemQuery,
			o.ID, li.ProductID, li.Qty, li.PriceAtPurchase,
		).Scan(&o.Items[i].ID); err != nil {
			return Order{}, err
		}
	}

	// rows are locked in product id order so two orders cannot deadlock
	byProduct := make([]LineItem, len(o.Items))
	copy(byProduct, o.Items)
	sort.Slice(byProduct, func(i, j int) bool { return byProduct[i].ProductID < byProduct[j].ProductID })
	for _, li := range byProduct {
		if _, err := tx.ExecContext(ctx, decrementStockQuery, li.Qty, li.ProductID); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int) (Order, error) {
	orders, err := r.query(ctx, getOrderQuery, id)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.query(ctx, listByUserQuery, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.query(ctx, listAllQuery)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := map[int]int{}
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			o        Order
			status   string
			shipping []byte
			payment  sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &status, &shipping, &payment, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		o.PaymentMethod = payment.String
		if len(shipping) > 0 {
			if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
				return nil, err
			}
		}
		o.Items = []LineItem{}
		index[o.ID] = len(orders)
		ids = append(ids, int64(o.ID))
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, orders, index, ids); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders []Order, index map[int]int, ids []int64) error {
	rows, err := r.db.QueryContext(ctx, listItemsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			li                    LineItem
			price                 decimal.Decimal
			name, image, category sql.NullString
		)
		if err := rows.Scan(&li.ID, &li.OrderID, &li.ProductID, &li.Qty, &price, &name, &image, &category); err != nil {
			return err
		}
		li.PriceAtPurchase = price
		// a NULL name means the product row is gone
		if name.Valid {
			li.Product = &ProductSnapshot{ID: li.ProductID, Name: name.String, Image: image.String, Category: category.String}
		}
		if i, ok := index[li.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, li)
		}
	}
	return rows.Err()
}

// UpdateStatus is a compare-and-set on the status column, so two owners
// racing from the same status cannot both win.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	result, err := r.db.ExecContext(ctx, updateStatusQuery, string(to), id, string(from))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: order %d is no longer %s", apperr.ErrInvalidTransition, id, from)
	}
	return nil
}

func (r *PostgresRepository) DeleteItems(ctx context.Context, orderID int) error {
	_, err := r.db.ExecContext(ctx, deleteItemsQuery, orderID)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteOrderQuery, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) DeleteAllItems(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, deleteAllItemsQuery)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) DeleteAllOrders(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, deleteAllOrdersQuery)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

