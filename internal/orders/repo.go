package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const uniqueViolation = "23505"

// CreateGuestOrder persists the order and all its items in one transaction,
// so no itemless order is ever visible. The order number carries a unique
// constraint; on collision a fresh number is generated and the whole insert
// retried a bounded number of times.
func (r *Repo) CreateGuestOrder(ctx context.Context, o *Order, items []OrderItem) error {
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			num, nerr := NewOrderNumber(o.CreatedAt)
			if nerr != nil {
				return nerr
			}
			o.OrderNumber = num
		}
		err = r.insertGuestOrder(ctx, o, items)
		if err == nil {
			return nil
		}
		if !isOrderNumberConflict(err) {
			return err
		}
	}
	return fmt.Errorf("order number conflict after %d attempts: %w", maxAttempts, err)
}

func (r *Repo) insertGuestOrder(ctx context.Context, o *Order, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(
			id, order_number, customer_name, customer_email, customer_phone,
			shipping_address, payment_method, payment_status, status, notes,
			total_amount, guest_access_token, guest_token_expires_at, user_id,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NULL,$14,$14)
	`, o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingAddress, o.PaymentMethod, o.PaymentStatus, o.Status, o.Notes,
		o.TotalAmount, o.GuestAccessToken, o.GuestTokenExpiresAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, unit_price, total_price)
			VALUES ($1,$2,$3,$4,$5)`,
			it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "orders_order_number_key"
}

// GuestOrderByToken resolves a guest order by its access token. Orders owned
// by a user are never returned, whatever the caller presents.
func (r *Repo) GuestOrderByToken(ctx context.Context, token string) (*GuestOrderView, error) {
	return r.guestOrder(ctx, `guest_access_token = $1`, token)
}

// GuestOrderByNumberEmail resolves a guest order by order number plus the
// customer email it was placed with. Both must match exactly.
func (r *Repo) GuestOrderByNumberEmail(ctx context.Context, number, email string) (*GuestOrderView, error) {
	return r.guestOrder(ctx, `order_number = $1 AND customer_email = $2`, number, email)
}

func (r *Repo) guestOrder(ctx context.Context, where string, args ...any) (*GuestOrderView, error) {
	var v GuestOrderView
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_number, customer_name, customer_email, customer_phone,
		       shipping_address, payment_method, payment_status, status, notes,
		       total_amount, guest_token_expires_at, created_at, updated_at
		FROM orders
		WHERE `+where+` AND user_id IS NULL`, args...).
		Scan(&v.ID, &v.OrderNumber, &v.CustomerName, &v.CustomerEmail, &v.CustomerPhone,
			&v.ShippingAddress, &v.PaymentMethod, &v.PaymentStatus, &v.Status, &v.Notes,
			&v.TotalAmount, &v.GuestTokenExpiresAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT i.product_id, i.quantity, i.unit_price, i.total_price,
		       p.id, p.name, p.image, p.price
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1`, v.ID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItemView
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.Product.ID, &it.Product.Name, &it.Product.Image, &it.Product.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		v.Items = append(v.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	return &v, nil
}

// SweepEmptyOrders deletes orders that have no items and are older than the
// grace period. Creation is transactional, so this only catches writes that
// bypassed the service; it keeps the "no itemless order" invariant durable.
func (r *Repo) SweepEmptyOrders(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace)
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM orders o
		WHERE NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id)
		  AND o.created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep empty orders: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ListProducts returns the catalog projection consumed by the storefront and
// by the lookup join.
func (r *Repo) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, image, price FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductSummary
	for rows.Next() {
		var p ProductSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Image, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
