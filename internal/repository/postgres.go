package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"canteen-connect/internal/domain"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository holds the durable side of the system: orders, order
// items and the menu catalog.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(url string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(migrationsDir string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDir),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// CreateOrder inserts the order and all of its items in one transaction.
// A paid order with no items must never exist, so a failed item insert rolls
// everything back.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders
		(id, user_id, canteen_id, total_amount, status, payment_status,
		 gateway_order_id, gateway_payment_id, gateway_signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`

	_, insertErr := tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.UserID,
		order.CanteenID,
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		order.GatewayOrderID,
		order.GatewayPaymentID,
		order.GatewaySignature,
	)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	itemQuery := `INSERT INTO order_items
		(id, order_id, menu_item_id, quantity, price_at_time, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.MenuItemID, item.Quantity, item.PriceAtTime,
		); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.MenuItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, user_id, canteen_id, total_amount, status, payment_status,
		gateway_order_id, gateway_payment_id, gateway_signature, created_at
		FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.CanteenID,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.GatewayOrderID,
		&order.GatewayPaymentID,
		&order.GatewaySignature,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	items, err := r.orderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *PostgresRepository) orderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT oi.id, oi.order_id, oi.menu_item_id, mi.name, oi.quantity, oi.price_at_time, oi.created_at
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.ItemName,
			&item.Quantity, &item.PriceAtTime, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, canteen_id, total_amount, status, payment_status,
		gateway_order_id, gateway_payment_id, gateway_signature, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	return r.listOrders(ctx, query, userID)
}

func (r *PostgresRepository) ListPaidOrdersByCanteen(ctx context.Context, canteenID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, canteen_id, total_amount, status, payment_status,
		gateway_order_id, gateway_payment_id, gateway_signature, created_at
		FROM orders WHERE canteen_id = $1 AND payment_status = 'paid'
		ORDER BY created_at DESC`

	return r.listOrders(ctx, query, canteenID)
}

func (r *PostgresRepository) listOrders(ctx context.Context, query string, arg any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.CanteenID,
			&order.TotalAmount,
			&order.Status,
			&order.PaymentStatus,
			&order.GatewayOrderID,
			&order.GatewayPaymentID,
			&order.GatewaySignature,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		items, err := r.orderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// PaidOrderTotals returns total_amount of each paid order for the canteen in
// [from, to), filtered server-side for the analytics projection.
func (r *PostgresRepository) PaidOrderTotals(ctx context.Context, canteenID string, from, to time.Time) ([]float64, error) {
	query := `SELECT total_amount FROM orders
		WHERE canteen_id = $1 AND payment_status = 'paid'
		AND created_at >= $2 AND created_at < $3`

	rows, err := r.db.QueryContext(ctx, query, canteenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query paid order totals: %w", err)
	}
	defer rows.Close()

	var totals []float64
	for rows.Next() {
		var t float64
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan order total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return totals, nil
}

// ItemQuantities returns (item name, quantity) rows of paid orders for the
// canteen in [from, to), ordered by purchase time so that ranking ties stay
// stable.
func (r *PostgresRepository) ItemQuantities(ctx context.Context, canteenID string, from, to time.Time) ([]ItemQuantity, error) {
	query := `SELECT mi.name, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE o.canteen_id = $1 AND o.payment_status = 'paid'
		AND o.created_at >= $2 AND o.created_at < $3
		ORDER BY o.created_at, oi.created_at`

	rows, err := r.db.QueryContext(ctx, query, canteenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query item quantities: %w", err)
	}
	defer rows.Close()

	var result []ItemQuantity
	for rows.Next() {
		var iq ItemQuantity
		if err := rows.Scan(&iq.Name, &iq.Quantity); err != nil {
			return nil, fmt.Errorf("scan item quantity row: %w", err)
		}
		result = append(result, iq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListCanteens(ctx context.Context) ([]*domain.Canteen, error) {
	query := `SELECT id, name, COALESCE(location, ''), created_at FROM canteens ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query canteens: %w", err)
	}
	defer rows.Close()

	var canteens []*domain.Canteen
	for rows.Next() {
		var c domain.Canteen
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan canteen row: %w", err)
		}
		canteens = append(canteens, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return canteens, nil
}

func (r *PostgresRepository) ListMenuItems(ctx context.Context, canteenID string) ([]*domain.MenuItem, error) {
	query := `SELECT id, name, category, price, COALESCE(description, ''), is_available, canteen_id, created_at
		FROM menu_items WHERE canteen_id = $1 AND is_available = TRUE
		ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, canteenID)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Category, &item.Price,
			&item.Description, &item.IsAvailable, &item.CanteenID, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan menu item row: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) GetMenuItem(ctx context.Context, itemID string) (*domain.MenuItem, error) {
	query := `SELECT id, name, category, price, COALESCE(description, ''), is_available, canteen_id, created_at
		FROM menu_items WHERE id = $1`

	var item domain.MenuItem
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID, &item.Name, &item.Category, &item.Price,
		&item.Description, &item.IsAvailable, &item.CanteenID, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item: %w", err)
	}

	return &item, nil
}
