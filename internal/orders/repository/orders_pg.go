package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabletap/internal/domain"
)

// SubmissionTx is the set of operations available inside one order
// submission transaction. The service runs the whole checkout against it;
// everything commits or rolls back together.
type SubmissionTx interface {
	GetActiveRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error)
	GetAvailableItems(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domain.MenuItem, error)
	// GetCustomerForUpdate row-locks the ledger so concurrent orders from the
	// same phone cannot lose updates.
	GetCustomerForUpdate(ctx context.Context, phone string) (domain.Customer, bool, error)
	CreateCustomer(ctx context.Context, c domain.Customer) error
	UpdateCustomer(ctx context.Context, c domain.Customer) error
	InsertOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	InsertOrderItems(ctx context.Context, items []domain.OrderItem) error
}

type OrdersRepositoryInterface interface {
	// Submit runs fn inside a single database transaction.
	Submit(ctx context.Context, fn func(tx SubmissionTx) error) error

	GetOrderView(ctx context.Context, orderID uuid.UUID) (domain.OrderView, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.OrderView, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.OrderView, error)

	// UpdateStatus is guarded by the expected current status; it reports
	// whether the row was actually moved.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, stampReady bool) (bool, error)

	GetRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error)
	GetCustomerByPhone(ctx context.Context, phone string) (domain.Customer, error)
}

type OrdersRepository struct {
	db *pgxpool.Pool
}

func NewOrdersRepository(db *pgxpool.Pool) OrdersRepositoryInterface {
	return &OrdersRepository{db: db}
}

func (r *OrdersRepository) Submit(ctx context.Context, fn func(tx SubmissionTx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&submissionTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}
	return nil
}

type submissionTx struct {
	tx pgx.Tx
}

func (s *submissionTx) GetActiveRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error) {
	var rest domain.Restaurant
	err := s.tx.QueryRow(ctx, `
		SELECT id, owner_id, name, address, phone, is_active, created_at, updated_at
		FROM restaurants WHERE id = $1 AND is_active
	`, id).Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address, &rest.Phone,
		&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Restaurant{}, fmt.Errorf("%w: restaurant", domain.ErrNotFound)
		}
		return domain.Restaurant{}, fmt.Errorf("%w: get restaurant: %v", domain.ErrStorage, err)
	}
	return rest, nil
}

// GetAvailableItems resolves prices server-side: only items that exist, belong
// to the restaurant and are currently available come back.
func (s *submissionTx) GetAvailableItems(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domain.MenuItem, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, name, price
		FROM menu_items
		WHERE restaurant_id = $1 AND is_available AND id = ANY($2)
	`, restaurantID, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve items: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.MenuItem, len(ids))
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", domain.ErrStorage, err)
		}
		out[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate items: %v", domain.ErrStorage, err)
	}
	return out, nil
}

func (s *submissionTx) GetCustomerForUpdate(ctx context.Context, phone string) (domain.Customer, bool, error) {
	var c domain.Customer
	err := s.tx.QueryRow(ctx, `
		SELECT id, name, phone, loyalty_points, total_orders, created_at, updated_at
		FROM customers WHERE phone = $1
		FOR UPDATE
	`, phone).Scan(&c.ID, &c.Name, &c.Phone, &c.LoyaltyPoints, &c.TotalOrders, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, false, nil
		}
		return domain.Customer{}, false, fmt.Errorf("%w: get customer: %v", domain.ErrStorage, err)
	}
	return c, true, nil
}

func (s *submissionTx) CreateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO customers (id, name, phone, loyalty_points, total_orders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, c.ID, c.Name, c.Phone, c.LoyaltyPoints, c.TotalOrders)
	if err != nil {
		return fmt.Errorf("%w: insert customer: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *submissionTx) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE customers
		SET name = $2, loyalty_points = $3, total_orders = $4, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.LoyaltyPoints, c.TotalOrders)
	if err != nil {
		return fmt.Errorf("%w: update customer: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *submissionTx) InsertOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO orders (id, restaurant_id, customer_id, table_number, status,
			total_amount, loyalty_points_earned, loyalty_points_used,
			special_instructions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.RestaurantID, o.CustomerID, o.TableNumber, o.Status,
		o.TotalAmount, o.LoyaltyPointsEarned, o.LoyaltyPointsUsed, o.SpecialInstructions).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: insert order: %v", domain.ErrStorage, err)
	}
	return o, nil
}

func (s *submissionTx) InsertOrderItems(ctx context.Context, items []domain.OrderItem) error {
	for _, it := range items {
		_, err := s.tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, name, quantity,
				unit_price, total_price, special_instructions, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		`, it.ID, it.OrderID, it.MenuItemID, it.Name, it.Quantity,
			it.UnitPrice, it.TotalPrice, it.SpecialInstructions)
		if err != nil {
			return fmt.Errorf("%w: insert order item %s: %v", domain.ErrStorage, it.Name, err)
		}
	}
	return nil
}

const orderCols = `o.id, o.restaurant_id, o.customer_id, o.table_number, o.status,
	o.total_amount, o.loyalty_points_earned, o.loyalty_points_used,
	o.special_instructions, o.estimated_ready_time, o.created_at, o.updated_at,
	COALESCE(c.name, ''), COALESCE(c.phone, '')`

func (r *OrdersRepository) GetOrderView(ctx context.Context, orderID uuid.UUID) (domain.OrderView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+orderCols+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, orderID)
	v, err := scanOrderView(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderView{}, fmt.Errorf("%w: order", domain.ErrNotFound)
		}
		return domain.OrderView{}, fmt.Errorf("%w: get order: %v", domain.ErrStorage, err)
	}
	items, err := r.orderItems(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	v.Items = items
	return v, nil
}

func (r *OrdersRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.OrderView, error) {
	return r.list(ctx, `
		SELECT `+orderCols+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.restaurant_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`, restaurantID)
}

func (r *OrdersRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.OrderView, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.list(ctx, `
		SELECT `+orderCols+`
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2
	`, customerID, limit)
}

func (r *OrdersRepository) list(ctx context.Context, q string, args ...any) ([]domain.OrderView, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var views []domain.OrderView
	for rows.Next() {
		v, err := scanOrderView(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order: %v", domain.ErrStorage, err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate orders: %v", domain.ErrStorage, err)
	}
	for i := range views {
		items, err := r.orderItems(ctx, views[i].Order.ID)
		if err != nil {
			return nil, err
		}
		views[i].Items = items
	}
	return views, nil
}

func scanOrderView(row pgx.Row) (domain.OrderView, error) {
	var v domain.OrderView
	err := row.Scan(&v.Order.ID, &v.Order.RestaurantID, &v.Order.CustomerID,
		&v.Order.TableNumber, &v.Order.Status, &v.Order.TotalAmount,
		&v.Order.LoyaltyPointsEarned, &v.Order.LoyaltyPointsUsed,
		&v.Order.SpecialInstructions, &v.Order.EstimatedReadyTime,
		&v.Order.CreatedAt, &v.Order.UpdatedAt,
		&v.CustomerName, &v.CustomerPhone)
	if err != nil {
		return domain.OrderView{}, err
	}
	return v, nil
}

func (r *OrdersRepository) orderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, total_price, special_instructions
		FROM order_items WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: query order items: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.SpecialInstructions); err != nil {
			return nil, fmt.Errorf("%w: scan order item: %v", domain.ErrStorage, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate order items: %v", domain.ErrStorage, err)
	}
	return items, nil
}

// UpdateStatus moves an order from -> to. The WHERE guard makes the forward
// path race-safe: if another staff member moved it first, no row matches.
// estimated_ready_time is stamped once and never advanced by later edits.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, stampReady bool) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3,
			updated_at = NOW(),
			estimated_ready_time = CASE
				WHEN $4 AND estimated_ready_time IS NULL THEN NOW()
				ELSE estimated_ready_time
			END
		WHERE id = $1 AND status = $2
	`, orderID, from, to, stampReady)
	if err != nil {
		return false, fmt.Errorf("%w: update status: %v", domain.ErrStorage, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrdersRepository) GetRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error) {
	var rest domain.Restaurant
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, address, phone, is_active, created_at, updated_at
		FROM restaurants WHERE id = $1
	`, id).Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address, &rest.Phone,
		&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Restaurant{}, fmt.Errorf("%w: restaurant", domain.ErrNotFound)
		}
		return domain.Restaurant{}, fmt.Errorf("%w: get restaurant: %v", domain.ErrStorage, err)
	}
	return rest, nil
}

func (r *OrdersRepository) GetCustomerByPhone(ctx context.Context, phone string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, name, phone, loyalty_points, total_orders, created_at, updated_at
		FROM customers WHERE phone = $1
	`, phone).Scan(&c.ID, &c.Name, &c.Phone, &c.LoyaltyPoints, &c.TotalOrders, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, fmt.Errorf("%w: customer", domain.ErrNotFound)
		}
		return domain.Customer{}, fmt.Errorf("%w: get customer: %v", domain.ErrStorage, err)
	}
	return c, nil
}
