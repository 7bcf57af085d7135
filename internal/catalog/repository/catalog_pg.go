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

type CatalogRepositoryInterface interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error)
	GetRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Restaurant, error)

	ActiveCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error)
	AvailableItems(ctx context.Context, restaurantID uuid.UUID, categoryID *uuid.UUID) ([]domain.MenuItem, error)

	ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error)
	ListItems(ctx context.Context, restaurantID uuid.UUID, offset, limit int) ([]domain.MenuItem, int, error)

	CreateCategory(ctx context.Context, c domain.MenuCategory) (domain.MenuCategory, error)
	UpdateCategory(ctx context.Context, c domain.MenuCategory) error
	DeleteCategory(ctx context.Context, restaurantID, categoryID uuid.UUID) error

	CreateItem(ctx context.Context, it domain.MenuItem) (domain.MenuItem, error)
	UpdateItem(ctx context.Context, it domain.MenuItem) error
	DeleteItem(ctx context.Context, restaurantID, itemID uuid.UUID) error
}

type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepositoryInterface {
	return &CatalogRepository{db: db}
}

const restaurantCols = `id, owner_id, name, address, phone, is_active, created_at, updated_at`

func (r *CatalogRepository) GetRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error) {
	return r.scanRestaurant(r.db.QueryRow(ctx,
		`SELECT `+restaurantCols+` FROM restaurants WHERE id = $1`, id))
}

func (r *CatalogRepository) GetRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Restaurant, error) {
	return r.scanRestaurant(r.db.QueryRow(ctx,
		`SELECT `+restaurantCols+` FROM restaurants WHERE owner_id = $1`, ownerID))
}

func (r *CatalogRepository) scanRestaurant(row pgx.Row) (domain.Restaurant, error) {
	var rest domain.Restaurant
	err := row.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Address, &rest.Phone,
		&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Restaurant{}, fmt.Errorf("%w: restaurant", domain.ErrNotFound)
		}
		return domain.Restaurant{}, fmt.Errorf("%w: get restaurant: %v", domain.ErrStorage, err)
	}
	return rest, nil
}

const categoryCols = `id, restaurant_id, name, description, is_active, display_order, created_at, updated_at`

func (r *CatalogRepository) ActiveCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error) {
	return r.queryCategories(ctx,
		`SELECT `+categoryCols+` FROM menu_categories
		 WHERE restaurant_id = $1 AND is_active
		 ORDER BY display_order, created_at, id`, restaurantID)
}

func (r *CatalogRepository) ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error) {
	return r.queryCategories(ctx,
		`SELECT `+categoryCols+` FROM menu_categories
		 WHERE restaurant_id = $1
		 ORDER BY display_order, created_at, id`, restaurantID)
}

func (r *CatalogRepository) queryCategories(ctx context.Context, q string, args ...any) ([]domain.MenuCategory, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query categories: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.MenuCategory
	for rows.Next() {
		var c domain.MenuCategory
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description,
			&c.IsActive, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan category: %v", domain.ErrStorage, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate categories: %v", domain.ErrStorage, err)
	}
	return out, nil
}

const itemCols = `id, restaurant_id, category_id, name, description, price, is_available,
	is_featured, preparation_time, dietary_tags, allergen_tags,
	calories, protein, carbs, fat, fiber, sugar, sodium,
	image_url, display_order, created_at, updated_at`

func (r *CatalogRepository) AvailableItems(ctx context.Context, restaurantID uuid.UUID, categoryID *uuid.UUID) ([]domain.MenuItem, error) {
	q := `SELECT ` + itemCols + ` FROM menu_items
	      WHERE restaurant_id = $1 AND is_available`
	args := []any{restaurantID}
	if categoryID != nil {
		q += ` AND category_id = $2`
		args = append(args, *categoryID)
	}
	q += ` ORDER BY display_order, created_at, id`

	items, err := r.queryItems(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CatalogRepository) ListItems(ctx context.Context, restaurantID uuid.UUID, offset, limit int) ([]domain.MenuItem, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM menu_items WHERE restaurant_id = $1`, restaurantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count items: %v", domain.ErrStorage, err)
	}
	items, err := r.queryItems(ctx,
		`SELECT `+itemCols+` FROM menu_items
		 WHERE restaurant_id = $1
		 ORDER BY display_order, created_at, id
		 OFFSET $2 LIMIT $3`, restaurantID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *CatalogRepository) queryItems(ctx context.Context, q string, args ...any) ([]domain.MenuItem, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query items: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		var it domain.MenuItem
		if err := rows.Scan(&it.ID, &it.RestaurantID, &it.CategoryID, &it.Name, &it.Description,
			&it.Price, &it.IsAvailable, &it.IsFeatured, &it.PrepMinutes,
			&it.DietaryTags, &it.AllergenTags,
			&it.Nutrition.Calories, &it.Nutrition.Protein, &it.Nutrition.Carbs,
			&it.Nutrition.Fat, &it.Nutrition.Fiber, &it.Nutrition.Sugar, &it.Nutrition.Sodium,
			&it.ImageURL, &it.DisplayOrder, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", domain.ErrStorage, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate items: %v", domain.ErrStorage, err)
	}
	return out, nil
}

// CreateCategory assigns display_order = max(existing)+1 for the tenant.
// Orders are never gap-filled on delete.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c domain.MenuCategory) (domain.MenuCategory, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO menu_categories (id, restaurant_id, name, description, is_active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(display_order), 0) + 1 FROM menu_categories WHERE restaurant_id = $2),
			NOW(), NOW())
		RETURNING display_order, created_at, updated_at
	`, c.ID, c.RestaurantID, c.Name, c.Description, c.IsActive).
		Scan(&c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.MenuCategory{}, fmt.Errorf("%w: insert category: %v", domain.ErrStorage, err)
	}
	return c, nil
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, c domain.MenuCategory) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE menu_categories
		SET name = $3, description = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1 AND restaurant_id = $2
	`, c.ID, c.RestaurantID, c.Name, c.Description, c.IsActive)
	if err != nil {
		return fmt.Errorf("%w: update category: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}
	return nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, restaurantID, categoryID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM menu_categories WHERE id = $1 AND restaurant_id = $2`, categoryID, restaurantID)
	if err != nil {
		return fmt.Errorf("%w: delete category: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category", domain.ErrNotFound)
	}
	return nil
}

func (r *CatalogRepository) CreateItem(ctx context.Context, it domain.MenuItem) (domain.MenuItem, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO menu_items (id, restaurant_id, category_id, name, description, price,
			is_available, is_featured, preparation_time, dietary_tags, allergen_tags,
			calories, protein, carbs, fat, fiber, sugar, sodium,
			image_url, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19,
			(SELECT COALESCE(MAX(display_order), 0) + 1 FROM menu_items WHERE restaurant_id = $2),
			NOW(), NOW())
		RETURNING display_order, created_at, updated_at
	`, it.ID, it.RestaurantID, it.CategoryID, it.Name, it.Description, it.Price,
		it.IsAvailable, it.IsFeatured, it.PrepMinutes, it.DietaryTags, it.AllergenTags,
		it.Nutrition.Calories, it.Nutrition.Protein, it.Nutrition.Carbs,
		it.Nutrition.Fat, it.Nutrition.Fiber, it.Nutrition.Sugar, it.Nutrition.Sodium,
		it.ImageURL).
		Scan(&it.DisplayOrder, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("%w: insert item: %v", domain.ErrStorage, err)
	}
	return it, nil
}

func (r *CatalogRepository) UpdateItem(ctx context.Context, it domain.MenuItem) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET category_id = $3, name = $4, description = $5, price = $6,
			is_available = $7, is_featured = $8, preparation_time = $9,
			dietary_tags = $10, allergen_tags = $11,
			calories = $12, protein = $13, carbs = $14, fat = $15,
			fiber = $16, sugar = $17, sodium = $18,
			image_url = $19, updated_at = NOW()
		WHERE id = $1 AND restaurant_id = $2
	`, it.ID, it.RestaurantID, it.CategoryID, it.Name, it.Description, it.Price,
		it.IsAvailable, it.IsFeatured, it.PrepMinutes, it.DietaryTags, it.AllergenTags,
		it.Nutrition.Calories, it.Nutrition.Protein, it.Nutrition.Carbs, it.Nutrition.Fat,
		it.Nutrition.Fiber, it.Nutrition.Sugar, it.Nutrition.Sodium, it.ImageURL)
	if err != nil {
		return fmt.Errorf("%w: update item: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: menu item", domain.ErrNotFound)
	}
	return nil
}

func (r *CatalogRepository) DeleteItem(ctx context.Context, restaurantID, itemID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`, itemID, restaurantID)
	if err != nil {
		return fmt.Errorf("%w: delete item: %v", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: menu item", domain.ErrNotFound)
	}
	return nil
}
