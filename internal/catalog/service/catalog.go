package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tabletap/internal/auth"
	"tabletap/internal/catalog/repository"
	"tabletap/internal/connections/redisdb"
	"tabletap/internal/domain"
	"tabletap/internal/logger"
)

type CatalogServiceInterface interface {
	ActiveCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error)
	AvailableItems(ctx context.Context, restaurantID uuid.UUID, categoryID *uuid.UUID) ([]domain.MenuItem, error)

	MenuPage(ctx context.Context, ident auth.Identity, restaurantID uuid.UUID, page, pageSize int) (MenuPage, error)
	CreateCategory(ctx context.Context, ident auth.Identity, c domain.MenuCategory) (domain.MenuCategory, error)
	UpdateCategory(ctx context.Context, ident auth.Identity, c domain.MenuCategory) error
	DeleteCategory(ctx context.Context, ident auth.Identity, restaurantID, categoryID uuid.UUID) error
	CreateItem(ctx context.Context, ident auth.Identity, it domain.MenuItem) (domain.MenuItem, error)
	UpdateItem(ctx context.Context, ident auth.Identity, it domain.MenuItem) error
	DeleteItem(ctx context.Context, ident auth.Identity, restaurantID, itemID uuid.UUID) error
}

type MenuPage struct {
	Categories []domain.MenuCategory
	Items      []domain.MenuItem
	TotalItems int
}

type CatalogService struct {
	repo  repository.CatalogRepositoryInterface
	cache *redisdb.Cache
	lg    *logger.Logger
}

func NewCatalogService(repo repository.CatalogRepositoryInterface, cache *redisdb.Cache, lg *logger.Logger) CatalogServiceInterface {
	return &CatalogService{repo: repo, cache: cache, lg: lg}
}

func cachePrefix(restaurantID uuid.UUID) string {
	return fmt.Sprintf("catalog:%s:", restaurantID)
}

// ActiveCategories is the public menu read behind the table QR code. Cached
// per tenant; a cache failure falls through to the database, never to an
// error for the customer.
func (s *CatalogService) ActiveCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error) {
	key := cachePrefix(restaurantID) + "categories"
	var cached []domain.MenuCategory
	if ok, err := s.cache.GetObject(ctx, key, &cached); err != nil {
		s.lg.Warn("catalog_cache_read_failed", map[string]any{"key": key, "err": err.Error()})
	} else if ok {
		return cached, nil
	}

	cats, err := s.repo.ActiveCategories(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetObject(ctx, key, cats); err != nil {
		s.lg.Warn("catalog_cache_write_failed", map[string]any{"key": key, "err": err.Error()})
	}
	return cats, nil
}

func (s *CatalogService) AvailableItems(ctx context.Context, restaurantID uuid.UUID, categoryID *uuid.UUID) ([]domain.MenuItem, error) {
	key := cachePrefix(restaurantID) + "items:all"
	if categoryID != nil {
		key = cachePrefix(restaurantID) + "items:" + categoryID.String()
	}
	var cached []domain.MenuItem
	if ok, err := s.cache.GetObject(ctx, key, &cached); err != nil {
		s.lg.Warn("catalog_cache_read_failed", map[string]any{"key": key, "err": err.Error()})
	} else if ok {
		return cached, nil
	}

	items, err := s.repo.AvailableItems(ctx, restaurantID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetObject(ctx, key, items); err != nil {
		s.lg.Warn("catalog_cache_write_failed", map[string]any{"key": key, "err": err.Error()})
	}
	return items, nil
}

func (s *CatalogService) authorize(ctx context.Context, ident auth.Identity, restaurantID uuid.UUID) error {
	rest, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	return auth.RequireOwner(ident, rest)
}

func (s *CatalogService) invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix(restaurantID)); err != nil {
		s.lg.Warn("catalog_cache_invalidate_failed", map[string]any{"restaurant_id": restaurantID, "err": err.Error()})
	}
}

func (s *CatalogService) MenuPage(ctx context.Context, ident auth.Identity, restaurantID uuid.UUID, page, pageSize int) (MenuPage, error) {
	if err := s.authorize(ctx, ident, restaurantID); err != nil {
		return MenuPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	cats, err := s.repo.ListCategories(ctx, restaurantID)
	if err != nil {
		return MenuPage{}, err
	}
	items, total, err := s.repo.ListItems(ctx, restaurantID, (page-1)*pageSize, pageSize)
	if err != nil {
		return MenuPage{}, err
	}
	return MenuPage{Categories: cats, Items: items, TotalItems: total}, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, ident auth.Identity, c domain.MenuCategory) (domain.MenuCategory, error) {
	if c.Name == "" {
		return domain.MenuCategory{}, fmt.Errorf("%w: category name is required", domain.ErrInvalidRequest)
	}
	if err := s.authorize(ctx, ident, c.RestaurantID); err != nil {
		return domain.MenuCategory{}, err
	}
	c.ID = uuid.New()
	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return domain.MenuCategory{}, err
	}
	s.invalidate(ctx, c.RestaurantID)
	s.lg.Info("category_created", map[string]any{"restaurant_id": c.RestaurantID, "category_id": created.ID, "display_order": created.DisplayOrder})
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, ident auth.Identity, c domain.MenuCategory) error {
	if c.Name == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrInvalidRequest)
	}
	if err := s.authorize(ctx, ident, c.RestaurantID); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, c.RestaurantID)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, ident auth.Identity, restaurantID, categoryID uuid.UUID) error {
	if err := s.authorize(ctx, ident, restaurantID); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, restaurantID, categoryID); err != nil {
		return err
	}
	s.invalidate(ctx, restaurantID)
	return nil
}

func validateItem(it domain.MenuItem) error {
	if it.Name == "" {
		return fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
	}
	if it.Price.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidRequest)
	}
	if it.PrepMinutes != nil && *it.PrepMinutes < 0 {
		return fmt.Errorf("%w: preparation time must be non-negative", domain.ErrInvalidRequest)
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, ident auth.Identity, it domain.MenuItem) (domain.MenuItem, error) {
	if err := validateItem(it); err != nil {
		return domain.MenuItem{}, err
	}
	if err := s.authorize(ctx, ident, it.RestaurantID); err != nil {
		return domain.MenuItem{}, err
	}
	it.ID = uuid.New()
	created, err := s.repo.CreateItem(ctx, it)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.invalidate(ctx, it.RestaurantID)
	s.lg.Info("menu_item_created", map[string]any{"restaurant_id": it.RestaurantID, "item_id": created.ID, "display_order": created.DisplayOrder})
	return created, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, ident auth.Identity, it domain.MenuItem) error {
	if err := validateItem(it); err != nil {
		return err
	}
	if err := s.authorize(ctx, ident, it.RestaurantID); err != nil {
		return err
	}
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return err
	}
	s.invalidate(ctx, it.RestaurantID)
	return nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, ident auth.Identity, restaurantID, itemID uuid.UUID) error {
	if err := s.authorize(ctx, ident, restaurantID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, restaurantID, itemID); err != nil {
		return err
	}
	s.invalidate(ctx, restaurantID)
	return nil
}
