package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletap/internal/auth"
	"tabletap/internal/domain"
	"tabletap/internal/logger"
)

type fakeCatalogRepo struct {
	restaurant domain.Restaurant
	categories []domain.MenuCategory
	items      []domain.MenuItem

	nextOrder int

	createdCategory *domain.MenuCategory
	updatedCategory *domain.MenuCategory
	createdItem     *domain.MenuItem
	updatedItem     *domain.MenuItem
	deletedCategory uuid.UUID
	deletedItem     uuid.UUID
}

func (f *fakeCatalogRepo) GetRestaurant(ctx context.Context, id uuid.UUID) (domain.Restaurant, error) {
	if f.restaurant.ID != id {
		return domain.Restaurant{}, fmt.Errorf("%w: restaurant", domain.ErrNotFound)
	}
	return f.restaurant, nil
}

func (f *fakeCatalogRepo) GetRestaurantByOwner(ctx context.Context, ownerID uuid.UUID) (domain.Restaurant, error) {
	if f.restaurant.OwnerID != ownerID {
		return domain.Restaurant{}, fmt.Errorf("%w: restaurant", domain.ErrNotFound)
	}
	return f.restaurant, nil
}

func (f *fakeCatalogRepo) ActiveCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error) {
	var out []domain.MenuCategory
	for _, c := range f.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) AvailableItems(ctx context.Context, restaurantID uuid.UUID, categoryID *uuid.UUID) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	for _, it := range f.items {
		if !it.IsAvailable {
			continue
		}
		if categoryID != nil && (it.CategoryID == nil || *it.CategoryID != *categoryID) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuCategory, error) {
	return f.categories, nil
}

func (f *fakeCatalogRepo) ListItems(ctx context.Context, restaurantID uuid.UUID, offset, limit int) ([]domain.MenuItem, int, error) {
	total := len(f.items)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return f.items[offset:end], total, nil
}

func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, c domain.MenuCategory) (domain.MenuCategory, error) {
	f.nextOrder++
	c.DisplayOrder = f.nextOrder
	f.createdCategory = &c
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeCatalogRepo) UpdateCategory(ctx context.Context, c domain.MenuCategory) error {
	for i := range f.categories {
		if f.categories[i].ID == c.ID {
			f.categories[i] = c
			f.updatedCategory = &c
			return nil
		}
	}
	return fmt.Errorf("%w: category", domain.ErrNotFound)
}

func (f *fakeCatalogRepo) DeleteCategory(ctx context.Context, restaurantID, categoryID uuid.UUID) error {
	for i := range f.categories {
		if f.categories[i].ID == categoryID {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			f.deletedCategory = categoryID
			return nil
		}
	}
	return fmt.Errorf("%w: category", domain.ErrNotFound)
}

func (f *fakeCatalogRepo) CreateItem(ctx context.Context, it domain.MenuItem) (domain.MenuItem, error) {
	f.nextOrder++
	it.DisplayOrder = f.nextOrder
	f.createdItem = &it
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeCatalogRepo) UpdateItem(ctx context.Context, it domain.MenuItem) error {
	for i := range f.items {
		if f.items[i].ID == it.ID {
			f.items[i] = it
			f.updatedItem = &it
			return nil
		}
	}
	return fmt.Errorf("%w: item", domain.ErrNotFound)
}

func (f *fakeCatalogRepo) DeleteItem(ctx context.Context, restaurantID, itemID uuid.UUID) error {
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			f.deletedItem = itemID
			return nil
		}
	}
	return fmt.Errorf("%w: item", domain.ErrNotFound)
}

func newCatalogFixture() (*fakeCatalogRepo, CatalogServiceInterface, auth.Identity) {
	rest := domain.Restaurant{ID: uuid.New(), OwnerID: uuid.New(), Name: "Spice Garden", IsActive: true}
	repo := &fakeCatalogRepo{restaurant: rest}
	// Cache off: a nil client degrades every helper to a no-op miss.
	svc := NewCatalogService(repo, nil, logger.New("test"))
	owner := auth.Identity{Role: auth.RoleOwner, OwnerID: rest.OwnerID}
	return repo, svc, owner
}

func TestActiveCategoriesFiltersInactive(t *testing.T) {
	repo, svc, _ := newCatalogFixture()
	repo.categories = []domain.MenuCategory{
		{ID: uuid.New(), RestaurantID: repo.restaurant.ID, Name: "Mains", IsActive: true, DisplayOrder: 1},
		{ID: uuid.New(), RestaurantID: repo.restaurant.ID, Name: "Retired", IsActive: false, DisplayOrder: 2},
	}

	cats, err := svc.ActiveCategories(context.Background(), repo.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Mains", cats[0].Name)
}

func TestAvailableItemsByCategory(t *testing.T) {
	repo, svc, _ := newCatalogFixture()
	catID := uuid.New()
	repo.items = []domain.MenuItem{
		{ID: uuid.New(), CategoryID: &catID, Name: "Kottu Roti", Price: decimal.NewFromInt(500), IsAvailable: true},
		{ID: uuid.New(), CategoryID: &catID, Name: "Sold Out", Price: decimal.NewFromInt(400), IsAvailable: false},
		{ID: uuid.New(), Name: "Uncategorised", Price: decimal.NewFromInt(300), IsAvailable: true},
	}

	items, err := svc.AvailableItems(context.Background(), repo.restaurant.ID, &catID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kottu Roti", items[0].Name)

	all, err := svc.AvailableItems(context.Background(), repo.restaurant.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateCategoryAssignsDisplayOrder(t *testing.T) {
	repo, svc, owner := newCatalogFixture()

	first, err := svc.CreateCategory(context.Background(), owner, domain.MenuCategory{
		RestaurantID: repo.restaurant.ID, Name: "Mains", IsActive: true,
	})
	require.NoError(t, err)
	second, err := svc.CreateCategory(context.Background(), owner, domain.MenuCategory{
		RestaurantID: repo.restaurant.ID, Name: "Drinks", IsActive: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, first.DisplayOrder)
	assert.Equal(t, 2, second.DisplayOrder)
	assert.NotEqual(t, uuid.Nil, first.ID)
}

func TestCreateCategoryRequiresName(t *testing.T) {
	repo, svc, owner := newCatalogFixture()

	_, err := svc.CreateCategory(context.Background(), owner, domain.MenuCategory{RestaurantID: repo.restaurant.ID})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Nil(t, repo.createdCategory)
}

func TestCatalogMutationsRequireOwner(t *testing.T) {
	repo, svc, _ := newCatalogFixture()
	stranger := auth.Identity{Role: auth.RoleOwner, OwnerID: uuid.New()}

	_, err := svc.CreateCategory(context.Background(), stranger, domain.MenuCategory{
		RestaurantID: repo.restaurant.ID, Name: "Mains",
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.CreateItem(context.Background(), stranger, domain.MenuItem{
		RestaurantID: repo.restaurant.ID, Name: "Kottu Roti", Price: decimal.NewFromInt(500),
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = svc.DeleteItem(context.Background(), stranger, repo.restaurant.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	customer := auth.Identity{Role: auth.RoleCustomer, Phone: "+94770000000"}
	_, err = svc.MenuPage(context.Background(), customer, repo.restaurant.ID, 1, 10)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateItemValidation(t *testing.T) {
	repo, svc, owner := newCatalogFixture()

	_, err := svc.CreateItem(context.Background(), owner, domain.MenuItem{RestaurantID: repo.restaurant.ID})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.CreateItem(context.Background(), owner, domain.MenuItem{
		RestaurantID: repo.restaurant.ID, Name: "Kottu Roti", Price: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	neg := -5
	_, err = svc.CreateItem(context.Background(), owner, domain.MenuItem{
		RestaurantID: repo.restaurant.ID, Name: "Kottu Roti", Price: decimal.NewFromInt(500), PrepMinutes: &neg,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMenuPagePagination(t *testing.T) {
	repo, svc, owner := newCatalogFixture()
	for i := 0; i < 25; i++ {
		repo.items = append(repo.items, domain.MenuItem{
			ID: uuid.New(), RestaurantID: repo.restaurant.ID,
			Name: fmt.Sprintf("Item %02d", i), Price: decimal.NewFromInt(100), IsAvailable: true,
		})
	}

	page, err := svc.MenuPage(context.Background(), owner, repo.restaurant.ID, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalItems)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "Item 20", page.Items[0].Name)

	// Out-of-range values fall back to sane defaults.
	page, err = svc.MenuPage(context.Background(), owner, repo.restaurant.ID, 0, -1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, "Item 00", page.Items[0].Name)
}

func TestUpdateAndDelete(t *testing.T) {
	repo, svc, owner := newCatalogFixture()
	cat, err := svc.CreateCategory(context.Background(), owner, domain.MenuCategory{
		RestaurantID: repo.restaurant.ID, Name: "Mains", IsActive: true,
	})
	require.NoError(t, err)
	item, err := svc.CreateItem(context.Background(), owner, domain.MenuItem{
		RestaurantID: repo.restaurant.ID, Name: "Kottu Roti", Price: decimal.NewFromInt(500), IsAvailable: true,
	})
	require.NoError(t, err)

	cat.Name = "Signature Mains"
	require.NoError(t, svc.UpdateCategory(context.Background(), owner, cat))
	assert.Equal(t, "Signature Mains", repo.updatedCategory.Name)

	item.Price = decimal.NewFromInt(550)
	require.NoError(t, svc.UpdateItem(context.Background(), owner, item))
	assert.True(t, decimal.NewFromInt(550).Equal(repo.updatedItem.Price))

	require.NoError(t, svc.DeleteItem(context.Background(), owner, repo.restaurant.ID, item.ID))
	assert.Equal(t, item.ID, repo.deletedItem)

	require.NoError(t, svc.DeleteCategory(context.Background(), owner, repo.restaurant.ID, cat.ID))
	assert.Equal(t, cat.ID, repo.deletedCategory)

	err = svc.DeleteItem(context.Background(), owner, repo.restaurant.ID, item.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
