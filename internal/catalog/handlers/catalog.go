package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tabletap/internal/auth"
	"tabletap/internal/catalog/service"
	"tabletap/internal/domain"
	"tabletap/internal/httpx"
	"tabletap/internal/logger"
)

var validate = validator.New()

type CatalogHandler struct {
	svc service.CatalogServiceInterface
	lg  *logger.Logger
}

func NewCatalogHandler(svc service.CatalogServiceInterface, lg *logger.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, lg: lg}
}

// Categories is the public menu read: active categories only, in owner order.
func (h *CatalogHandler) Categories(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	cats, err := h.svc.ActiveCategories(c.Request.Context(), restaurantID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	out := make([]categoryDTO, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryDTO(cat))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// Items is the public item read, optionally filtered by category.
func (h *CatalogHandler) Items(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
			return
		}
		categoryID = &id
	}
	items, err := h.svc.AvailableItems(c.Request.Context(), restaurantID, categoryID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// MenuPage is the owner dashboard listing: all categories plus a page of
// items, available or not.
func (h *CatalogHandler) MenuPage(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 10)

	menu, err := h.svc.MenuPage(c.Request.Context(), auth.CallerIdentity(c), restaurantID, page, pageSize)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	cats := make([]categoryDTO, 0, len(menu.Categories))
	for _, cat := range menu.Categories {
		cats = append(cats, toCategoryDTO(cat))
	}
	items := make([]itemDTO, 0, len(menu.Items))
	for _, it := range menu.Items {
		items = append(items, toItemDTO(it))
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats, "items": items, "total_items": menu.TotalItems})
}

type categoryRequestDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	var req categoryRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.svc.CreateCategory(c.Request.Context(), auth.CallerIdentity(c), domain.MenuCategory{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryDTO(created))
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	restaurantID, categoryID, ok := twoIDs(c, "restaurantId", "categoryId")
	if !ok {
		return
	}
	var req categoryRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.svc.UpdateCategory(c.Request.Context(), auth.CallerIdentity(c), domain.MenuCategory{
		ID:           categoryID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	restaurantID, categoryID, ok := twoIDs(c, "restaurantId", "categoryId")
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), auth.CallerIdentity(c), restaurantID, categoryID); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type itemRequestDTO struct {
	CategoryID   *string               `json:"category_id" validate:"omitempty,uuid"`
	Name         string                `json:"name" validate:"required"`
	Description  string                `json:"description"`
	Price        string                `json:"price" validate:"required"`
	IsAvailable  *bool                 `json:"is_available"`
	IsFeatured   bool                  `json:"is_featured"`
	PrepMinutes  *int                  `json:"preparation_time" validate:"omitempty,gte=0"`
	DietaryTags  []string              `json:"dietary_tags"`
	AllergenTags []string              `json:"allergen_tags"`
	Nutrition    domain.NutritionFacts `json:"nutrition"`
	ImageURL     string                `json:"image_url"`
}

func (h *CatalogHandler) itemFromRequest(c *gin.Context, restaurantID uuid.UUID) (domain.MenuItem, bool) {
	var req itemRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return domain.MenuItem{}, false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.MenuItem{}, false
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return domain.MenuItem{}, false
	}
	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
			return domain.MenuItem{}, false
		}
		categoryID = &id
	}
	return domain.MenuItem{
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        price,
		IsAvailable:  req.IsAvailable == nil || *req.IsAvailable,
		IsFeatured:   req.IsFeatured,
		PrepMinutes:  req.PrepMinutes,
		DietaryTags:  req.DietaryTags,
		AllergenTags: req.AllergenTags,
		Nutrition:    req.Nutrition,
		ImageURL:     req.ImageURL,
	}, true
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	item, ok := h.itemFromRequest(c, restaurantID)
	if !ok {
		return
	}
	created, err := h.svc.CreateItem(c.Request.Context(), auth.CallerIdentity(c), item)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemDTO(created))
}

func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	restaurantID, itemID, ok := twoIDs(c, "restaurantId", "itemId")
	if !ok {
		return
	}
	item, reqOK := h.itemFromRequest(c, restaurantID)
	if !reqOK {
		return
	}
	item.ID = itemID
	if err := h.svc.UpdateItem(c.Request.Context(), auth.CallerIdentity(c), item); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	restaurantID, itemID, ok := twoIDs(c, "restaurantId", "itemId")
	if !ok {
		return
	}
	if err := h.svc.DeleteItem(c.Request.Context(), auth.CallerIdentity(c), restaurantID, itemID); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func twoIDs(c *gin.Context, first, second string) (uuid.UUID, uuid.UUID, bool) {
	a, err := uuid.Parse(c.Param(first))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + first})
		return uuid.Nil, uuid.Nil, false
	}
	b, err := uuid.Parse(c.Param(second))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + second})
		return uuid.Nil, uuid.Nil, false
	}
	return a, b, true
}

func intQuery(c *gin.Context, key string, def int) int {
	if raw := c.Query(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type categoryDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

func toCategoryDTO(c domain.MenuCategory) categoryDTO {
	return categoryDTO{
		ID:           c.ID.String(),
		Name:         c.Name,
		Description:  c.Description,
		IsActive:     c.IsActive,
		DisplayOrder: c.DisplayOrder,
	}
}

type itemDTO struct {
	ID           string                `json:"id"`
	CategoryID   *string               `json:"category_id,omitempty"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Price        string                `json:"price"`
	IsAvailable  bool                  `json:"is_available"`
	IsFeatured   bool                  `json:"is_featured"`
	PrepMinutes  *int                  `json:"preparation_time,omitempty"`
	DietaryTags  []string              `json:"dietary_tags,omitempty"`
	AllergenTags []string              `json:"allergen_tags,omitempty"`
	Nutrition    domain.NutritionFacts `json:"nutrition"`
	ImageURL     string                `json:"image_url,omitempty"`
	DisplayOrder int                   `json:"display_order"`
}

func toItemDTO(it domain.MenuItem) itemDTO {
	dto := itemDTO{
		ID:           it.ID.String(),
		Name:         it.Name,
		Description:  it.Description,
		Price:        it.Price.StringFixed(2),
		IsAvailable:  it.IsAvailable,
		IsFeatured:   it.IsFeatured,
		PrepMinutes:  it.PrepMinutes,
		DietaryTags:  it.DietaryTags,
		AllergenTags: it.AllergenTags,
		Nutrition:    it.Nutrition,
		ImageURL:     it.ImageURL,
		DisplayOrder: it.DisplayOrder,
	}
	if it.CategoryID != nil {
		s := it.CategoryID.String()
		dto.CategoryID = &s
	}
	return dto
}
