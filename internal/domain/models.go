package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant is the tenant root. Everything below it (categories, items,
// orders) is scoped by RestaurantID.
type Restaurant struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuCategory struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  string
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NutritionFacts are all optional; nil means "not provided".
type NutritionFacts struct {
	Calories *int     `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	CategoryID   *uuid.UUID // nullable: the model tolerates orphaned items
	Name         string
	Description  string
	Price        decimal.Decimal
	IsAvailable  bool
	IsFeatured   bool
	PrepMinutes  *int
	DietaryTags  []string
	AllergenTags []string
	Nutrition    NutritionFacts
	ImageURL     string // opaque, owned by external object storage
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is looked up by phone number; the phone is unique at the storage
// layer and acts as the natural key for the loyalty ledger.
type Customer struct {
	ID            uuid.UUID
	Name          string
	Phone         string
	LoyaltyPoints int
	TotalOrders   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Order struct {
	ID                  uuid.UUID
	RestaurantID        uuid.UUID
	CustomerID          *uuid.UUID // nil for guest checkout
	TableNumber         string
	Status              OrderStatus
	TotalAmount         decimal.Decimal // post-discount
	LoyaltyPointsEarned int
	LoyaltyPointsUsed   int
	SpecialInstructions string
	EstimatedReadyTime  *time.Time // stamped once on the transition into ready
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderItem snapshots name and prices at submission time; it never changes
// after the submission transaction commits, even if the catalog does.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          uuid.UUID
	Name                string
	Quantity            int
	UnitPrice           decimal.Decimal
	TotalPrice          decimal.Decimal
	SpecialInstructions string
}

// OrderView is the read projection the dashboard and tracking views render:
// the order, its snapshotted line items, and the customer contact fields
// (empty strings for guests).
type OrderView struct {
	Order         Order
	Items         []OrderItem
	CustomerName  string
	CustomerPhone string
}

// CartLine is what the client sends: an item reference and a quantity.
// Prices are never trusted from the client; they are resolved from the
// catalog inside the submission transaction.
type CartLine struct {
	MenuItemID          uuid.UUID
	Quantity            int
	SpecialInstructions string
}

// Cart is an explicit session-scoped value passed into the submission
// transaction, not ambient UI state.
type Cart struct {
	Lines []CartLine
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }
