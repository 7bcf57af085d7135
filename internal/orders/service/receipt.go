package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tabletap/internal/domain"
)

// RenderReceipt produces the printable plain-text rendering of an order.
// Pure function of the order view; amounts come from the snapshots taken at
// submission time, never from the live catalog.
func RenderReceipt(restaurantName string, v domain.OrderView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", restaurantName)
	fmt.Fprintf(&b, "Order #%s\n", shortID(v.Order.ID.String()))
	fmt.Fprintf(&b, "Table %s\n", v.Order.TableNumber)
	fmt.Fprintf(&b, "Placed %s\n", v.Order.CreatedAt.Format("2006-01-02 15:04"))
	if v.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", v.CustomerName)
	}
	b.WriteString(strings.Repeat("-", 38) + "\n")

	subtotal := v.Order.TotalAmount
	for _, it := range v.Items {
		fmt.Fprintf(&b, "%2dx %-24s %9s\n", it.Quantity, clip(it.Name, 24), it.TotalPrice.StringFixed(2))
	}
	b.WriteString(strings.Repeat("-", 38) + "\n")

	if v.Order.LoyaltyPointsUsed > 0 {
		// Reconstruct the pre-discount subtotal from the line snapshots.
		subtotal = decimal.Zero
		for _, it := range v.Items {
			subtotal = subtotal.Add(it.TotalPrice)
		}
		discount := subtotal.Sub(v.Order.TotalAmount)
		fmt.Fprintf(&b, "%-28s %9s\n", "Subtotal", subtotal.StringFixed(2))
		fmt.Fprintf(&b, "%-28s -%8s\n", fmt.Sprintf("Points discount (%d)", v.Order.LoyaltyPointsUsed), discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "%-28s %9s\n", "TOTAL", v.Order.TotalAmount.StringFixed(2))
	if v.Order.LoyaltyPointsEarned > 0 {
		fmt.Fprintf(&b, "Points earned: +%d\n", v.Order.LoyaltyPointsEarned)
	}
	fmt.Fprintf(&b, "Status: %s\n", v.Order.Status)
	return b.String()
}

func shortID(id string) string { return clip(id, 8) }

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
