package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// upsertCartItem increments the quantity when the product already has a line,
// appends a new line otherwise. A product never appears twice.
func upsertCartItem(items []models.CartItem, item models.CartItem) []models.CartItem {
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}

// removeCartItem filters out the product's line. Removing an absent product
// is a no-op, not an error.
func removeCartItem(items []models.CartItem, productID primitive.ObjectID) []models.CartItem {
	filtered := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// setCartItemQuantity overwrites the line's quantity and reports whether the
// product had a line at all.
func setCartItemQuantity(items []models.CartItem, productID primitive.ObjectID, quantity int) ([]models.CartItem, bool) {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return items, true
		}
	}
	return items, false
}

// cartTotal recomputes the aggregate from scratch. Always called as the last
// step of a mutation; incremental updates would drift.
func cartTotal(items []models.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}
