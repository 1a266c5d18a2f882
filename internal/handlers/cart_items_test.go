package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

func TestUpsertCartItemIncrementsExistingLine(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: p1, Name: "Keyboard", Price: 100, Quantity: 2},
		{ProductID: p2, Name: "Mouse", Price: 50, Quantity: 1},
	}

	items = upsertCartItem(items, models.CartItem{ProductID: p1, Name: "Keyboard", Price: 100, Quantity: 1})

	if len(items) != 2 {
		t.Fatalf("expected the existing line to be incremented, got %d lines", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", items[0].Quantity)
	}
	if got := cartTotal(items); got != 350 {
		t.Fatalf("expected total 350, got %v", got)
	}
}

func TestUpsertCartItemAppendsNewLine(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	items := []models.CartItem{{ProductID: p1, Price: 100, Quantity: 1}}

	items = upsertCartItem(items, models.CartItem{ProductID: p2, Price: 50, Quantity: 2})

	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	if items[1].ProductID != p2 || items[1].Quantity != 2 {
		t.Fatalf("expected the new line appended last, got %+v", items[1])
	}
}

func TestRemoveCartItemAbsentProductIsNoOp(t *testing.T) {
	p1 := primitive.NewObjectID()
	absent := primitive.NewObjectID()
	items := []models.CartItem{{ProductID: p1, Price: 100, Quantity: 2}}

	items = removeCartItem(items, absent)
	items = removeCartItem(items, absent)

	if len(items) != 1 {
		t.Fatalf("expected removing an absent product to be a no-op, got %d lines", len(items))
	}
	if got := cartTotal(items); got != 200 {
		t.Fatalf("expected total 200, got %v", got)
	}
}

func TestRemoveCartItemFiltersLine(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: p1, Price: 100, Quantity: 2},
		{ProductID: p2, Price: 50, Quantity: 1},
	}

	items = removeCartItem(items, p1)

	if len(items) != 1 || items[0].ProductID != p2 {
		t.Fatalf("expected only the other line to remain, got %+v", items)
	}
	if got := cartTotal(items); got != 50 {
		t.Fatalf("expected total 50, got %v", got)
	}
}

func TestSetCartItemQuantity(t *testing.T) {
	p1 := primitive.NewObjectID()
	items := []models.CartItem{{ProductID: p1, Price: 100, Quantity: 2}}

	items, found := setCartItemQuantity(items, p1, 5)
	if !found {
		t.Fatal("expected the line to be found")
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}

	if _, found := setCartItemQuantity(items, primitive.NewObjectID(), 1); found {
		t.Fatal("expected an absent product to not be found")
	}
}

func TestCartTotalEmpty(t *testing.T) {
	if got := cartTotal(nil); got != 0 {
		t.Fatalf("expected empty cart total 0, got %v", got)
	}
}
