package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

func testCart(userID primitive.ObjectID) models.Cart {
	return models.Cart{
		UserID: userID,
		Items: []models.CartItem{
			{ProductID: primitive.NewObjectID(), Name: "Keyboard", Price: 100, Quantity: 2},
			{ProductID: primitive.NewObjectID(), Name: "Mouse", Price: 50, Quantity: 1},
		},
		TotalPrice: 250,
	}
}

func testShipping() models.OrderShipping {
	return models.OrderShipping{
		Recipient:   "Nguyen Van A",
		PhoneNumber: "0901234567",
		Address:     "12 Le Loi, Ben Nghe, District 1, Ho Chi Minh",
	}
}

func TestMaterializeOrderRejectsEmptyCart(t *testing.T) {
	empty := models.Cart{UserID: primitive.NewObjectID()}

	_, err := materializeOrder(empty, testShipping(), "ORD-20260828-11111111", models.PaymentMethodCOD, time.Now())
	if err == nil {
		t.Fatal("expected an error for a cart with zero lines")
	}
	if _, ok := err.(emptyCartError); !ok {
		t.Fatalf("expected emptyCartError, got %T: %v", err, err)
	}
}

func TestMaterializeOrderFreezesLinesAndTotal(t *testing.T) {
	userID := primitive.NewObjectID()
	cart := testCart(userID)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	order, err := materializeOrder(cart, testShipping(), "ORD-20260828-22222222", models.PaymentMethodCOD, now)
	if err != nil {
		t.Fatalf("materializeOrder returned error: %v", err)
	}

	if order.UserID != userID || order.Code != "ORD-20260828-22222222" {
		t.Fatalf("expected cart owner and code carried over, got %+v", order)
	}
	if len(order.Items) != 2 || order.TotalPrice != 250 {
		t.Fatalf("expected 2 frozen lines totalling 250, got %d lines total %v", len(order.Items), order.TotalPrice)
	}
	for i, line := range order.Items {
		src := cart.Items[i]
		if line.ProductID != src.ProductID || line.Name != src.Name || line.Price != src.Price || line.Quantity != src.Quantity {
			t.Fatalf("expected line %d to be an exact copy of the cart line, got %+v", i, line)
		}
	}
	if !order.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %v, got %v", now, order.CreatedAt)
	}

	// Mutating the cart afterwards must not reach the frozen order.
	cart.Items[0].Quantity = 99
	cart.Items[0].Price = 1
	if order.Items[0].Quantity == 99 || order.Items[0].Price == 1 {
		t.Fatal("expected order lines to be a point-in-time copy, cart mutation leaked through")
	}
}

func TestMaterializeOrderStatusByPaymentMethod(t *testing.T) {
	cart := testCart(primitive.NewObjectID())

	cod, err := materializeOrder(cart, testShipping(), "ORD-20260828-33333333", models.PaymentMethodCOD, time.Now())
	if err != nil {
		t.Fatalf("materializeOrder returned error: %v", err)
	}
	if cod.Status != models.OrderStatusPending {
		t.Fatalf("expected COD orders to start pending, got %q", cod.Status)
	}

	vnpay, err := materializeOrder(cart, testShipping(), "ORD-20260828-44444444", models.PaymentMethodVNPay, time.Now())
	if err != nil {
		t.Fatalf("materializeOrder returned error: %v", err)
	}
	if vnpay.Status != models.OrderStatusAwaitingPayment {
		t.Fatalf("expected VNPay orders to start awaiting payment, got %q", vnpay.Status)
	}
}
