package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopapi/internal/models"
)

type createOrderRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	AddressID     string `json:"addressId"`
	Recipient     string `json:"recipient"`
	PhoneNumber   string `json:"phoneNumber"`
	Address       string `json:"address"`
}

type emptyCartError struct{}

func (emptyCartError) Error() string { return "cart is empty" }

// materializeOrder freezes a cart into an order document. The lines and total
// are point-in-time copies; later product or cart changes must not reach the
// order. COD orders start pending, VNPay orders start awaiting the gateway.
func materializeOrder(cart models.Cart, shipping models.OrderShipping, code, method string, now time.Time) (models.Order, error) {
	if len(cart.Items) == 0 {
		return models.Order{}, emptyCartError{}
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, models.OrderItem(item))
	}

	status := models.OrderStatusPending
	if method == models.PaymentMethodVNPay {
		status = models.OrderStatusAwaitingPayment
	}

	return models.Order{
		Code:          code,
		UserID:        cart.UserID,
		Items:         items,
		TotalPrice:    cart.TotalPrice,
		Shipping:      shipping,
		PaymentMethod: method,
		Status:        status,
		CreatedAt:     now,
	}, nil
}

// orderItemView is a frozen order line joined with current product display
// data: price and quantity are historical, image and stock are live.
type orderItemView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock"`
}

type orderView struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	UserID        string               `json:"userId"`
	Items         []orderItemView      `json:"items"`
	TotalPrice    float64              `json:"totalPrice"`
	Shipping      models.OrderShipping `json:"shipping"`
	PaymentMethod string               `json:"paymentMethod"`
	Status        string               `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// CreateOrder materializes the user's cart into an immutable order. COD
// orders persist and clear the cart in one transaction; VNPay orders persist
// as awaiting_payment with the cart untouched until the gateway callback
// confirms.
func CreateOrder(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/orders"
		defer handlePanic(c, route)

		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodVNPay {
			respondValidation(c, "invalid payment method")
			return
		}

		unlock := cartLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		shipping, ok := resolveShipping(c, ctx, db, userID, req)
		if !ok {
			return
		}

		now := time.Now()
		code, err := newOrderCode(now)
		if err != nil {
			log.Println("[ORDER] [ERROR] order code generation failed:", err)
			respondUpstream(c, "order code generation failed")
			return
		}

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[ORDER] [ERROR] start session failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var cart models.Cart
			err := db.Collection("carts").FindOne(sessCtx, bson.M{"userId": userID}).Decode(&cart)
			if err != nil && err != mongo.ErrNoDocuments {
				return nil, err
			}
			cart.UserID = userID

			order, err = materializeOrder(cart, shipping, code, req.PaymentMethod, now)
			if err != nil {
				return nil, err
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}

			// The cart survives a VNPay order until the gateway confirms.
			if req.PaymentMethod == models.PaymentMethodCOD {
				if _, err := db.Collection("carts").DeleteOne(sessCtx, bson.M{"userId": userID}); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if err != nil {
			if _, empty := err.(emptyCartError); empty {
				respondValidation(c, "cart is empty")
				return
			}
			if isTransientTxnError(err) {
				respondConflict(c, "concurrent cart update, retry")
				return
			}
			log.Println("[ORDER] [ERROR] create order failed:", err)
			respondUpstream(c, "db error")
			return
		}

		if err := carts.Invalidate(ctx, userID.Hex()); err != nil {
			log.Println("[ORDER] [ERROR] cache invalidate failed:", err)
		}

		log.Println("[ORDER] [INFO] order created:", order.Code, "status:", order.Status)
		c.JSON(http.StatusCreated, gin.H{"data": order})
	}
}

// resolveShipping fills the order's shipping block from an explicit saved
// address, inline fields, or the user's default address, in that order.
func resolveShipping(c *gin.Context, ctx context.Context, db *mongo.Database, userID primitive.ObjectID, req createOrderRequest) (models.OrderShipping, bool) {
	if id := strings.TrimSpace(req.AddressID); id != "" {
		addressID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			respondValidation(c, "invalid addressId")
			return models.OrderShipping{}, false
		}

		var address models.Address
		err = db.Collection("addresses").FindOne(ctx, bson.M{"_id": addressID, "userId": userID}).Decode(&address)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "address not found")
			return models.OrderShipping{}, false
		}
		if err != nil {
			log.Println("[ORDER] [ERROR] address lookup failed:", err)
			respondUpstream(c, "db error")
			return models.OrderShipping{}, false
		}
		return models.OrderShipping{
			Recipient:   address.Recipient,
			PhoneNumber: address.PhoneNumber,
			Address:     address.FullText(),
		}, true
	}

	recipient := strings.TrimSpace(req.Recipient)
	phone := strings.TrimSpace(req.PhoneNumber)
	addressText := strings.TrimSpace(req.Address)
	if recipient != "" && phone != "" && addressText != "" {
		return models.OrderShipping{Recipient: recipient, PhoneNumber: phone, Address: addressText}, true
	}

	// Fall back to the default address, the one the checkout screen prefills.
	var address models.Address
	err := db.Collection("addresses").FindOne(ctx, bson.M{"userId": userID, "isDefault": true}).Decode(&address)
	if err == mongo.ErrNoDocuments {
		respondValidation(c, "shipping address is required")
		return models.OrderShipping{}, false
	}
	if err != nil {
		log.Println("[ORDER] [ERROR] default address lookup failed:", err)
		respondUpstream(c, "db error")
		return models.OrderShipping{}, false
	}
	return models.OrderShipping{
		Recipient:   address.Recipient,
		PhoneNumber: address.PhoneNumber,
		Address:     address.FullText(),
	}, true
}

func GetUserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			log.Println("[ORDER] [ERROR] list orders failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			log.Println("[ORDER] [ERROR] decode orders failed:", err)
			respondUpstream(c, "db error")
			return
		}

		views, err := buildOrderViews(ctx, db, orders)
		if err != nil {
			log.Println("[ORDER] [ERROR] product join failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": views})
	}
}

func GetUserOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		orderID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "order not found")
			return
		}
		if err != nil {
			log.Println("[ORDER] [ERROR] order lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		views, err := buildOrderViews(ctx, db, []models.Order{order})
		if err != nil {
			log.Println("[ORDER] [ERROR] product join failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": views[0]})
	}
}

func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{}, findOptions)
		if err != nil {
			log.Println("[ORDER] [ERROR] list all orders failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer cursor.Close(ctx)

		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			log.Println("[ORDER] [ERROR] decode orders failed:", err)
			respondUpstream(c, "db error")
			return
		}

		views, err := buildOrderViews(ctx, db, orders)
		if err != nil {
			log.Println("[ORDER] [ERROR] product join failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": views})
	}
}

func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			log.Println("[ORDER] [ERROR] delete order failed:", err)
			respondUpstream(c, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondNotFound(c, "order not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

// buildOrderViews joins frozen order lines with current product image and
// stock across all orders with one query.
func buildOrderViews(ctx context.Context, db *mongo.Database, orders []models.Order) ([]orderView, error) {
	views := make([]orderView, 0, len(orders))

	idSet := make(map[primitive.ObjectID]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			idSet[item.ProductID] = struct{}{}
		}
	}

	productByID := make(map[primitive.ObjectID]models.Product, len(idSet))
	if len(idSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			return nil, err
		}
		for _, product := range products {
			productByID[product.ID] = product
		}
	}

	for _, order := range orders {
		view := orderView{
			ID:            order.ID.Hex(),
			Code:          order.Code,
			UserID:        order.UserID.Hex(),
			Items:         make([]orderItemView, 0, len(order.Items)),
			TotalPrice:    order.TotalPrice,
			Shipping:      order.Shipping,
			PaymentMethod: order.PaymentMethod,
			Status:        order.Status,
			CreatedAt:     order.CreatedAt,
		}
		for _, item := range order.Items {
			line := orderItemView{
				ProductID: item.ProductID.Hex(),
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			}
			if product, exists := productByID[item.ProductID]; exists {
				line.Image = product.Image
				line.Stock = product.Stock
			}
			view.Items = append(view.Items, line)
		}
		views = append(views, view)
	}
	return views, nil
}
