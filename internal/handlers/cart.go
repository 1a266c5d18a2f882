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

// cartCache is the slice of cache.CartCache the handlers need.
type cartCache interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Set(ctx context.Context, userID string, cart *models.Cart) error
	Invalidate(ctx context.Context, userID string) error
}

type addCartItemRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// cartItemView is a cart line joined with live product display data. Name and
// price come from the snapshot; image and stock reflect the product now.
type cartItemView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock"`
}

type cartView struct {
	Items      []cartItemView `json:"items"`
	TotalPrice float64        `json:"totalPrice"`
}

// GetCart is the storefront read path: a missing cart document is a valid
// empty cart, never an error.
func GetCart(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := cachedCart(ctx, carts, userID, func() (*models.Cart, error) {
			cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}
			err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(cart)
			if err != nil && err != mongo.ErrNoDocuments {
				return nil, err
			}
			return cart, nil
		})
		if err != nil {
			log.Println("[CART] [ERROR] cart lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		view, err := buildCartView(ctx, db, cart)
		if err != nil {
			log.Println("[CART] [ERROR] product join failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": view})
	}
}

func AddCartItem(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity <= 0 {
			respondValidation(c, "quantity must be a positive integer")
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondValidation(c, "invalid productId")
			return
		}

		unlock := cartLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		item := models.CartItem{
			ProductID: productID,
			Name:      strings.TrimSpace(req.Name),
			Quantity:  req.Quantity,
		}
		if req.Price != nil {
			item.Price = *req.Price
		}

		// Missing snapshot fields are resolved against the product.
		if item.Name == "" || req.Price == nil {
			var product models.Product
			err := db.Collection("products").FindOne(ctx, bson.M{
				"_id":       productID,
				"isDeleted": bson.M{"$ne": true},
			}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				respondValidation(c, "invalid productId")
				return
			}
			if err != nil {
				log.Println("[CART] [ERROR] product lookup failed:", err)
				respondUpstream(c, "db error")
				return
			}
			if item.Name == "" {
				item.Name = product.Name
			}
			if req.Price == nil {
				item.Price = product.Price
			}
		}

		cart, _, err := loadCart(ctx, db, userID)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}

		cart.Items = upsertCartItem(cart.Items, item)
		if err := saveCart(ctx, db, carts, cart); err != nil {
			respondUpstream(c, "db error")
			return
		}

		log.Println("[CART] [INFO] item added:", productID.Hex())
		c.JSON(http.StatusOK, gin.H{"data": cart})
	}
}

func UpdateCartItemQuantity(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		productID, ok := objectIDParam(c, "productId")
		if !ok {
			return
		}

		var req cartQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity <= 0 {
			respondValidation(c, "quantity must be a positive integer")
			return
		}

		unlock := cartLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, found, err := loadCart(ctx, db, userID)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}
		if !found {
			respondNotFound(c, "cart not found")
			return
		}

		items, lineFound := setCartItemQuantity(cart.Items, productID, req.Quantity)
		if !lineFound {
			respondNotFound(c, "product not in cart")
			return
		}

		cart.Items = items
		if err := saveCart(ctx, db, carts, cart); err != nil {
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": cart})
	}
}

func RemoveCartItem(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		productID, ok := objectIDParam(c, "productId")
		if !ok {
			return
		}

		unlock := cartLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, found, err := loadCart(ctx, db, userID)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}
		if !found {
			respondNotFound(c, "cart not found")
			return
		}

		cart.Items = removeCartItem(cart.Items, productID)
		if err := saveCart(ctx, db, carts, cart); err != nil {
			respondUpstream(c, "db error")
			return
		}

		log.Println("[CART] [INFO] item removed:", productID.Hex())
		c.JSON(http.StatusOK, gin.H{"data": cart})
	}
}

func ClearCart(db *mongo.Database, carts cartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		unlock := cartLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, found, err := loadCart(ctx, db, userID)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}
		if !found {
			// Nothing to clear.
			c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
			return
		}

		cart.Items = []models.CartItem{}
		if err := saveCart(ctx, db, carts, cart); err != nil {
			respondUpstream(c, "db error")
			return
		}

		log.Println("[CART] [INFO] cart cleared for user:", userID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

// AdminGetCart is the internal read path; unlike the storefront read, a
// missing cart document is a 404 here.
func AdminGetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := objectIDParam(c, "userId")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var cart models.Cart
		err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "cart not found")
			return
		}
		if err != nil {
			log.Println("[CART] [ERROR] admin cart lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": cart})
	}
}

// cachedCart reads through the cache. The miss path runs under the user's cart
// lock; without it a concurrent mutation could invalidate the key between the
// load and the repopulating Set, pinning a pre-mutation snapshot until the TTL.
func cachedCart(ctx context.Context, carts cartCache, userID primitive.ObjectID, load func() (*models.Cart, error)) (*models.Cart, error) {
	cart, err := carts.Get(ctx, userID.Hex())
	if err != nil {
		log.Println("[CART] [ERROR] cache read failed:", err)
	}
	if cart != nil {
		return cart, nil
	}

	unlock := cartLocks.lock(userID.Hex())
	defer unlock()

	cart, err = load()
	if err != nil {
		return nil, err
	}
	if err := carts.Set(ctx, userID.Hex(), cart); err != nil {
		log.Println("[CART] [ERROR] cache write failed:", err)
	}
	return cart, nil
}

func loadCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (*models.Cart, bool, error) {
	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(cart)
	if err == mongo.ErrNoDocuments {
		return cart, false, nil
	}
	if err != nil {
		log.Println("[CART] [ERROR] cart lookup failed:", err)
		return nil, false, err
	}
	return cart, true, nil
}

// saveCart recomputes the total as the final step of the mutation, upserts
// the document and drops the cached copy.
func saveCart(ctx context.Context, db *mongo.Database, carts cartCache, cart *models.Cart) error {
	cart.TotalPrice = cartTotal(cart.Items)
	cart.UpdatedAt = time.Now()

	_, err := db.Collection("carts").ReplaceOne(
		ctx,
		bson.M{"userId": cart.UserID},
		cart,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		log.Println("[CART] [ERROR] save cart failed:", err)
		return err
	}

	if err := carts.Invalidate(ctx, cart.UserID.Hex()); err != nil {
		log.Println("[CART] [ERROR] cache invalidate failed:", err)
	}
	return nil
}

// buildCartView joins cart lines with current product image and stock while
// keeping the snapshot name and price.
func buildCartView(ctx context.Context, db *mongo.Database, cart *models.Cart) (cartView, error) {
	view := cartView{Items: make([]cartItemView, 0, len(cart.Items)), TotalPrice: cart.TotalPrice}
	if len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	cursor, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return cartView{}, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return cartView{}, err
	}

	productByID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, product := range products {
		productByID[product.ID] = product
	}

	for _, item := range cart.Items {
		line := cartItemView{
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
	return view, nil
}
