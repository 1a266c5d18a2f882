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

type ProductCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Brand       string  `json:"brand" binding:"required"`
	CategoryID  string  `json:"categoryId" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	Stock       *int    `json:"stock" binding:"required"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name"`
	Brand       *string  `json:"brand"`
	CategoryID  *string  `json:"categoryId"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

/*
GET /products
- pagination is optional: without page+limit all products are returned
- ?category= filters by category id, ?search= matches the name
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			log.Printf("[%s] database unavailable: %v", route, err)
			respondUpstream(c, "database unavailable")
			return
		}

		filter := bson.M{"isDeleted": bson.M{"$ne": true}}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			categoryID, err := primitive.ObjectIDFromHex(category)
			if err != nil {
				respondValidation(c, "invalid category")
				return
			}
			filter["categoryId"] = categoryID
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")

		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondValidation(c, "invalid pagination params")
				return
			}

			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondUpstream(c, "decode error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

func GetProductByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err := db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "product not found")
			return
		}
		if err != nil {
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": product})
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.CategoryID))
		if err != nil {
			respondValidation(c, "invalid categoryId")
			return
		}
		if req.Price <= 0 {
			respondValidation(c, "price must be greater than 0")
			return
		}
		if *req.Stock < 0 {
			respondValidation(c, "stock cannot be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("categories").FindOne(ctx, bson.M{"_id": categoryID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				respondValidation(c, "invalid categoryId")
				return
			}
			respondUpstream(c, "db error")
			return
		}

		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Brand:       strings.TrimSpace(req.Brand),
			CategoryID:  categoryID,
			Price:       req.Price,
			Stock:       *req.Stock,
			Description: strings.TrimSpace(req.Description),
			Image:       strings.TrimSpace(req.Image),
			CreatedAt:   time.Now(),
		}

		result, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] insert product failed:", err)
			respondUpstream(c, "db error")
			return
		}
		product.ID = result.InsertedID.(primitive.ObjectID)

		log.Println("[PRODUCT] [INFO] product created:", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"data": product})
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondValidation(c, "name cannot be empty")
				return
			}
			update["name"] = name
		}
		if req.Brand != nil {
			update["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.CategoryID != nil {
			categoryID, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.CategoryID))
			if err != nil {
				respondValidation(c, "invalid categoryId")
				return
			}
			update["categoryId"] = categoryID
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				respondValidation(c, "price must be greater than 0")
				return
			}
			update["price"] = *req.Price
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondValidation(c, "stock cannot be negative")
				return
			}
			update["stock"] = *req.Stock
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Image != nil {
			update["image"] = strings.TrimSpace(*req.Image)
		}

		if len(update) == 0 {
			respondValidation(c, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var updated models.Product
		err := db.Collection("products").
			FindOneAndUpdate(
				ctx,
				bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
				bson.M{"$set": update},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).
			Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "product not found")
			return
		}
		if err != nil {
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": updated})
	}
}

/*
DELETE /admin/api/products/:id
- soft delete; historical order lines keep referencing the document
*/
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		now := time.Now()
		result, err := db.Collection("products").UpdateOne(
			ctx,
			bson.M{"_id": productID, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now}},
		)
		if err != nil {
			respondUpstream(c, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondNotFound(c, "product not found")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
