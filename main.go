package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"shopapi/internal/cache"
	"shopapi/internal/config"
	"shopapi/internal/database"
	"shopapi/internal/handlers"
	"shopapi/internal/middleware"
	"shopapi/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureAddressIndexes(db); err != nil {
		log.Printf("⚠️ address index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("⚠️ cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}

	carts := cache.NewCartCache(config.AppEnv.RedisAddr, config.AppEnv.RedisPassword)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := carts.Ping(pingCtx); err != nil {
		log.Printf("⚠️ redis warning: %v", err)
	}
	cancel()

	gateway := payment.NewClient(payment.Config{
		TmnCode:    config.AppEnv.VNPayTmnCode,
		HashSecret: config.AppEnv.VNPayHashSecret,
		BaseURL:    config.AppEnv.VNPayBaseURL,
		ReturnURL:  config.AppEnv.VNPayReturnURL,
	})

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/auth/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.GET("/auth/me", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetMe(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProductByID(db))
	r.GET("/categories", handlers.GetCategories(db))

	r.GET("/payments/vnpay/return", handlers.VNPayReturn(db, carts, gateway))

	user := r.Group("/user")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/addresses", handlers.GetUserAddresses(db))
		user.POST("/addresses", handlers.CreateUserAddress(db))
		user.PUT("/addresses/:id", handlers.UpdateUserAddress(db))
		user.PUT("/addresses/:id/default", handlers.SetDefaultUserAddress(db))
		user.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))

		user.GET("/cart", handlers.GetCart(db, carts))
		user.POST("/cart/items", handlers.AddCartItem(db, carts))
		user.PUT("/cart/items/:productId", handlers.UpdateCartItemQuantity(db, carts))
		user.DELETE("/cart/items/:productId", handlers.RemoveCartItem(db, carts))
		user.DELETE("/cart", handlers.ClearCart(db, carts))

		user.GET("/orders", handlers.GetUserOrders(db))
		user.POST("/orders", handlers.CreateOrder(db, carts))
		user.GET("/orders/:id", handlers.GetUserOrderByID(db))

		user.POST("/payments/vnpay/url", handlers.CreateVNPayURL(db, gateway))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/carts/:userId", handlers.AdminGetCart(db))

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
