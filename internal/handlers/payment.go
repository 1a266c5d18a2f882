package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shopapi/internal/models"
	"shopapi/internal/payment"
)

type vnpayURLRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// CreateVNPayURL builds the signed gateway redirect URL for an order that is
// awaiting payment. Safe to call again after a gateway timeout: the order
// stays awaiting and a fresh URL gets a fresh expiry window.
func CreateVNPayURL(db *mongo.Database, gateway *payment.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var req vnpayURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			respondValidation(c, "invalid orderId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
			"status": models.OrderStatusAwaitingPayment,
		}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "awaiting order not found")
			return
		}
		if err != nil {
			log.Println("[PAYMENT] [ERROR] order lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		payURL, err := gateway.BuildPayURL(order.TotalPrice, order.Code, "Thanh toan don hang:"+order.Code, c.ClientIP())
		if err != nil {
			respondValidation(c, err.Error())
			return
		}

		log.Println("[PAYMENT] [INFO] payment url issued for order:", order.Code)
		c.JSON(http.StatusOK, gin.H{"paymentUrl": payURL})
	}
}

// VNPayReturn is the gateway's synchronous callback. A verified "00" response
// is the single trigger that both confirms the awaiting order and clears the
// cart; any other outcome voids the awaiting order and leaves the cart as it
// was.
func VNPayReturn(db *mongo.Database, carts cartCache, gateway *payment.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		if !gateway.VerifyReturn(query) {
			respondValidation(c, "invalid gateway signature")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		code := query.Get("vnp_TxnRef")
		var order models.Order
		err := db.Collection("orders").FindOne(ctx, bson.M{
			"code":   code,
			"status": models.OrderStatusAwaitingPayment,
		}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "awaiting order not found")
			return
		}
		if err != nil {
			log.Println("[PAYMENT] [ERROR] order lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		amount, err := payment.ParseAmount(query.Get("vnp_Amount"))
		if err != nil || amount != payment.AmountValue(order.TotalPrice) {
			log.Println("[PAYMENT] [ERROR] amount mismatch for order:", order.Code)
			respondValidation(c, "amount mismatch")
			return
		}

		status := payment.StatusFromCode(query.Get("vnp_ResponseCode"))
		if !status.Success {
			// A retryable decline keeps the order awaiting so the client can
			// request a fresh payment URL; everything else voids it.
			if !status.Retryable {
				if _, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": order.ID}); err != nil {
					log.Println("[PAYMENT] [ERROR] void order failed:", err)
					respondUpstream(c, "db error")
					return
				}
			}
			log.Println("[PAYMENT] [INFO] payment declined for order:", order.Code, "code:", status.Code)
			c.JSON(http.StatusOK, gin.H{
				"status":    "failed",
				"code":      status.Code,
				"message":   status.Message,
				"retryable": status.Retryable,
			})
			return
		}

		unlock := cartLocks.lock(order.UserID.Hex())
		defer unlock()

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[PAYMENT] [ERROR] start session failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			res, err := db.Collection("orders").UpdateOne(
				sessCtx,
				bson.M{"_id": order.ID, "status": models.OrderStatusAwaitingPayment},
				bson.M{"$set": bson.M{"status": models.OrderStatusPending}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				// Already confirmed by a concurrent callback.
				return nil, nil
			}
			_, err = db.Collection("carts").DeleteOne(sessCtx, bson.M{"userId": order.UserID})
			return nil, err
		})
		if err != nil {
			if isTransientTxnError(err) {
				respondConflict(c, "concurrent payment confirmation, retry")
				return
			}
			log.Println("[PAYMENT] [ERROR] confirm order failed:", err)
			respondUpstream(c, "db error")
			return
		}

		if err := carts.Invalidate(ctx, order.UserID.Hex()); err != nil {
			log.Println("[PAYMENT] [ERROR] cache invalidate failed:", err)
		}

		order.Status = models.OrderStatusPending
		log.Println("[PAYMENT] [INFO] payment confirmed for order:", order.Code)
		c.JSON(http.StatusOK, gin.H{"status": "confirmed", "data": order})
	}
}
