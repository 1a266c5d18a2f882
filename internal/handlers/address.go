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
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopapi/internal/models"
)

func GetUserAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{
			{Key: "isDefault", Value: -1},
			{Key: "createdAt", Value: -1},
		})

		cursor, err := db.Collection("addresses").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			log.Println("[ADDRESS] [ERROR] list addresses failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer cursor.Close(ctx)

		addresses := make([]models.Address, 0)
		if err := cursor.All(ctx, &addresses); err != nil {
			log.Println("[ADDRESS] [ERROR] decode addresses failed:", err)
			respondUpstream(c, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": addresses})
	}
}

func CreateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}

		var req addressCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if err := validateAddressCreate(&req); err != nil {
			respondValidation(c, err.Error())
			return
		}

		unlock := addressLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("addresses").CountDocuments(ctx, bson.M{"userId": userID})
		if err != nil {
			log.Println("[ADDRESS] [ERROR] count addresses failed:", err)
			respondUpstream(c, "db error")
			return
		}

		now := time.Now()
		address := models.Address{
			UserID:        userID,
			Recipient:     req.Recipient,
			PhoneNumber:   req.PhoneNumber,
			Province:      req.Province,
			District:      req.District,
			Ward:          req.Ward,
			StreetAddress: req.StreetAddress,
			IsDefault:     defaultForNewAddress(req.IsDefault, count),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		// Persistence-level guard: a write that sets the default clears the
		// flag on every sibling first.
		if address.IsDefault {
			if err := clearDefaultAddresses(ctx, db, userID, primitive.NilObjectID); err != nil {
				log.Println("[ADDRESS] [ERROR] clear default siblings failed:", err)
				respondUpstream(c, "db error")
				return
			}
		}

		result, err := db.Collection("addresses").InsertOne(ctx, address)
		if err != nil {
			log.Println("[ADDRESS] [ERROR] insert address failed:", err)
			respondUpstream(c, "db error")
			return
		}
		address.ID = result.InsertedID.(primitive.ObjectID)

		log.Println("[ADDRESS] [INFO] address created:", address.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"data": address})
	}
}

func UpdateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		addressID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		var input addressUpdateInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidationError(c, err)
			return
		}

		unlock := addressLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var address models.Address
		err := db.Collection("addresses").FindOne(ctx, bson.M{"_id": addressID, "userId": userID}).Decode(&address)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "address not found")
			return
		}
		if err != nil {
			log.Println("[ADDRESS] [ERROR] address lookup failed:", err)
			respondUpstream(c, "db error")
			return
		}

		updated, promoted, demoted := applyAddressUpdate(address, input)
		updated.UpdatedAt = time.Now()

		if promoted {
			if err := clearDefaultAddresses(ctx, db, userID, addressID); err != nil {
				log.Println("[ADDRESS] [ERROR] clear default siblings failed:", err)
				respondUpstream(c, "db error")
				return
			}
		}

		// Demoting the default hands the flag to the oldest sibling; with no
		// sibling the user would be left with addresses but no default.
		var successor models.Address
		if demoted {
			err := db.Collection("addresses").FindOne(
				ctx,
				bson.M{"userId": userID, "_id": bson.M{"$ne": addressID}},
				options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
			).Decode(&successor)
			if err == mongo.ErrNoDocuments {
				respondValidation(c, "cannot unset the default on the only address")
				return
			}
			if err != nil {
				log.Println("[ADDRESS] [ERROR] successor lookup failed:", err)
				respondUpstream(c, "db error")
				return
			}
		}

		_, err = db.Collection("addresses").ReplaceOne(ctx, bson.M{"_id": addressID, "userId": userID}, updated)
		if err != nil {
			log.Println("[ADDRESS] [ERROR] update address failed:", err)
			respondUpstream(c, "db error")
			return
		}

		if demoted {
			_, err := db.Collection("addresses").UpdateOne(
				ctx,
				bson.M{"_id": successor.ID},
				bson.M{"$set": bson.M{"isDefault": true, "updatedAt": time.Now()}},
			)
			if err != nil {
				log.Println("[ADDRESS] [ERROR] promote successor failed:", err)
				respondUpstream(c, "db error")
				return
			}
		}

		log.Println("[ADDRESS] [INFO] address updated:", addressID.Hex())
		c.JSON(http.StatusOK, gin.H{"data": updated})
	}
}

func SetDefaultUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		addressID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		unlock := addressLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[ADDRESS] [ERROR] start session failed:", err)
			respondUpstream(c, "db error")
			return
		}
		defer session.EndSession(ctx)

		var updated models.Address
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			// Ownership is validated before any sibling is touched, so a
			// failed call never strips the current default.
			if err := db.Collection("addresses").FindOne(sessCtx, bson.M{
				"_id":    addressID,
				"userId": userID,
			}).Err(); err != nil {
				return nil, err
			}

			if err := clearDefaultAddresses(sessCtx, db, userID, addressID); err != nil {
				return nil, err
			}

			return nil, db.Collection("addresses").FindOneAndUpdate(
				sessCtx,
				bson.M{"_id": addressID, "userId": userID},
				bson.M{"$set": bson.M{"isDefault": true, "updatedAt": time.Now()}},
				options.FindOneAndUpdate().SetReturnDocument(options.After),
			).Decode(&updated)
		})
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "address not found")
			return
		}
		if err != nil {
			if isTransientTxnError(err) {
				respondConflict(c, "concurrent address update, retry")
				return
			}
			log.Println("[ADDRESS] [ERROR] set default failed:", err)
			respondUpstream(c, "db error")
			return
		}

		log.Println("[ADDRESS] [INFO] default address set:", addressID.Hex())
		c.JSON(http.StatusOK, gin.H{"data": updated})
	}
}

func DeleteUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requestUserID(c)
		if !ok {
			return
		}
		addressID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}

		unlock := addressLocks.lock(userID.Hex())
		defer unlock()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var deleted models.Address
		err := db.Collection("addresses").FindOneAndDelete(ctx, bson.M{
			"_id":    addressID,
			"userId": userID,
		}).Decode(&deleted)
		if err == mongo.ErrNoDocuments {
			respondNotFound(c, "address not found")
			return
		}
		if err != nil {
			log.Println("[ADDRESS] [ERROR] delete address failed:", err)
			respondUpstream(c, "db error")
			return
		}

		// Deleting the default promotes the oldest remaining address.
		if deleted.IsDefault {
			err := db.Collection("addresses").FindOneAndUpdate(
				ctx,
				bson.M{"userId": userID},
				bson.M{"$set": bson.M{"isDefault": true, "updatedAt": time.Now()}},
				options.FindOneAndUpdate().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
			).Err()
			if err != nil && err != mongo.ErrNoDocuments {
				log.Println("[ADDRESS] [ERROR] promote oldest address failed:", err)
				respondUpstream(c, "db error")
				return
			}
		}

		log.Println("[ADDRESS] [INFO] address deleted:", addressID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
	}
}

// clearDefaultAddresses clears isDefault on every address the user owns,
// except the one being promoted.
func clearDefaultAddresses(ctx context.Context, db *mongo.Database, userID, except primitive.ObjectID) error {
	filter := bson.M{"userId": userID, "isDefault": true}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	_, err := db.Collection("addresses").UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isDefault": false}})
	return err
}
