package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a saved shipping address. At most one address per user carries
// isDefault=true; whenever the user has at least one address, exactly one does.
type Address struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Recipient     string             `bson:"recipient" json:"recipient"`
	PhoneNumber   string             `bson:"phoneNumber" json:"phoneNumber"`
	Province      string             `bson:"province" json:"province"`
	District      string             `bson:"district" json:"district"`
	Ward          string             `bson:"ward" json:"ward"`
	StreetAddress string             `bson:"streetAddress" json:"streetAddress"`
	IsDefault     bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullText renders the address as a single shipping line for order documents.
func (a Address) FullText() string {
	return a.StreetAddress + ", " + a.Ward + ", " + a.District + ", " + a.Province
}
