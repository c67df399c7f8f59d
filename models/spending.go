package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SpendingItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"` // unique case-insensitively
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

type BhandaraSpending struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SpendingItemID primitive.ObjectID `bson:"spendingItem" json:"spending_item_id"`
	BhandaraID     primitive.ObjectID `bson:"bhandara" json:"bhandara_id"`
	Amount         float64            `bson:"amount" json:"amount"`
	PaymentMode    string             `bson:"paymentMode" json:"payment_mode"` // cash, upi, bank
	Date           time.Time          `bson:"date" json:"date"`
	Note           string             `bson:"note,omitempty" json:"note,omitempty"`
	AdminID        primitive.ObjectID `bson:"admin" json:"admin_id"`
	IsLocked       bool               `bson:"isLocked" json:"is_locked"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}
