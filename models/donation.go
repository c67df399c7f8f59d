package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Donation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID       primitive.ObjectID `bson:"donor" json:"donor_id"`
	BhandaraID    primitive.ObjectID `bson:"bhandara" json:"bhandara_id"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentStatus string             `bson:"paymentStatus" json:"payment_status"` // always "done"
	PaymentMode   string             `bson:"paymentMode" json:"payment_mode"`     // cash, upi, bank
	Date          time.Time          `bson:"date" json:"date"`
	Note          string             `bson:"note,omitempty" json:"note,omitempty"`
	ReceiptURL    string             `bson:"receipt_url,omitempty" json:"receipt_url,omitempty"`
	AdminID       primitive.ObjectID `bson:"admin" json:"admin_id"`
	IsLocked      bool               `bson:"isLocked" json:"is_locked"`
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updated_at"`
}
