package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"` // stored uppercase
	Pin       string             `bson:"pin" json:"-"`             // bcrypt hash
	Role      string             `bson:"role" json:"role"`         // admin, super-admin
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}
