package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Bhandara struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Date        time.Time          `bson:"date" json:"date"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"` // active, closed
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`

	// Derived from date + global lock flag, never stored
	IsLocked bool `bson:"-" json:"is_locked"`
}
