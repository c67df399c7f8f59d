package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Donor struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorName  string             `bson:"donorName" json:"donor_name"`
	FatherName string             `bson:"fatherName,omitempty" json:"father_name,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"created_at"`
}
