package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a delivery destination. Status=false marks a soft-deleted entry.
type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	AddressLine string             `bson:"address_line" json:"address_line"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	Pincode     string             `bson:"pincode" json:"pincode"`
	Country     string             `bson:"country" json:"country"`
	Mobile      string             `bson:"delivery_mobile" json:"delivery_mobile"`
	IsDefault   bool               `bson:"isDefault" json:"isDefault"`
	Status      bool               `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		Pincode:     a.Pincode,
		Mobile:      a.Mobile,
	}
}
