package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Car holds the structure for the cars collection in mongo
type Car struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Details CarDetails         `json:"car" bson:"car"`
	Version int32              `json:"__v" bson:"__v"`
}

// CarDetails holds the inner structure of a vehicle listing. OwnerID is set
// from the authenticated actor at creation and is immutable afterwards.
type CarDetails struct {
	OwnerID       string            `json:"ownerId" bson:"ownerId"`
	Make          string            `json:"make" bson:"make"`
	Model         string            `json:"model" bson:"model"`
	Year          int               `json:"year" bson:"year"`
	Type          string            `json:"type" bson:"type"`
	Location      string            `json:"location" bson:"location"`
	Description   string            `json:"description" bson:"description"`
	Images        []string          `json:"images" bson:"images"`
	Features      []string          `json:"features" bson:"features"`
	Availability  bool              `json:"availability" bson:"availability"`
	ServicePrices []CarServicePrice `json:"servicePrices" bson:"servicePrices"`
	CreatedAt     interface{}       `json:"createdAt" bson:"createdAt"`
	UpdatedAt     interface{}       `json:"updatedAt" bson:"updatedAt"`
}

// CarServicePrice is a vehicle-scoped price override for one catalog service
// offering. At most one entry exists per (car, serviceCode) pair; Active lets
// a car disable a globally active offering for itself.
type CarServicePrice struct {
	ServiceCode string  `json:"serviceCode" bson:"serviceCode"`
	BasePrice   float64 `json:"basePrice" bson:"basePrice"`
	TotalPrice  float64 `json:"totalPrice" bson:"totalPrice"`
	Active      bool    `json:"active" bson:"active"`
}

// ServicePrice returns the car's price entry for the given service code, or
// nil if the car does not carry one
func (d CarDetails) ServicePrice(code string) *CarServicePrice {
	for i := range d.ServicePrices {
		if d.ServicePrices[i].ServiceCode == code {
			return &d.ServicePrices[i]
		}
	}
	return nil
}
