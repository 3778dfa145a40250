package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PricingUnit represents how a service offering's price is applied
type PricingUnit string

// Predefined PricingUnit values
const (
	PerDay  PricingUnit = "per_day"
	PerHour PricingUnit = "per_hour"
	PerTrip PricingUnit = "per_trip"
	PerKm   PricingUnit = "per_km"
)

// ValidPricingUnits returns all valid PricingUnit values
func ValidPricingUnits() []PricingUnit {
	return []PricingUnit{PerDay, PerHour, PerTrip, PerKm}
}

// IsValid checks if the PricingUnit value is one of the predefined constants
func (u PricingUnit) IsValid() bool {
	for _, valid := range ValidPricingUnits() {
		if u == valid {
			return true
		}
	}
	return false
}

// ServiceType holds the structure for the serviceTypes collection in mongo
type ServiceType struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Details ServiceTypeDetails `json:"serviceType" bson:"serviceType"`
	Version int32              `json:"__v" bson:"__v"`
}

// ServiceTypeDetails holds the inner structure of a catalog service offering.
// Code is the stable identity; deactivating an offering hides it from new
// bookings but never rewrites prices already frozen into existing bookings.
type ServiceTypeDetails struct {
	Code         string      `json:"code" bson:"code"`
	Name         string      `json:"name" bson:"name"`
	Description  string      `json:"description" bson:"description"`
	PricingUnit  PricingUnit `json:"pricingUnit" bson:"pricingUnit"`
	DefaultPrice float64     `json:"defaultPrice" bson:"defaultPrice"`
	Icon         string      `json:"icon" bson:"icon"`
	SortOrder    int         `json:"sortOrder" bson:"sortOrder"`
	Active       bool        `json:"active" bson:"active"`
	CreatedAt    interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt    interface{} `json:"updatedAt" bson:"updatedAt"`
}
