package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// BookingStatus represents the current state of a booking in its lifecycle
type BookingStatus string

// Predefined BookingStatus values
const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingDeclined  BookingStatus = "declined"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// PaymentStatus is the independent payment axis of a booking. It moves one
// way: unpaid to paid. No refund-to-unpaid transition is modeled.
type PaymentStatus string

// Predefined PaymentStatus values
const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Booking holds the structure for the bookings collection in mongo. The
// top-level __v doubles as the optimistic concurrency token: every mutating
// call must present the version it read, and updates increment it.
type Booking struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Details BookingDetails     `json:"booking" bson:"booking"`
	Version int32              `json:"__v" bson:"__v"`
}

// BookingDetails holds the inner structure of a booking document. TotalPrice
// is a frozen quote captured at creation; later catalog or car price edits
// never touch it.
type BookingDetails struct {
	UserID         string             `json:"userId" bson:"userId"`
	CarID          string             `json:"carId" bson:"carId"`
	ServiceCode    string             `json:"serviceCode" bson:"serviceCode"`
	StartDate      primitive.DateTime `json:"startDate" bson:"startDate"`
	EndDate        primitive.DateTime `json:"endDate" bson:"endDate"`
	Hours          int                `json:"hours,omitempty" bson:"hours,omitempty"`
	EstimatedKm    float64            `json:"estimatedKm,omitempty" bson:"estimatedKm,omitempty"`
	TotalPrice     float64            `json:"totalPrice" bson:"totalPrice"`
	PricingUnit    PricingUnit        `json:"pricingUnit" bson:"pricingUnit"`
	Status         BookingStatus      `json:"status" bson:"status"`
	PaymentStatus  PaymentStatus      `json:"paymentStatus" bson:"paymentStatus"`
	PaymentRef     string             `json:"paymentRef,omitempty" bson:"paymentRef,omitempty"`
	ReminderSentAt interface{}        `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`
	CreatedAt      interface{}        `json:"createdAt" bson:"createdAt"`
	UpdatedAt      interface{}        `json:"updatedAt" bson:"updatedAt"`
}

// BookingWithRequester is the aggregate shape returned for owner and admin
// views, joining the requesting user's public identity onto the booking
type BookingWithRequester struct {
	Booking   `bson:",inline"`
	Requester struct {
		ID       string `json:"_id" bson:"_id"`
		Username string `json:"username" bson:"username"`
		Email    string `json:"email" bson:"email"`
	} `json:"requester" bson:"requester"`
}
