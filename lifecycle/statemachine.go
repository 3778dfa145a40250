// Package lifecycle implements the booking state machine: which status
// transitions exist, which actor relation may trigger each one, and the
// MarkPaid compound transition tying the payment axis to the status axis.
package lifecycle

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ford69/flexi-ride-api/models"
)

// Relation describes how the acting identity relates to the booking under
// mutation. Handlers derive it once from the actor, the booking and the car.
type Relation int

// Relation values
const (
	RelNone Relation = iota
	RelRequester
	RelOwner
	RelAdmin
	RelPayments
)

// validTransitions defines the directed graph of allowed status transitions.
// declined, cancelled and completed are terminal.
var validTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingDeclined, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCompleted, models.BookingCancelled},
	models.BookingDeclined:  {},
	models.BookingCancelled: {},
	models.BookingCompleted: {},
}

// CanTransition reports whether from -> to is an allowed status transition
func CanTransition(from, to models.BookingStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined from the status
func IsTerminal(s models.BookingStatus) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return true
	}
	return len(allowed) == 0
}

// IsValidStatus reports whether the status is a recognized booking status
func IsValidStatus(s models.BookingStatus) bool {
	_, ok := validTransitions[s]
	return ok
}

// Transition applies a status change to the booking after checking both the
// transition graph and the actor relation. A requester cancelling a booking
// that already reached a terminal status is a no-op; every other guard
// violation returns a typed error and leaves the booking untouched.
func Transition(b *models.Booking, to models.BookingStatus, rel Relation, now time.Time) error {
	if !IsValidStatus(to) {
		return &models.ValidationError{Reason: "unknown booking status: " + string(to)}
	}

	from := b.Details.Status
	switch to {
	case models.BookingCancelled:
		if rel != RelRequester {
			return &models.ForbiddenError{Reason: "only the requester may cancel a booking"}
		}
		if IsTerminal(from) {
			return nil
		}
	case models.BookingConfirmed, models.BookingDeclined:
		if rel != RelOwner {
			return &models.ForbiddenError{Reason: "only the vehicle owner may confirm or decline a booking"}
		}
	case models.BookingCompleted:
		if rel != RelOwner && rel != RelAdmin {
			return &models.ForbiddenError{Reason: "only the vehicle owner or an administrator may complete a booking"}
		}
	default:
		return &models.ValidationError{Reason: "bookings cannot be moved back to " + string(to)}
	}

	if !CanTransition(from, to) {
		return &models.ValidationError{Reason: "invalid booking status transition: " + string(from) + " -> " + string(to)}
	}

	b.Details.Status = to
	b.Details.UpdatedAt = primitive.NewDateTimeFromTime(now)
	return nil
}

// MarkPaid is the named compound transition driven by the payment subsystem:
// marking a booking paid forces its status to confirmed, regardless of a prior
// pending or declined state. On a cancelled or completed booking the payment
// is still recorded but the terminal status is left alone.
func MarkPaid(b *models.Booking, paymentRef string, rel Relation, now time.Time) error {
	if rel != RelPayments && rel != RelAdmin {
		return &models.ForbiddenError{Reason: "only the payment subsystem may record payments"}
	}

	b.Details.PaymentStatus = models.PaymentPaid
	if paymentRef != "" {
		b.Details.PaymentRef = paymentRef
	}
	switch b.Details.Status {
	case models.BookingCancelled, models.BookingCompleted:
		// keep the terminal status
	default:
		b.Details.Status = models.BookingConfirmed
	}
	b.Details.UpdatedAt = primitive.NewDateTimeFromTime(now)
	return nil
}

// CanDelete reports whether the relation may hard-delete the booking. Unlike
// cancellation, deletion removes the record entirely and is reserved for the
// requester's own explicit action.
func CanDelete(rel Relation) bool {
	return rel == RelRequester
}
