// Package pricing resolves the applicable price for a (car, service offering)
// pair. Resolution is a pure function of the current car and catalog state;
// the caller freezes the result into the booking at creation time, so there
// is no caching layer that could serve a stale price.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/ford69/flexi-ride-api/models"
)

// ErrUnpriced signals that the car does not expose an active price for the
// requested service offering. Callers must not create a booking from it.
var ErrUnpriced = errors.New("service is not priced for this vehicle")

// Quote is the resolved price for a (car, service offering) pair. Unit is
// copied from the catalog offering at resolution time.
type Quote struct {
	Price float64            `json:"price"`
	Unit  models.PricingUnit `json:"pricingUnit"`
}

// TripParams carries the booking request values a quote is applied against
type TripParams struct {
	StartDate   time.Time
	EndDate     time.Time
	Hours       int
	EstimatedKm float64
}

// Resolve returns the applicable quote for the service code on the car, or
// ErrUnpriced when the car carries no entry for the code, the entry is
// disabled for this car, or the catalog offering itself is inactive.
func Resolve(car *models.Car, offering *models.ServiceType) (Quote, error) {
	if car == nil || offering == nil {
		return Quote{}, ErrUnpriced
	}
	if !offering.Details.Active {
		return Quote{}, ErrUnpriced
	}
	sp := car.Details.ServicePrice(offering.Details.Code)
	if sp == nil || !sp.Active {
		return Quote{}, ErrUnpriced
	}
	return Quote{Price: sp.TotalPrice, Unit: offering.Details.PricingUnit}, nil
}

// Total applies the quote's unit to the trip parameters. A per_trip quote is
// the total; the other units multiply by the billed quantity, never less
// than one unit.
func (q Quote) Total(p TripParams) float64 {
	switch q.Unit {
	case models.PerDay:
		return q.Price * float64(billedDays(p.StartDate, p.EndDate))
	case models.PerHour:
		hours := p.Hours
		if hours < 1 {
			hours = 1
		}
		return q.Price * float64(hours)
	case models.PerKm:
		km := p.EstimatedKm
		if km < 1 {
			km = 1
		}
		return q.Price * km
	default:
		return q.Price
	}
}

func billedDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
