package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ford69/flexi-ride-api/models"
	"github.com/ford69/flexi-ride-api/pricing"
)

func airportTransfer(active bool) *models.ServiceType {
	st := &models.ServiceType{}
	st.Details.Code = "airport"
	st.Details.Name = "Airport Transfer"
	st.Details.PricingUnit = models.PerTrip
	st.Details.DefaultPrice = 150
	st.Details.Active = active
	return st
}

func carWithPrice(code string, total float64, active bool) *models.Car {
	c := &models.Car{}
	c.Details.Availability = true
	c.Details.ServicePrices = []models.CarServicePrice{
		{ServiceCode: code, BasePrice: total, TotalPrice: total, Active: active},
	}
	return c
}

func TestResolve_VehiclePriceOverridesCatalogDefault(t *testing.T) {
	car := carWithPrice("airport", 180, true)
	quote, err := pricing.Resolve(car, airportTransfer(true))
	assert.NoError(t, err)
	assert.Equal(t, 180.0, quote.Price)
	assert.Equal(t, models.PerTrip, quote.Unit)
}

func TestResolve_UnpricedWhenCodeMissing(t *testing.T) {
	car := carWithPrice("hourly", 25, true)
	_, err := pricing.Resolve(car, airportTransfer(true))
	assert.ErrorIs(t, err, pricing.ErrUnpriced)
}

func TestResolve_UnpricedWhenVehicleEntryInactive(t *testing.T) {
	car := carWithPrice("airport", 180, false)
	_, err := pricing.Resolve(car, airportTransfer(true))
	assert.ErrorIs(t, err, pricing.ErrUnpriced)
}

func TestResolve_UnpricedWhenOfferingDeactivated(t *testing.T) {
	car := carWithPrice("airport", 180, true)
	_, err := pricing.Resolve(car, airportTransfer(false))
	assert.ErrorIs(t, err, pricing.ErrUnpriced)
}

func TestQuoteTotal(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		quote pricing.Quote
		p     pricing.TripParams
		want  float64
	}{
		{"per trip is the total", pricing.Quote{Price: 180, Unit: models.PerTrip}, pricing.TripParams{}, 180},
		{"per day multiplies by days", pricing.Quote{Price: 50, Unit: models.PerDay},
			pricing.TripParams{StartDate: start, EndDate: start.AddDate(0, 0, 3)}, 150},
		{"per day bills at least one day", pricing.Quote{Price: 50, Unit: models.PerDay},
			pricing.TripParams{StartDate: start, EndDate: start}, 50},
		{"per hour multiplies by hours", pricing.Quote{Price: 25, Unit: models.PerHour},
			pricing.TripParams{Hours: 4}, 100},
		{"per hour bills at least one hour", pricing.Quote{Price: 25, Unit: models.PerHour},
			pricing.TripParams{}, 25},
		{"per km multiplies by estimate", pricing.Quote{Price: 2, Unit: models.PerKm},
			pricing.TripParams{EstimatedKm: 42}, 84},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.quote.Total(tc.p))
		})
	}
}

// Catalog edits after resolution must not affect a frozen quote.
func TestResolve_QuoteIsDetachedFromCatalog(t *testing.T) {
	car := carWithPrice("airport", 180, true)
	offering := airportTransfer(true)

	quote, err := pricing.Resolve(car, offering)
	assert.NoError(t, err)

	offering.Details.DefaultPrice = 200
	car.Details.ServicePrices[0].TotalPrice = 250

	assert.Equal(t, 180.0, quote.Price)
}
