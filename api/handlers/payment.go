package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/lifecycle"
	"github.com/ford69/flexi-ride-api/models"
	templates "github.com/ford69/flexi-ride-api/templates/html"
)

// Payment exported for testing purposes
type Payment struct {
	DB     databases.BookingDatabase
	CDB    databases.CarDatabase
	UDB    databases.UserDatabase
	Config config.Config
}

// amountInCents converts a booking total to the smallest currency unit,
// rounding half-cent amounts rather than truncating them
func amountInCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateCheckoutSessionHandler creates a stripe checkout session for an
// unpaid booking. Only the requester pays for their own booking.
func (p Payment) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	bookingID := mux.Vars(r)["booking_id"]
	bID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	booking, err := p.DB.FindOne(context.Background(), bson.M{"_id": bID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "booking", ID: bookingID})
		return
	}
	if booking.Details.UserID != actor.ID {
		config.DomainError(w, &models.ForbiddenError{Reason: "only the requester may pay for a booking"})
		return
	}
	if booking.Details.PaymentStatus == models.PaymentPaid {
		config.DomainError(w, &models.ConflictError{Reason: "booking is already paid"})
		return
	}
	if lifecycle.IsTerminal(booking.Details.Status) {
		config.DomainError(w, &models.ConflictError{Reason: "booking is no longer payable"})
		return
	}

	itemName := "Booking " + booking.Details.ServiceCode
	if cID, err := primitive.ObjectIDFromHex(booking.Details.CarID); err == nil {
		if car, err := p.CDB.FindOne(context.Background(), bson.M{"_id": cID}); err == nil {
			itemName = fmt.Sprintf("%s %s - %s", car.Details.Make, car.Details.Model, booking.Details.ServiceCode)
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(itemName),
					},
					UnitAmount: stripe.Int64(amountInCents(booking.Details.TotalPrice)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.Config.BaseURL + "/bookings/" + bookingID + "?payment=success"),
		CancelURL:  stripe.String(p.Config.BaseURL + "/bookings/" + bookingID + "?payment=cancelled"),
	}
	params.AddMetadata("bookingId", bookingID)

	s, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("checkout session created", "bookingID", bookingID, "sessionID", s.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"sessionId": s.ID,
		"url":       s.URL,
	})
}

// WebhookHandler receives stripe webhook events. The stripe signature header
// authenticates the caller, so this route carries no bearer middleware; a
// verified event acts with the payment subsystem's authority.
func (p Payment) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		config.ErrorStatus("failed to read webhook body", http.StatusServiceUnavailable, w, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), os.Getenv("STRIPE_WEBHOOK_SECRET"))
	if err != nil {
		config.ErrorStatus("failed to verify webhook signature", http.StatusBadRequest, w, err)
		return
	}

	if event.Type != "checkout.session.completed" {
		zap.S().Debugw("ignoring webhook event", "type", event.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		config.ErrorStatus("failed to parse webhook event data", http.StatusBadRequest, w, err)
		return
	}

	bookingID := cs.Metadata["bookingId"]
	if bookingID == "" {
		config.ErrorStatus("checkout session has no booking id", http.StatusBadRequest, w, fmt.Errorf("missing bookingId metadata"))
		return
	}

	if err := p.recordPayment(bookingID, cs.ID); err != nil {
		config.DomainError(w, err)
		return
	}

	go p.sendReceiptEmail(bookingID)

	zap.S().Infow("payment recorded", "bookingID", bookingID, "sessionID", cs.ID)
	w.WriteHeader(http.StatusOK)
}

// sendReceiptEmail emails the renter a confirmation receipt. Failures are
// logged and swallowed; the payment is already recorded.
func (p Payment) sendReceiptEmail(bookingID string) {
	bID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return
	}
	booking, err := p.DB.FindOne(context.Background(), bson.M{"_id": bID})
	if err != nil {
		return
	}
	renter, err := p.UDB.FindOne(context.Background(), bson.M{"_id": booking.Details.UserID})
	if err != nil || renter.Details.Email == "" {
		zap.S().Warnw("renter has no reachable email", "bookingID", bookingID)
		return
	}

	carName := booking.Details.ServiceCode
	if cID, err := primitive.ObjectIDFromHex(booking.Details.CarID); err == nil {
		if car, err := p.CDB.FindOne(context.Background(), bson.M{"_id": cID}); err == nil {
			carName = fmt.Sprintf("%s %s", car.Details.Make, car.Details.Model)
		}
	}

	subject := "Booking Confirmed - FlexiRide"
	htmlContent := templates.RenderBookingConfirmedEmail(
		renter.Details.Name, carName, booking.Details.ServiceCode, booking.Details.TotalPrice)
	plainText := fmt.Sprintf("Your booking for %s is confirmed. Total paid: $%.2f", carName, booking.Details.TotalPrice)

	from := mail.NewEmail("FlexiRide", "no-reply@flexiride.app")
	to := mail.NewEmail(renter.Details.Name, renter.Details.Email)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send booking receipt", "error", err, "bookingID", bookingID)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}

// recordPayment applies the paid compound transition under the booking's
// version token, retrying once if a concurrent write moved the version
func (p Payment) recordPayment(bookingID, paymentRef string) error {
	bID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return &models.ValidationError{Reason: "invalid booking id in checkout metadata"}
	}

	for attempt := 0; attempt < 2; attempt++ {
		booking, err := p.DB.FindOne(context.Background(), bson.M{"_id": bID})
		if err != nil {
			return &models.NotFoundError{Resource: "booking", ID: bookingID}
		}

		now := time.Now()
		if err := lifecycle.MarkPaid(booking, paymentRef, lifecycle.RelPayments, now); err != nil {
			return err
		}

		res, err := p.DB.UpdateOne(context.Background(),
			bson.M{"_id": bID, "__v": booking.Version},
			bson.M{
				"$set": bson.M{
					"booking.status":        booking.Details.Status,
					"booking.paymentStatus": booking.Details.PaymentStatus,
					"booking.paymentRef":    booking.Details.PaymentRef,
					"booking.updatedAt":     primitive.NewDateTimeFromTime(now),
				},
				"$inc": bson.M{"__v": 1},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return &models.StaleWriteError{Resource: "booking", ID: bookingID}
}
