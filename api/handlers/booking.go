package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/lifecycle"
	"github.com/ford69/flexi-ride-api/models"
	"github.com/ford69/flexi-ride-api/pricing"
)

// Booking exported for testing purposes
type Booking struct {
	DB   databases.BookingDatabase
	CDB  databases.CarDatabase
	STDB databases.ServiceTypeDatabase
}

type createBookingRequest struct {
	CarID       string  `json:"carId"`
	ServiceCode string  `json:"serviceCode"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Hours       int     `json:"hours"`
	EstimatedKm float64 `json:"estimatedKm"`
}

// parseBookingDate accepts both full timestamps and bare dates
func parseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// CreateBookingHandler creates a booking request. The price is resolved at
// this moment and frozen into the booking; later catalog or car price edits
// never change it.
func (b Booking) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.CarID == "" || req.ServiceCode == "" || req.StartDate == "" || req.EndDate == "" {
		config.DomainError(w, &models.ValidationError{Reason: "carId, serviceCode, startDate and endDate are required"})
		return
	}

	start, err := parseBookingDate(req.StartDate)
	if err != nil {
		config.DomainError(w, &models.ValidationError{Reason: "startDate is not a valid date"})
		return
	}
	end, err := parseBookingDate(req.EndDate)
	if err != nil {
		config.DomainError(w, &models.ValidationError{Reason: "endDate is not a valid date"})
		return
	}
	if end.Before(start) {
		config.DomainError(w, &models.ValidationError{Reason: "endDate cannot be before startDate"})
		return
	}
	if req.Hours < 0 || req.EstimatedKm < 0 {
		config.DomainError(w, &models.ValidationError{Reason: "hours and estimatedKm cannot be negative"})
		return
	}

	cID, err := primitive.ObjectIDFromHex(req.CarID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	car, err := b.CDB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "car", ID: req.CarID})
		return
	}
	if !car.Details.Availability {
		config.DomainError(w, &models.ValidationError{Reason: "car is not available for booking"})
		return
	}

	offering, err := b.STDB.FindOne(context.Background(), bson.M{"serviceType.code": req.ServiceCode})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "service type", ID: req.ServiceCode})
		return
	}

	quote, err := pricing.Resolve(car, offering)
	if err != nil {
		config.DomainError(w, &models.ConflictError{Reason: err.Error()})
		return
	}
	total := quote.Total(pricing.TripParams{
		StartDate:   start,
		EndDate:     end,
		Hours:       req.Hours,
		EstimatedKm: req.EstimatedKm,
	})

	now := primitive.NewDateTimeFromTime(time.Now())
	booking := models.Booking{
		ID: primitive.NewObjectID(),
		Details: models.BookingDetails{
			UserID:        actor.ID,
			CarID:         req.CarID,
			ServiceCode:   req.ServiceCode,
			StartDate:     primitive.NewDateTimeFromTime(start),
			EndDate:       primitive.NewDateTimeFromTime(end),
			Hours:         req.Hours,
			EstimatedKm:   req.EstimatedKm,
			TotalPrice:    total,
			PricingUnit:   quote.Unit,
			Status:        models.BookingPending,
			PaymentStatus: models.PaymentUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Version: 0,
	}

	if _, err := b.DB.InsertOne(context.Background(), booking); err != nil {
		config.ErrorStatus("failed to create booking", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("booking created",
		"bookingID", booking.ID.Hex(),
		"carID", req.CarID,
		"serviceCode", req.ServiceCode,
		"totalPrice", total,
	)
	respBody, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(respBody)
}

// BookingsHandler lists bookings for the calling actor. A userId query param
// returns a requester's history; a carIds query param returns the owner view
// with requester identities joined on. Admins may query either freely.
func (b Booking) BookingsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if carIDs := r.URL.Query().Get("carIds"); carIDs != "" {
		b.ownerBookingsHandler(ctx, w, carIDs, actor)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = actor.ID
	}
	if userID != actor.ID && !actor.Can(models.CapViewAllBookings) {
		config.DomainError(w, &models.ForbiddenError{Reason: "cannot view another user's bookings"})
		return
	}

	dbResp, err := b.DB.Find(ctx, bson.M{"booking.userId": userID})
	if err != nil {
		config.ErrorStatus("failed to get bookings", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Booking{}
	}
	respBody, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

// ownerBookingsHandler returns bookings against the given cars, joined with
// each requester's public identity. Every requested car must belong to the
// caller unless the caller may view all bookings.
func (b Booking) ownerBookingsHandler(ctx context.Context, w http.ResponseWriter, carIDs string, actor models.Actor) {
	ids := strings.Split(carIDs, ",")

	if !actor.Can(models.CapViewAllBookings) {
		for _, id := range ids {
			cID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
			if err != nil {
				config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
				return
			}
			car, err := b.CDB.FindOne(ctx, bson.M{"_id": cID})
			if err != nil {
				config.DomainError(w, &models.NotFoundError{Resource: "car", ID: id})
				return
			}
			if car.Details.OwnerID != actor.ID {
				config.DomainError(w, &models.ForbiddenError{Reason: "cannot view bookings for another owner's car"})
				return
			}
		}
	}

	trimmed := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed = append(trimmed, strings.TrimSpace(id))
	}

	dbResp, err := b.DB.FindWithRequester(ctx, bson.M{"booking.carId": bson.M{"$in": trimmed}})
	if err != nil {
		config.ErrorStatus("failed to get bookings", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.BookingWithRequester{}
	}
	respBody, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

// BookingByIDHandler returns a booking by ID, visible to its requester, the
// vehicle owner and admins
func (b Booking) BookingByIDHandler(w http.ResponseWriter, r *http.Request) {
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

	booking, err := b.DB.FindOne(context.Background(), bson.M{"_id": bID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "booking", ID: bookingID})
		return
	}

	rel := b.relationTo(actor, booking)
	if rel == lifecycle.RelNone {
		config.DomainError(w, &models.ForbiddenError{Reason: "cannot view this booking"})
		return
	}

	respBody, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

type updateBookingRequest struct {
	Status           *models.BookingStatus `json:"status"`
	PaymentStatus    *models.PaymentStatus `json:"paymentStatus"`
	PaymentReference string                `json:"paymentReference"`
	Version          *int32                `json:"version"`
}

// UpdateBookingHandler applies a lifecycle transition, a payment recording,
// or both. The caller must echo back the version it read; the write only
// lands if that version is still current, otherwise a stale-write conflict
// is returned and the caller should re-fetch and retry.
func (b Booking) UpdateBookingHandler(w http.ResponseWriter, r *http.Request) {
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

	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Version == nil {
		config.DomainError(w, &models.ValidationError{Reason: "version is required"})
		return
	}
	if req.Status == nil && req.PaymentStatus == nil {
		config.DomainError(w, &models.ValidationError{Reason: "nothing to update"})
		return
	}
	if req.PaymentStatus != nil && *req.PaymentStatus != models.PaymentPaid {
		config.DomainError(w, &models.ValidationError{Reason: "payments cannot be reverted"})
		return
	}

	booking, err := b.DB.FindOne(context.Background(), bson.M{"_id": bID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "booking", ID: bookingID})
		return
	}

	rel := b.relationTo(actor, booking)
	now := time.Now()

	if req.PaymentStatus != nil {
		if err := lifecycle.MarkPaid(booking, req.PaymentReference, rel, now); err != nil {
			config.DomainError(w, err)
			return
		}
	}
	if req.Status != nil {
		if err := lifecycle.Transition(booking, *req.Status, rel, now); err != nil {
			config.DomainError(w, err)
			return
		}
	}

	res, err := b.DB.UpdateOne(context.Background(),
		bson.M{"_id": bID, "__v": *req.Version},
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
		config.ErrorStatus("failed to update booking", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		// the booking was either deleted or moved past the presented version
		if _, findErr := b.DB.FindOne(context.Background(), bson.M{"_id": bID}); findErr != nil {
			config.DomainError(w, &models.NotFoundError{Resource: "booking", ID: bookingID})
			return
		}
		config.DomainError(w, &models.StaleWriteError{Resource: "booking", ID: bookingID})
		return
	}

	booking.Version = *req.Version + 1
	zap.S().Infow("booking updated",
		"bookingID", bookingID,
		"status", booking.Details.Status,
		"paymentStatus", booking.Details.PaymentStatus,
	)
	respBody, err := json.Marshal(booking)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

// DeleteBookingHandler hard-deletes a booking. Reserved for the requester;
// owners decline instead of deleting.
func (b Booking) DeleteBookingHandler(w http.ResponseWriter, r *http.Request) {
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

	booking, err := b.DB.FindOne(context.Background(), bson.M{"_id": bID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "booking", ID: bookingID})
		return
	}

	if !lifecycle.CanDelete(b.relationTo(actor, booking)) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only the requester may delete a booking"})
		return
	}

	if _, err := b.DB.DeleteOne(context.Background(), bson.M{"_id": bID}); err != nil {
		config.ErrorStatus("failed to delete booking", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("booking deleted", "bookingID", bookingID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Booking deleted successfully",
	})
}

// relationTo derives the acting identity's relation to the booking. Requester
// beats owner when the requester booked their own car.
func (b Booking) relationTo(actor models.Actor, booking *models.Booking) lifecycle.Relation {
	if actor.ID == booking.Details.UserID {
		return lifecycle.RelRequester
	}
	if cID, err := primitive.ObjectIDFromHex(booking.Details.CarID); err == nil {
		if car, err := b.CDB.FindOne(context.Background(), bson.M{"_id": cID}); err == nil {
			if car.Details.OwnerID == actor.ID {
				return lifecycle.RelOwner
			}
		}
	}
	if actor.Can(models.CapRecordPayments) && !actor.IsAdmin() {
		return lifecycle.RelPayments
	}
	if actor.IsAdmin() {
		return lifecycle.RelAdmin
	}
	return lifecycle.RelNone
}
