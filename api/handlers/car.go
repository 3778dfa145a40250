package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/models"
)

// Car exported for testing purposes
type Car struct {
	DB   databases.CarDatabase
	STDB databases.ServiceTypeDatabase
}

// CarHandler returns the public list of available cars. An optional
// service_code query param narrows the list to cars carrying an active price
// entry for that offering.
func (c Car) CarHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	page := getPage(0, r)
	skip64 := int64(page * Limit)

	filter := bson.M{"car.availability": true}
	if code := r.URL.Query().Get("service_code"); code != "" {
		filter["car.servicePrices"] = bson.M{"$elemMatch": bson.M{
			"serviceCode": code,
			"active":      true,
		}}
	}

	dbResp, err := c.DB.Find(context.TODO(), filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get cars", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Car{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func getPage(page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", page)
	} else {
		var err error
		page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", page))
			return 0
		}
	}
	return page
}

// CreateCarHandler creates a vehicle listing owned by the authenticated actor
func (c Car) CreateCarHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok || !actor.Can(models.CapListCars) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only owners may list vehicles"})
		return
	}

	var car models.Car
	if err := json.NewDecoder(r.Body).Decode(&car.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if car.Details.Make == "" || car.Details.Model == "" {
		config.DomainError(w, &models.ValidationError{Reason: "make and model are required"})
		return
	}

	// ownership comes from the token, never from the body
	car.ID = primitive.NewObjectID()
	car.Details.OwnerID = actor.ID
	car.Details.Availability = true
	car.Details.ServicePrices = []models.CarServicePrice{}
	car.Details.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	car.Details.UpdatedAt = car.Details.CreatedAt

	if _, err := c.DB.InsertOne(context.Background(), car); err != nil {
		config.ErrorStatus("failed to create car", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("car listed", "carID", car.ID.Hex(), "ownerID", actor.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car created successfully",
		"id":      car.ID.Hex(),
	})
}

// CarByIDHandler returns a car by ID
func (c Car) CarByIDHandler(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["car_id"]

	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "car", ID: carID})
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CarsByOwnerIDHandler returns all cars listed by the given owner
func (c Car) CarsByOwnerIDHandler(w http.ResponseWriter, r *http.Request) {
	ownerID := mux.Vars(r)["owner_id"]

	actor, ok := api.ActorFrom(r)
	if !ok || (actor.ID != ownerID && !actor.IsAdmin()) {
		config.DomainError(w, &models.ForbiddenError{Reason: "cannot view another owner's listings"})
		return
	}

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v", Limit|10))
	}
	page := getPage(0, r)

	dbResp, err := c.DB.FindPaged(context.TODO(), bson.M{"car.ownerId": ownerID}, Limit, page)
	if err != nil {
		config.ErrorStatus("failed to get cars by owner id", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Car{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateCarRequest struct {
	Make         *string   `json:"make"`
	Model        *string   `json:"model"`
	Year         *int      `json:"year"`
	Type         *string   `json:"type"`
	Location     *string   `json:"location"`
	Description  *string   `json:"description"`
	Images       *[]string `json:"images"`
	Features     *[]string `json:"features"`
	Availability *bool     `json:"availability"`
}

// UpdateCarHandler applies a partial update to a listing. Only the owning
// actor may edit a car; admins may moderate any listing. OwnerID and the
// service price list are not editable here.
func (c Car) UpdateCarHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	carID := mux.Vars(r)["car_id"]
	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req updateCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"car.updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Make != nil {
		set["car.make"] = *req.Make
	}
	if req.Model != nil {
		set["car.model"] = *req.Model
	}
	if req.Year != nil {
		set["car.year"] = *req.Year
	}
	if req.Type != nil {
		set["car.type"] = *req.Type
	}
	if req.Location != nil {
		set["car.location"] = *req.Location
	}
	if req.Description != nil {
		set["car.description"] = *req.Description
	}
	if req.Images != nil {
		set["car.images"] = *req.Images
	}
	if req.Features != nil {
		set["car.features"] = *req.Features
	}
	if req.Availability != nil {
		set["car.availability"] = *req.Availability
	}

	filter := bson.M{"_id": cID}
	if !actor.Can(models.CapModerateListings) {
		filter["car.ownerId"] = actor.ID
	}

	res, err := c.DB.UpdateOne(context.Background(), filter, bson.M{
		"$set": set,
		"$inc": bson.M{"__v": 1},
	})
	if err != nil {
		config.ErrorStatus("failed to update car", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		c.carWriteMiss(w, cID, carID, actor)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car updated successfully",
	})
}

// DeleteCarHandler removes a listing. Owner-only, admins may moderate.
func (c Car) DeleteCarHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	carID := mux.Vars(r)["car_id"]
	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	filter := bson.M{"_id": cID}
	if !actor.Can(models.CapModerateListings) {
		filter["car.ownerId"] = actor.ID
	}

	res, err := c.DB.DeleteOne(context.Background(), filter)
	if err != nil {
		config.ErrorStatus("failed to delete car", http.StatusInternalServerError, w, err)
		return
	}
	if res.DeletedCount == 0 {
		c.carWriteMiss(w, cID, carID, actor)
		return
	}

	zap.S().Infow("car deleted", "carID", carID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Car deleted successfully",
	})
}

type attachServiceRequest struct {
	ServiceCode string  `json:"serviceCode"`
	BasePrice   float64 `json:"basePrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// AttachServiceHandler attaches a per-vehicle price entry for a catalog
// offering. At most one entry may exist per (car, serviceCode) pair; the
// uniqueness check and the push happen in a single filtered update so two
// concurrent attaches cannot both succeed.
func (c Car) AttachServiceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	carID := mux.Vars(r)["car_id"]
	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req attachServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.ServiceCode == "" {
		config.DomainError(w, &models.ValidationError{Reason: "serviceCode is required"})
		return
	}
	if req.BasePrice < 0 || req.TotalPrice < 0 {
		config.DomainError(w, &models.ValidationError{Reason: "prices cannot be negative"})
		return
	}
	if req.TotalPrice == 0 {
		req.TotalPrice = req.BasePrice
	}

	// the service code must name a real catalog offering
	if _, err := c.STDB.FindOne(context.Background(), bson.M{"serviceType.code": req.ServiceCode}); err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "service type", ID: req.ServiceCode})
		return
	}

	entry := models.CarServicePrice{
		ServiceCode: req.ServiceCode,
		BasePrice:   req.BasePrice,
		TotalPrice:  req.TotalPrice,
		Active:      true,
	}

	filter := bson.M{
		"_id":                           cID,
		"car.servicePrices.serviceCode": bson.M{"$ne": req.ServiceCode},
	}
	if !actor.Can(models.CapModerateListings) {
		filter["car.ownerId"] = actor.ID
	}

	res, err := c.DB.UpdateOne(context.Background(), filter, bson.M{
		"$push": bson.M{"car.servicePrices": entry},
		"$set":  bson.M{"car.updatedAt": primitive.NewDateTimeFromTime(time.Now())},
		"$inc":  bson.M{"__v": 1},
	})
	if err != nil {
		config.ErrorStatus("failed to attach service", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		// disambiguate: missing car, foreign car, or duplicate code
		car, findErr := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
		switch {
		case findErr != nil:
			config.DomainError(w, &models.NotFoundError{Resource: "car", ID: carID})
		case car.Details.OwnerID != actor.ID && !actor.Can(models.CapModerateListings):
			config.DomainError(w, &models.ForbiddenError{Reason: "cannot modify another owner's car"})
		default:
			config.DomainError(w, &models.ConflictError{Reason: "service is already attached to this car"})
		}
		return
	}

	zap.S().Infow("service attached", "carID", carID, "serviceCode", req.ServiceCode)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Service attached successfully",
	})
}

type updateServicePriceRequest struct {
	BasePrice  *float64 `json:"basePrice"`
	TotalPrice *float64 `json:"totalPrice"`
	Active     *bool    `json:"active"`
}

// UpdateServicePriceHandler edits an existing per-vehicle price entry.
// Bookings already created keep the price frozen at their creation time.
func (c Car) UpdateServicePriceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok {
		config.DomainError(w, &models.ForbiddenError{Reason: "authentication required"})
		return
	}

	carID := mux.Vars(r)["car_id"]
	code := mux.Vars(r)["code"]
	cID, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req updateServicePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"car.updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.BasePrice != nil {
		if *req.BasePrice < 0 {
			config.DomainError(w, &models.ValidationError{Reason: "prices cannot be negative"})
			return
		}
		set["car.servicePrices.$.basePrice"] = *req.BasePrice
	}
	if req.TotalPrice != nil {
		if *req.TotalPrice < 0 {
			config.DomainError(w, &models.ValidationError{Reason: "prices cannot be negative"})
			return
		}
		set["car.servicePrices.$.totalPrice"] = *req.TotalPrice
	}
	if req.Active != nil {
		set["car.servicePrices.$.active"] = *req.Active
	}

	filter := bson.M{
		"_id":                           cID,
		"car.servicePrices.serviceCode": code,
	}
	if !actor.Can(models.CapModerateListings) {
		filter["car.ownerId"] = actor.ID
	}

	res, err := c.DB.UpdateOne(context.Background(), filter, bson.M{
		"$set": set,
		"$inc": bson.M{"__v": 1},
	})
	if err != nil {
		config.ErrorStatus("failed to update service price", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		car, findErr := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
		switch {
		case findErr != nil:
			config.DomainError(w, &models.NotFoundError{Resource: "car", ID: carID})
		case car.Details.OwnerID != actor.ID && !actor.Can(models.CapModerateListings):
			config.DomainError(w, &models.ForbiddenError{Reason: "cannot modify another owner's car"})
		default:
			config.DomainError(w, &models.NotFoundError{Resource: "service price", ID: code})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Service price updated successfully",
	})
}

func (c Car) carWriteMiss(w http.ResponseWriter, cID primitive.ObjectID, carID string, actor models.Actor) {
	car, findErr := c.DB.FindOne(context.Background(), bson.M{"_id": cID})
	if findErr != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "car", ID: carID})
		return
	}
	if car.Details.OwnerID != actor.ID && !actor.Can(models.CapModerateListings) {
		config.DomainError(w, &models.ForbiddenError{Reason: "cannot modify another owner's car"})
		return
	}
	config.DomainError(w, &models.NotFoundError{Resource: "car", ID: carID})
}
