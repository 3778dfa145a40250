package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/gorilla/mux"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/models"
)

// ServiceType exported for testing purposes
type ServiceType struct {
	DB databases.ServiceTypeDatabase
}

func catalogSortOpts() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "serviceType.sortOrder", Value: 1},
		{Key: "serviceType.name", Value: 1},
	})
}

// ListActiveHandler returns the active service offerings renters can book
func (s ServiceType) ListActiveHandler(w http.ResponseWriter, r *http.Request) {
	dbResp, err := s.DB.Find(context.TODO(), bson.M{"serviceType.active": true}, catalogSortOpts())
	if err != nil {
		config.ErrorStatus("failed to get service types", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ServiceType{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ListAllHandler returns every service offering including deactivated ones
func (s ServiceType) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok || !actor.Can(models.CapManageCatalog) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only administrators may view the full catalog"})
		return
	}

	dbResp, err := s.DB.Find(context.TODO(), bson.M{}, catalogSortOpts())
	if err != nil {
		config.ErrorStatus("failed to get service types", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ServiceType{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateServiceTypeHandler creates a catalog service offering
func (s ServiceType) CreateServiceTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok || !actor.Can(models.CapManageCatalog) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only administrators may manage the catalog"})
		return
	}

	var serviceType models.ServiceType
	if err := json.NewDecoder(r.Body).Decode(&serviceType.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validateServiceType(serviceType.Details); err != nil {
		config.DomainError(w, err)
		return
	}

	// name and code are both unique across the catalog
	count, err := s.DB.CountDocuments(context.Background(), bson.M{"$or": []bson.M{
		{"serviceType.code": serviceType.Details.Code},
		{"serviceType.name": serviceType.Details.Name},
	}})
	if err != nil {
		config.ErrorStatus("failed to check for existing service type", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.DomainError(w, &models.ConflictError{Reason: "a service type with that code or name already exists"})
		return
	}

	serviceType.ID = primitive.NewObjectID()
	serviceType.Details.Active = true
	serviceType.Details.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	serviceType.Details.UpdatedAt = serviceType.Details.CreatedAt

	if _, err := s.DB.InsertOne(context.Background(), serviceType); err != nil {
		config.ErrorStatus("failed to create service type", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("service type created", "code", serviceType.Details.Code)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Service type created successfully",
		"id":      serviceType.ID.Hex(),
	})
}

type updateServiceTypeRequest struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	PricingUnit  *models.PricingUnit `json:"pricingUnit"`
	DefaultPrice *float64            `json:"defaultPrice"`
	Icon         *string             `json:"icon"`
	SortOrder    *int                `json:"sortOrder"`
	Active       *bool               `json:"active"`
}

// UpdateServiceTypeHandler applies a partial update to a catalog offering.
// Stored booking prices are frozen quotes and are never touched by catalog
// edits.
func (s ServiceType) UpdateServiceTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok || !actor.Can(models.CapManageCatalog) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only administrators may manage the catalog"})
		return
	}

	code := mux.Vars(r)["code"]

	var req updateServiceTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"serviceType.updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != nil {
		set["serviceType.name"] = *req.Name
	}
	if req.Description != nil {
		set["serviceType.description"] = *req.Description
	}
	if req.PricingUnit != nil {
		if !req.PricingUnit.IsValid() {
			config.DomainError(w, &models.ValidationError{Reason: "invalid pricing unit"})
			return
		}
		set["serviceType.pricingUnit"] = *req.PricingUnit
	}
	if req.DefaultPrice != nil {
		if *req.DefaultPrice < 0 {
			config.DomainError(w, &models.ValidationError{Reason: "default price cannot be negative"})
			return
		}
		set["serviceType.defaultPrice"] = *req.DefaultPrice
	}
	if req.Icon != nil {
		set["serviceType.icon"] = *req.Icon
	}
	if req.SortOrder != nil {
		set["serviceType.sortOrder"] = *req.SortOrder
	}
	if req.Active != nil {
		set["serviceType.active"] = *req.Active
	}

	res, err := s.DB.UpdateOne(context.Background(), bson.M{"serviceType.code": code}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update service type", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.DomainError(w, &models.NotFoundError{Resource: "service type", ID: code})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Service type updated successfully",
	})
}

// DeactivateServiceTypeHandler hides an offering from new bookings. Existing
// bookings keep their frozen prices.
func (s ServiceType) DeactivateServiceTypeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFrom(r)
	if !ok || !actor.Can(models.CapManageCatalog) {
		config.DomainError(w, &models.ForbiddenError{Reason: "only administrators may manage the catalog"})
		return
	}

	code := mux.Vars(r)["code"]

	res, err := s.DB.UpdateOne(context.Background(), bson.M{"serviceType.code": code}, bson.M{"$set": bson.M{
		"serviceType.active":    false,
		"serviceType.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to deactivate service type", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.DomainError(w, &models.NotFoundError{Resource: "service type", ID: code})
		return
	}

	zap.S().Infow("service type deactivated", "code", code)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Service type deactivated successfully",
	})
}

func validateServiceType(d models.ServiceTypeDetails) error {
	if d.Code == "" || d.Name == "" {
		return &models.ValidationError{Reason: "code and name are required"}
	}
	if !d.PricingUnit.IsValid() {
		return &models.ValidationError{Reason: "invalid pricing unit"}
	}
	if d.DefaultPrice < 0 {
		return &models.ValidationError{Reason: "default price cannot be negative"}
	}
	return nil
}
