package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

// UserCreateHandler creates a user account. New accounts default to the
// renter role; owner accounts are requested at signup, admin and payments
// roles are never self-assignable.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var details models.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	details.Email = strings.TrimSpace(strings.ToLower(details.Email))
	if details.Email == "" || details.Password == "" {
		config.DomainError(w, &models.ValidationError{Reason: "email and password are required"})
		return
	}

	switch details.Role {
	case models.RoleRenter, models.RoleOwner:
	case "":
		details.Role = models.RoleRenter
	default:
		config.DomainError(w, &models.ValidationError{Reason: "role must be renter or owner"})
		return
	}

	existingUser, _ := u.DB.FindOne(context.Background(), bson.M{"user.email": details.Email})
	if existingUser != nil {
		config.DomainError(w, &models.ConflictError{Reason: "email already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hashedPassword)
	details.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	details.UpdatedAt = details.CreatedAt

	user := models.User{
		ID:      primitive.NewObjectID().Hex(),
		Details: details,
	}
	if _, err := u.DB.InsertOne(context.Background(), user); err != nil {
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user created", "userID", user.ID, "role", details.Role)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"_id":  user.ID,
		"role": string(details.Role),
	})
}

// UserHandler returns a user by ID. The password hash is stripped from the
// response.
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	dbResp, err := u.DB.FindOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		config.DomainError(w, &models.NotFoundError{Resource: "user", ID: userID})
		return
	}
	dbResp.Details.Password = ""

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginHandler authenticates an admin account and returns a signed JWT
// carrying the admin's identity and role
func (u User) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.DomainError(w, &models.ValidationError{Reason: "email and password are required"})
		return
	}

	admin, err := u.DB.FindOne(r.Context(), bson.M{"user.email": email, "user.role": models.RoleAdmin})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Details.Password), []byte(req.Password)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Error:   "Invalid credentials",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("JWT_SECRET is not set"))
		return
	}

	claims := jwt.MapClaims{
		"sub":  admin.ID,
		"role": string(models.RoleAdmin),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"token": signed,
		"_id":   admin.ID,
		"role":  string(models.RoleAdmin),
	})
}
