package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	DB       databases.CollectionHelper
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	st := ServiceType{DB: databases.NewServiceTypeDatabase(a.dbHelper)}
	c := Car{DB: databases.NewCarDatabase(a.dbHelper), STDB: databases.NewServiceTypeDatabase(a.dbHelper)}
	b := Booking{
		DB:   databases.NewBookingDatabase(a.dbHelper),
		CDB:  databases.NewCarDatabase(a.dbHelper),
		STDB: databases.NewServiceTypeDatabase(a.dbHelper),
	}
	p := Payment{
		DB:     databases.NewBookingDatabase(a.dbHelper),
		CDB:    databases.NewCarDatabase(a.dbHelper),
		UDB:    databases.NewUserDatabase(a.dbHelper),
		Config: a.Config,
	}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/admin-token", http.HandlerFunc(u.AdminLoginHandler)).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/service-types", http.HandlerFunc(st.ListActiveHandler)).Methods("GET")
	apiCreate.Handle("/service-types/all", api.Middleware(http.HandlerFunc(st.ListAllHandler))).Methods("GET")
	apiCreate.Handle("/service-types", api.Middleware(http.HandlerFunc(st.CreateServiceTypeHandler))).Methods("POST")
	apiCreate.Handle("/service-types/{code}", api.Middleware(http.HandlerFunc(st.UpdateServiceTypeHandler))).Methods("PUT")
	apiCreate.Handle("/service-types/{code}", api.Middleware(http.HandlerFunc(st.DeactivateServiceTypeHandler))).Methods("DELETE")

	apiCreate.Handle("/cars", http.HandlerFunc(c.CarHandler)).Methods("GET")
	apiCreate.Handle("/cars", api.Middleware(http.HandlerFunc(c.CreateCarHandler))).Methods("POST")
	apiCreate.Handle("/cars/owner/{owner_id}", api.Middleware(http.HandlerFunc(c.CarsByOwnerIDHandler))).Methods("GET")
	apiCreate.Handle("/cars/{car_id}", http.HandlerFunc(c.CarByIDHandler)).Methods("GET")
	apiCreate.Handle("/cars/{car_id}", api.Middleware(http.HandlerFunc(c.UpdateCarHandler))).Methods("PUT")
	apiCreate.Handle("/cars/{car_id}", api.Middleware(http.HandlerFunc(c.DeleteCarHandler))).Methods("DELETE")
	apiCreate.Handle("/cars/{car_id}/services", api.Middleware(http.HandlerFunc(c.AttachServiceHandler))).Methods("POST")
	apiCreate.Handle("/cars/{car_id}/services/{code}", api.Middleware(http.HandlerFunc(c.UpdateServicePriceHandler))).Methods("PATCH")

	apiCreate.Handle("/bookings", api.Middleware(http.HandlerFunc(b.CreateBookingHandler))).Methods("POST")
	apiCreate.Handle("/bookings", api.Middleware(http.HandlerFunc(b.BookingsHandler))).Methods("GET")
	apiCreate.Handle("/bookings/{booking_id}", api.Middleware(http.HandlerFunc(b.BookingByIDHandler))).Methods("GET")
	apiCreate.Handle("/bookings/{booking_id}", api.Middleware(http.HandlerFunc(b.UpdateBookingHandler))).Methods("PATCH")
	apiCreate.Handle("/bookings/{booking_id}", api.Middleware(http.HandlerFunc(b.DeleteBookingHandler))).Methods("DELETE")
	apiCreate.Handle("/bookings/{booking_id}/checkout-session", api.Middleware(http.HandlerFunc(p.CreateCheckoutSessionHandler))).Methods("POST")

	// stripe authenticates the webhook with its own signature, not a bearer token
	apiCreate.Handle("/payments/webhook", http.HandlerFunc(p.WebhookHandler)).Methods("POST")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("flexi-ride-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DBHelper exposes the connected database helper so main can wire background
// jobs against the same connection
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
