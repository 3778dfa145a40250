package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ford69/flexi-ride-api/api/handlers"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/databases/mocks"
	"github.com/ford69/flexi-ride-api/models"
)

// bookingTestEnv wires mocked bookings, cars and serviceTypes collections
// behind one database helper
type bookingTestEnv struct {
	db          *MockDatabaseHelper
	bookingConn *mocks.CollectionHelper
	carConn     *mocks.CollectionHelper
	stConn      *mocks.CollectionHelper
}

func newBookingTestEnv() *bookingTestEnv {
	env := &bookingTestEnv{
		db:          &MockDatabaseHelper{},
		bookingConn: &mocks.CollectionHelper{},
		carConn:     &mocks.CollectionHelper{},
		stConn:      &mocks.CollectionHelper{},
	}
	env.db.On("Collection", "bookings").Return(env.bookingConn)
	env.db.On("Collection", "cars").Return(env.carConn)
	env.db.On("Collection", "serviceTypes").Return(env.stConn)
	return env
}

func (env *bookingTestEnv) handler() handlers.Booking {
	return handlers.Booking{
		DB:   databases.NewBookingDatabase(env.db),
		CDB:  databases.NewCarDatabase(env.db),
		STDB: databases.NewServiceTypeDatabase(env.db),
	}
}

func (env *bookingTestEnv) carExists(carID primitive.ObjectID, details models.CarDetails) {
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = carID
		(*arg).Details = details
	})
	env.carConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
}

func (env *bookingTestEnv) carMissing() {
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	env.carConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
}

func (env *bookingTestEnv) offeringExists(details models.ServiceTypeDetails) {
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.ServiceType)
		(*arg).ID = primitive.NewObjectID()
		(*arg).Details = details
	})
	env.stConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
}

func (env *bookingTestEnv) bookingExists(bookingID primitive.ObjectID, version int32, details models.BookingDetails) {
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Booking)
		(*arg).ID = bookingID
		(*arg).Version = version
		(*arg).Details = details
	})
	env.bookingConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
}

func TestBooking_CreateBookingHandlerFreezesResolvedPrice(t *testing.T) {
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	// the car carries an override above the catalog default; the override wins
	env.carExists(carID, models.CarDetails{
		OwnerID:      "owner1",
		Make:         "Toyota",
		Model:        "Corolla",
		Availability: true,
		ServicePrices: []models.CarServicePrice{
			{ServiceCode: "chauffeur", BasePrice: 150, TotalPrice: 180, Active: true},
		},
	})
	env.offeringExists(models.ServiceTypeDetails{
		Code:         "chauffeur",
		Name:         "Chauffeur",
		PricingUnit:  models.PerTrip,
		DefaultPrice: 150,
		Active:       true,
	})

	insertResult := &mocks.InsertOneResultHelper{}
	insertResult.On("Decode").Return(primitive.NewObjectID())
	env.bookingConn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil)

	req, err := http.NewRequest("POST", "/api/v1/bookings",
		strings.NewReader(`{"carId":"`+carID.Hex()+`","serviceCode":"chauffeur","startDate":"2026-09-10","endDate":"2026-09-12"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalPrice":180`)
	assert.Contains(t, rr.Body.String(), `"status":"pending"`)
	assert.Contains(t, rr.Body.String(), `"paymentStatus":"unpaid"`)
}

func TestBooking_CreateBookingHandlerUnpricedService(t *testing.T) {
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	// the car has no price entry for the requested offering
	env.carExists(carID, models.CarDetails{
		OwnerID:      "owner1",
		Availability: true,
	})
	env.offeringExists(models.ServiceTypeDetails{
		Code:        "chauffeur",
		PricingUnit: models.PerTrip,
		Active:      true,
	})

	req, err := http.NewRequest("POST", "/api/v1/bookings",
		strings.NewReader(`{"carId":"`+carID.Hex()+`","serviceCode":"chauffeur","startDate":"2026-09-10","endDate":"2026-09-12"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestBooking_CreateBookingHandlerInvertedDates(t *testing.T) {
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	req, err := http.NewRequest("POST", "/api/v1/bookings",
		strings.NewReader(`{"carId":"`+carID.Hex()+`","serviceCode":"chauffeur","startDate":"2026-09-12","endDate":"2026-09-10"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestBooking_UpdateBookingHandlerRequesterCannotConfirm(t *testing.T) {
	bookingID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.bookingExists(bookingID, 0, models.BookingDetails{
		UserID: "renter1",
		CarID:  primitive.NewObjectID().Hex(),
		Status: models.BookingPending,
	})

	req, err := http.NewRequest("PATCH", "/api/v1/bookings/"+bookingID.Hex(),
		strings.NewReader(`{"status":"confirmed","version":0}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().UpdateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBooking_UpdateBookingHandlerOwnerConfirms(t *testing.T) {
	bookingID := primitive.NewObjectID()
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.bookingExists(bookingID, 0, models.BookingDetails{
		UserID: "renter1",
		CarID:  carID.Hex(),
		Status: models.BookingPending,
	})
	env.carExists(carID, models.CarDetails{OwnerID: "owner1"})
	env.bookingConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req, err := http.NewRequest("PATCH", "/api/v1/bookings/"+bookingID.Hex(),
		strings.NewReader(`{"status":"confirmed","version":0}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "owner1", Role: models.RoleOwner})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().UpdateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"confirmed"`)
}

func TestBooking_UpdateBookingHandlerStaleVersion(t *testing.T) {
	bookingID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.bookingExists(bookingID, 2, models.BookingDetails{
		UserID: "renter1",
		CarID:  primitive.NewObjectID().Hex(),
		Status: models.BookingPending,
	})
	// the presented version no longer matches, the filtered write misses
	env.bookingConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	req, err := http.NewRequest("PATCH", "/api/v1/bookings/"+bookingID.Hex(),
		strings.NewReader(`{"status":"cancelled","version":1}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().UpdateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "re-fetch and retry")
}

func TestBooking_UpdateBookingHandlerMissingVersion(t *testing.T) {
	bookingID := primitive.NewObjectID()
	env := newBookingTestEnv()

	req, err := http.NewRequest("PATCH", "/api/v1/bookings/"+bookingID.Hex(),
		strings.NewReader(`{"status":"cancelled"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().UpdateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestBooking_UpdateBookingHandlerMarkPaidPromotes(t *testing.T) {
	bookingID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.bookingExists(bookingID, 0, models.BookingDetails{
		UserID: "renter1",
		CarID:  primitive.NewObjectID().Hex(),
		Status: models.BookingPending,
	})
	env.carMissing()
	env.bookingConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	req, err := http.NewRequest("PATCH", "/api/v1/bookings/"+bookingID.Hex(),
		strings.NewReader(`{"paymentStatus":"paid","paymentReference":"cs_test_123","version":0}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "pay-svc", Role: models.RolePayments})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().UpdateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"confirmed"`)
	assert.Contains(t, rr.Body.String(), `"paymentStatus":"paid"`)
	assert.Contains(t, rr.Body.String(), "cs_test_123")
}

func TestBooking_DeleteBookingHandlerOwnerForbidden(t *testing.T) {
	bookingID := primitive.NewObjectID()
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.bookingExists(bookingID, 0, models.BookingDetails{
		UserID: "renter1",
		CarID:  carID.Hex(),
		Status: models.BookingPending,
	})
	env.carExists(carID, models.CarDetails{OwnerID: "owner1"})

	req, err := http.NewRequest("DELETE", "/api/v1/bookings/"+bookingID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": bookingID.Hex()})
	req = withActor(req, models.Actor{ID: "owner1", Role: models.RoleOwner})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().DeleteBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBooking_BookingsHandlerForeignUserForbidden(t *testing.T) {
	env := newBookingTestEnv()

	req, err := http.NewRequest("GET", "/api/v1/bookings?userId=other-user", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().BookingsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBooking_BookingsHandlerOwnerViewJoinsRequester(t *testing.T) {
	carID := primitive.NewObjectID()
	env := newBookingTestEnv()

	env.carExists(carID, models.CarDetails{OwnerID: "owner1"})

	cursorHelper := &mocks.CursorHelper{}
	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.BookingWithRequester)
		item := models.BookingWithRequester{}
		item.ID = primitive.NewObjectID()
		item.Details = models.BookingDetails{UserID: "renter1", CarID: carID.Hex(), Status: models.BookingPending}
		item.Requester.ID = "renter1"
		item.Requester.Username = "renter-one"
		item.Requester.Email = "renter@example.com"
		*arg = []models.BookingWithRequester{item}
	})
	env.bookingConn.On("Aggregate", mock.Anything, mock.Anything).Return(cursorHelper, nil)

	req, err := http.NewRequest("GET", "/api/v1/bookings?carIds="+carID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "owner1", Role: models.RoleOwner})

	rr := httptest.NewRecorder()
	http.HandlerFunc(env.handler().BookingsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "renter-one")
}
