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
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ford69/flexi-ride-api/api/handlers"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/databases/mocks"
	"github.com/ford69/flexi-ride-api/models"
)

func TestCar_CarHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/cars?service_code=chauffeur", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Car)
		*arg = []models.Car{
			{ID: primitive.NewObjectID(), Details: models.CarDetails{
				OwnerID:      "owner1",
				Make:         "Toyota",
				Model:        "Corolla",
				Availability: true,
				ServicePrices: []models.CarServicePrice{
					{ServiceCode: "chauffeur", BasePrice: 150, TotalPrice: 180, Active: true},
				},
			}},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Corolla")
}

func TestCar_CarHandlerPageIsPerRequest(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	var skips []int64
	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Car)
		*arg = []models.Car{}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil).Run(func(args mock.Arguments) {
		opts := args.Get(2).(*options.FindOptions)
		skips = append(skips, *opts.Skip)
	})
	db.On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	for _, target := range []string{"/api/v1/cars?limit=2&page=3", "/api/v1/cars?limit=2"} {
		req, err := http.NewRequest("GET", target, nil)
		if err != nil {
			t.Fatal(err)
		}
		rr := httptest.NewRecorder()
		http.HandlerFunc(c.CarHandler).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// a request without a page param starts at the first page no matter what
	// the previous request asked for
	assert.Equal(t, []int64{6, 0}, skips)
}

func TestCar_CreateCarHandlerForbidden(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/cars",
		strings.NewReader(`{"make":"Toyota","model":"Corolla"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "renter1", Role: models.RoleRenter})

	db := &MockDatabaseHelper{}
	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCar_AttachServiceHandlerDuplicate(t *testing.T) {
	carID := primitive.NewObjectID()
	req, err := http.NewRequest("POST", "/api/v1/cars/"+carID.Hex()+"/services",
		strings.NewReader(`{"serviceCode":"chauffeur","basePrice":150,"totalPrice":180}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"car_id": carID.Hex()})
	req = withActor(req, models.Actor{ID: "owner1", Role: models.RoleOwner})

	db := &MockDatabaseHelper{}
	carConn := &mocks.CollectionHelper{}
	stConn := &mocks.CollectionHelper{}
	stSingleResult := &mocks.SingleResultHelper{}
	carSingleResult := &mocks.SingleResultHelper{}

	// the catalog offering exists
	stSingleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.ServiceType)
		(*arg).Details = models.ServiceTypeDetails{Code: "chauffeur", PricingUnit: models.PerTrip, Active: true}
	})
	stConn.On("FindOne", mock.Anything, mock.Anything).Return(stSingleResult)

	// the filtered push matches nothing, and the re-fetch shows the caller
	// owns the car, so the code must already be attached
	carConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	carSingleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = carID
		(*arg).Details = models.CarDetails{
			OwnerID: "owner1",
			ServicePrices: []models.CarServicePrice{
				{ServiceCode: "chauffeur", BasePrice: 150, TotalPrice: 180, Active: true},
			},
		}
	})
	carConn.On("FindOne", mock.Anything, mock.Anything).Return(carSingleResult)

	db.On("Collection", "serviceTypes").Return(stConn)
	db.On("Collection", "cars").Return(carConn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.AttachServiceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCar_AttachServiceHandlerUnknownCode(t *testing.T) {
	carID := primitive.NewObjectID()
	req, err := http.NewRequest("POST", "/api/v1/cars/"+carID.Hex()+"/services",
		strings.NewReader(`{"serviceCode":"ghost","basePrice":10}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"car_id": carID.Hex()})
	req = withActor(req, models.Actor{ID: "owner1", Role: models.RoleOwner})

	db := &MockDatabaseHelper{}
	stConn := &mocks.CollectionHelper{}
	stSingleResult := &mocks.SingleResultHelper{}

	stSingleResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	stConn.On("FindOne", mock.Anything, mock.Anything).Return(stSingleResult)
	db.On("Collection", "serviceTypes").Return(stConn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.AttachServiceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCar_UpdateCarHandlerForeignCar(t *testing.T) {
	carID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/cars/"+carID.Hex(),
		strings.NewReader(`{"availability":false}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"car_id": carID.Hex()})
	req = withActor(req, models.Actor{ID: "owner2", Role: models.RoleOwner})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Car)
		(*arg).ID = carID
		(*arg).Details = models.CarDetails{OwnerID: "owner1"}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "cars").Return(conn)

	c := handlers.Car{DB: databases.NewCarDatabase(db), STDB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateCarHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
