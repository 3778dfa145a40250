package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ford69/flexi-ride-api/api"
	"github.com/ford69/flexi-ride-api/api/handlers"
	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/databases/mocks"
	"github.com/ford69/flexi-ride-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

// withActor stamps an authenticated actor onto the request the way the auth
// middleware does
func withActor(req *http.Request, actor models.Actor) *http.Request {
	return req.WithContext(api.WithActor(req.Context(), actor))
}

func TestServiceType_ListActiveHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/service-types", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.ServiceType)
		*arg = []models.ServiceType{
			{Details: models.ServiceTypeDetails{Code: "chauffeur", Name: "Chauffeur", PricingUnit: models.PerTrip, DefaultPrice: 150, Active: true}},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorHelper, nil)
	db.On("Collection", "serviceTypes").Return(conn)

	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ListActiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chauffeur")
}

func TestServiceType_CreateServiceTypeHandlerForbidden(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/service-types",
		strings.NewReader(`{"code":"chauffeur","name":"Chauffeur","pricingUnit":"per_trip","defaultPrice":150}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "user1", Role: models.RoleRenter})

	db := &MockDatabaseHelper{}
	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateServiceTypeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestServiceType_CreateServiceTypeHandlerDuplicate(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/service-types",
		strings.NewReader(`{"code":"chauffeur","name":"Chauffeur","pricingUnit":"per_trip","defaultPrice":150}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "admin1", Role: models.RoleAdmin})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "serviceTypes").Return(conn)

	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateServiceTypeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestServiceType_CreateServiceTypeHandlerInvalidUnit(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/service-types",
		strings.NewReader(`{"code":"chauffeur","name":"Chauffeur","pricingUnit":"per_lightyear","defaultPrice":150}`))
	if err != nil {
		t.Fatal(err)
	}
	req = withActor(req, models.Actor{ID: "admin1", Role: models.RoleAdmin})

	db := &MockDatabaseHelper{}
	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateServiceTypeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestServiceType_DeactivateServiceTypeHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("DELETE", "/api/v1/service-types/ghost", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"code": "ghost"})
	req = withActor(req, models.Actor{ID: "admin1", Role: models.RoleAdmin})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	db.On("Collection", "serviceTypes").Return(conn)

	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.DeactivateServiceTypeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServiceType_ListActiveHandlerDBError(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/service-types", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	db.On("Collection", "serviceTypes").Return(conn)

	s := handlers.ServiceType{DB: databases.NewServiceTypeDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ListActiveHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
