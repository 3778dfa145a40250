package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ford69/flexi-ride-api/models"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.NotNil(t, l)
}

func TestDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &models.NotFoundError{Resource: "car", ID: "x"}, http.StatusNotFound},
		{"conflict", &models.ConflictError{Reason: "duplicate code"}, http.StatusConflict},
		{"forbidden", &models.ForbiddenError{Reason: "nope"}, http.StatusForbidden},
		{"validation", &models.ValidationError{Reason: "bad dates"}, http.StatusUnprocessableEntity},
		{"stale write", &models.StaleWriteError{Resource: "booking", ID: "x"}, http.StatusConflict},
		{"unknown", errors.New("mongo timeout"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			DomainError(rr, tc.err)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
