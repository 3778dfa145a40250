package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
	}

}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

// DomainError maps a typed domain error to its HTTP status code and writes
// the response. Anything outside the known taxonomy is reported as a generic
// internal error so storage failures stay distinct from domain rejections.
func DomainError(w http.ResponseWriter, err error) {
	var (
		notFound   *models.NotFoundError
		conflict   *models.ConflictError
		forbidden  *models.ForbiddenError
		validation *models.ValidationError
		stale      *models.StaleWriteError
	)
	switch {
	case errors.As(err, &notFound):
		ErrorStatus(err.Error(), http.StatusNotFound, w, err)
	case errors.As(err, &conflict):
		ErrorStatus(err.Error(), http.StatusConflict, w, err)
	case errors.As(err, &forbidden):
		ErrorStatus(err.Error(), http.StatusForbidden, w, err)
	case errors.As(err, &validation):
		ErrorStatus(err.Error(), http.StatusUnprocessableEntity, w, err)
	case errors.As(err, &stale):
		ErrorStatus(err.Error(), http.StatusConflict, w, err)
	default:
		ErrorStatus("internal error", http.StatusInternalServerError, w, err)
	}
}
