package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/api/handlers"
	"github.com/ford69/flexi-ride-api/api/scheduler"
	"github.com/ford69/flexi-ride-api/config"
	"github.com/ford69/flexi-ride-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	s := scheduler.NewScheduler(
		databases.NewBookingDatabase(a.DBHelper()),
		databases.NewCarDatabase(a.DBHelper()),
		databases.NewUserDatabase(a.DBHelper()),
		databases.NewServiceTypeDatabase(a.DBHelper()),
	)
	s.Start()
	defer s.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("flexi-ride-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
