package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/Sunshine050/emergency-project-sub001/api/handlers"

	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, router and scheduler
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("emergency coordinator is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
