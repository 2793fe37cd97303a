package main

import (
	"log"
	"net/http"

	"shule_tracker/internal/config"
	"shule_tracker/internal/controllers"
	"shule_tracker/internal/logger"
	"shule_tracker/internal/middleware"
	"shule_tracker/internal/proximity"
	"shule_tracker/internal/routes"
	"shule_tracker/internal/scheduler"
	"shule_tracker/internal/store"
	"shule_tracker/internal/tracking"
	"shule_tracker/internal/verification"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()
	settings := config.LoadSettings()

	db := store.NewGorm(config.DB)

	// Wire the custody core
	hub := tracking.NewHub()
	monitor := proximity.NewMonitor(
		tracking.HubNotifier{Hub: hub},
		settings.DefaultDestLat,
		settings.DefaultDestLng,
		settings.GeofenceRadiusKm,
	)
	var geocoder tracking.Geocoder = tracking.NoopGeocoder{}
	if settings.GeocoderURL != "" {
		geocoder = tracking.NewNominatimGeocoder(settings.GeocoderURL)
	}
	broadcaster := tracking.NewBroadcaster(db, geocoder, hub, monitor)
	gateway := verification.NewGateway(db)

	resetJob := scheduler.New(db, settings.ResetCronSpec, settings.ResetLocation)
	if err := resetJob.Start(); err != nil {
		log.Fatalf("could not start daily reset scheduler: %v", err)
	}
	defer resetJob.Stop()

	controllers.Init(db, gateway, broadcaster, hub, monitor, resetJob)

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Println("🚀 Server running at :8080")
	log.Fatal(http.ListenAndServe("0.0.0.0:8080", handler))
}
