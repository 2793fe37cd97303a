package config

import (
	"log"
	"strconv"
	"time"
)

// Settings holds the non-database tunables of the custody core.
type Settings struct {
	// Cron expression and timezone for the daily fleet reset.
	ResetCronSpec string
	ResetLocation *time.Location

	// Fallback destination for students with no home location, usually
	// the school gate.
	DefaultDestLat float64
	DefaultDestLng float64

	// Arrival geofence radius in kilometers.
	GeofenceRadiusKm float64

	// Base URL of a Nominatim-compatible reverse geocoder; empty
	// disables geocoding.
	GeocoderURL string
}

// LoadSettings reads the tunables from the environment with defaults.
func LoadSettings() Settings {
	tz := getEnv("RESET_TIMEZONE", "Africa/Kampala")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("invalid RESET_TIMEZONE %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}

	return Settings{
		ResetCronSpec:    getEnv("RESET_CRON", "0 0 * * *"),
		ResetLocation:    loc,
		DefaultDestLat:   getEnvFloat("DEFAULT_DEST_LAT", 0.3476),
		DefaultDestLng:   getEnvFloat("DEFAULT_DEST_LNG", 32.5825),
		GeofenceRadiusKm: getEnvFloat("GEOFENCE_RADIUS_KM", 0.5),
		GeocoderURL:      getEnv("GEOCODER_URL", ""),
	}
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
