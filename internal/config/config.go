package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration, read from the environment
type Config struct {
	Port   string
	DBPath string

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string // json or console
	}
	Weather struct {
		APIKey  string
		BaseURL string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}

	// Names of the place pair used for trip segmentation and routine learning
	HomePlaceName   string
	SchoolPlaceName string

	BatchConcurrency int

	// Batch pass intervals; zero disables the schedule
	Schedule struct {
		LearnInterval   time.Duration
		DetectInterval  time.Duration
		WeatherInterval time.Duration
	}

	Analytics Analytics
}

// Analytics holds the tunable thresholds of the safety analytics
type Analytics struct {
	PlaceProximityMeters     float64
	MinTripPoints            int
	MinTripsForRoutine       int
	LearningWindowDays       int
	PathDeviationMeters      float64
	TimeDeviation            time.Duration
	TripMatchProximityMeters float64

	ZoneCooldown         time.Duration
	UnusualRouteCooldown time.Duration
	LowBatteryCooldown   time.Duration
	LowBatteryThreshold  int
	WeatherCooldown      time.Duration
}

// Load loads configuration
func Load() *Config {
	cfg := &Config{}
	cfg.Port = getEnv("PORT", ":8080")
	cfg.DBPath = getEnv("DB_PATH", "./data/safety.db")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Weather.APIKey = getEnv("WEATHER_API_KEY", "")
	cfg.Weather.BaseURL = getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org")

	cfg.RateLimit.Requests = parseInt(getEnv("RATE_LIMIT_REQUESTS", "600"), 600)
	cfg.RateLimit.Window = parseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute)

	cfg.HomePlaceName = getEnv("HOME_PLACE_NAME", "Home")
	cfg.SchoolPlaceName = getEnv("SCHOOL_PLACE_NAME", "Lekol")

	cfg.BatchConcurrency = parseInt(getEnv("BATCH_CONCURRENCY", "4"), 4)

	cfg.Schedule.LearnInterval = parseInterval(getEnv("LEARN_INTERVAL", "24h"), 24*time.Hour)
	cfg.Schedule.DetectInterval = parseInterval(getEnv("DETECT_INTERVAL", "15m"), 15*time.Minute)
	cfg.Schedule.WeatherInterval = parseInterval(getEnv("WEATHER_INTERVAL", "1h"), time.Hour)

	a := &cfg.Analytics
	a.PlaceProximityMeters = parseFloat(getEnv("PLACE_PROXIMITY_METERS", "150"), 150)
	a.MinTripPoints = parseInt(getEnv("MIN_TRIP_POINTS", "5"), 5)
	a.MinTripsForRoutine = parseInt(getEnv("MIN_TRIPS_FOR_ROUTINE", "3"), 3)
	a.LearningWindowDays = parseInt(getEnv("ROUTINE_LEARNING_DAYS", "30"), 30)
	a.PathDeviationMeters = parseFloat(getEnv("PATH_DEVIATION_METERS", "500"), 500)
	a.TimeDeviation = parseDuration(getEnv("TIME_DEVIATION", "30m"), 30*time.Minute)
	a.TripMatchProximityMeters = parseFloat(getEnv("TRIP_MATCH_PROXIMITY_METERS", "200"), 200)
	a.ZoneCooldown = parseDuration(getEnv("ZONE_ALERT_COOLDOWN", "10m"), 10*time.Minute)
	a.UnusualRouteCooldown = parseDuration(getEnv("UNUSUAL_ROUTE_COOLDOWN", "1h"), time.Hour)
	a.LowBatteryCooldown = parseDuration(getEnv("LOW_BATTERY_COOLDOWN", "1h"), time.Hour)
	a.LowBatteryThreshold = parseInt(getEnv("LOW_BATTERY_THRESHOLD", "20"), 20)
	a.WeatherCooldown = parseDuration(getEnv("WEATHER_ALERT_COOLDOWN", "3h"), 3*time.Hour)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// parseInterval is parseDuration that also accepts "0" or "off" to disable
func parseInterval(s string, def time.Duration) time.Duration {
	if s == "0" || s == "off" {
		return 0
	}
	return parseDuration(s, def)
}
