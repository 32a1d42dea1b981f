package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"weather-grid-ingest/internal/geo"
)

var validate = validator.New()

// defaultCorners bound the sampling area; the grid spans their bounding box.
var defaultCorners = [4]geo.Coordinate{
	{Lat: 2.187184, Lon: 117.639600},
	{Lat: 2.066438, Lon: 117.639600},
	{Lat: 2.066438, Lon: 117.560116},
	{Lat: 2.187184, Lon: 117.560116},
}

// AppConfig holds everything fixed at startup. There are no CLI flags;
// behavior is decided entirely by environment (or .env file) plus defaults.
type AppConfig struct {
	// Credentials. All three are required; a missing key is a fatal
	// startup error.
	OpenWeatherAPIKey string `validate:"required"`
	MongoURI          string `validate:"required"`
	HealthcheckURL    string `validate:"required,url"`

	WeatherBaseURL string `validate:"required,url"`

	// Sampling area and cadence.
	GridCorners  [4]geo.Coordinate
	GridDensity  int           `validate:"gte=2"`
	ReadInterval time.Duration // pause between grid points

	// Persistence.
	Database       string `validate:"required"`
	Collection     string `validate:"required"`
	MaxRetries     int    `validate:"gte=0"`
	MilestoneEvery int64  `validate:"gt=0"`

	// Mongo connection pool, passed through to the driver.
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnIdleTime        time.Duration
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration

	// Outbound HTTP.
	HTTPTimeout time.Duration

	// Logging.
	LogLevel       string
	LogFilePath    string
	LogMaxSizeMB   int
	LogFilesToKeep int

	// Ops surface.
	OpsPort       string
	StatsInterval time.Duration
}

// Load reads configuration from an optional .env file and the environment,
// applies defaults, and validates the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		MongoURI:          os.Getenv("MONGODB_URI"),
		HealthcheckURL:    os.Getenv("HEALTHCHECK_URL"),

		WeatherBaseURL: getenvDefault("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),

		GridCorners: defaultCorners,
		GridDensity: getenvInt("GRID_DENSITY", 8),

		Database:       getenvDefault("MONGODB_DATABASE", "weather-tracking-system"),
		Collection:     getenvDefault("MONGODB_COLLECTION", "open-weather-raw"),
		MaxRetries:     getenvInt("MONGODB_MAX_RETRIES", 5),
		MilestoneEvery: int64(getenvInt("MILESTONE_EVERY", 25)),

		MaxPoolSize:            uint64(getenvInt("MONGODB_MAX_POOL_SIZE", 5)),
		MinPoolSize:            uint64(getenvInt("MONGODB_MIN_POOL_SIZE", 1)),
		MaxConnIdleTime:        60 * time.Second,
		ConnectTimeout:         60 * time.Second,
		ServerSelectionTimeout: 30 * time.Second,

		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
		LogFilePath:    getenvDefault("LOG_FILE_PATH", "logs/weather-grid-ingest.log"),
		LogMaxSizeMB:   getenvInt("LOG_SIZE_MB", 1),
		LogFilesToKeep: getenvInt("LOG_FILES_TO_KEEP", 5),

		OpsPort: getenvDefault("PORT", "8080"),
	}

	interval, err := getenvDuration("READ_INTERVAL", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.ReadInterval = interval

	httpTimeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = httpTimeout

	statsInterval, err := getenvDuration("STATS_INTERVAL", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.StatsInterval = statsInterval

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
