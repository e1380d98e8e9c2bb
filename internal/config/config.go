package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage modes.
const (
	StorageAuto     = "auto"     // remote with a session, memory without
	StorageMemory   = "memory"   // local-only, lost on exit
	StorageRemote   = "remote"   // backend API, requires a session
	StoragePostgres = "postgres" // local-only, durable
)

// Config holds the configuration settings for the address book.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server.
// - APIURL: Base URL of the backend API.
// - SessionFile: Path of the locally persisted session (user id and token).
// - Storage: Which repository backs the store.
// - ProviderType: The geocoding provider (opencage, nominatim, google).
// - APIKey: The geocoding provider API key.
// - RateLimit: Geocoding requests per second.
// - LocateTimeout: Upper bound for obtaining the device position.
// - RequestTimeout: Timeout of a single backend HTTP request.
// - DefaultCountry: Country pre-filled in a new address form.
// - Location: Device position as "lat,lng"; empty means location is unavailable.
// - Workers: The number of concurrent coordinate backfill workers.
// - Interval: The duration between backfill passes, zero disables it.
// - AddrPrefix: Prefix prepended to backfill geocoding queries.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env            string         `yaml:"env"`
	Port           int            `yaml:"health_port"`
	APIURL         string         `yaml:"api_url"`
	SessionFile    string         `yaml:"session_file"`
	Storage        string         `yaml:"storage"`
	ProviderType   string         `yaml:"provider.type"`
	APIKey         string         `yaml:"provider.api_key"`
	RateLimit      int            `yaml:"provider.rate_limit"`
	LocateTimeout  time.Duration  `yaml:"locate_timeout"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	DefaultCountry string         `yaml:"default_country"`
	Location       string         `yaml:"location"`
	Workers        int            `yaml:"backfill.workers"`
	Interval       time.Duration  `yaml:"backfill.interval"`
	AddrPrefix     string         `yaml:"addr_prefix"`
	Database       PostgresConfig `yaml:"postgres"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// MustLoad reads .env (when present) and the environment, and panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	interval, err := time.ParseDuration(setDefaultEnv("ADDRESSBOOK_BACKFILL_INTERVAL", "10m"))
	if err != nil {
		panic("failed to parse backfill interval from configuration")
	}

	locateTimeout, err := time.ParseDuration(setDefaultEnv("ADDRESSBOOK_LOCATE_TIMEOUT", "15s"))
	if err != nil || locateTimeout <= 0 {
		panic("failed to parse locate timeout from configuration")
	}

	requestTimeout, err := time.ParseDuration(setDefaultEnv("ADDRESSBOOK_REQUEST_TIMEOUT", "10s"))
	if err != nil || requestTimeout <= 0 {
		panic("failed to parse request timeout from configuration")
	}

	healthPort, err := strconv.Atoi(setDefaultEnv("ADDRESSBOOK_HEALTH_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	workers, err := strconv.Atoi(setDefaultEnv("ADDRESSBOOK_BACKFILL_WORKERS", "2"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("ADDRESSBOOK_RATE_LIMIT", "1"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer types")
	}

	storage := setDefaultEnv("ADDRESSBOOK_STORAGE", StorageAuto)
	switch storage {
	case StorageAuto, StorageMemory, StorageRemote, StoragePostgres:
	default:
		panic("unsupported storage mode, expected auto, memory, remote or postgres")
	}

	return &Config{
		Env:            setDefaultEnv("ADDRESSBOOK_ENV", "production"),
		Port:           healthPort,
		APIURL:         setDefaultEnv("ADDRESSBOOK_API_URL", "http://localhost:5000"),
		SessionFile:    setDefaultEnv("ADDRESSBOOK_SESSION_FILE", "session.json"),
		Storage:        storage,
		ProviderType:   setDefaultEnv("ADDRESSBOOK_PROVIDER_TYPE", "opencage"),
		APIKey:         os.Getenv("ADDRESSBOOK_PROVIDER_KEY"),
		RateLimit:      rateLimit,
		LocateTimeout:  locateTimeout,
		RequestTimeout: requestTimeout,
		DefaultCountry: setDefaultEnv("ADDRESSBOOK_DEFAULT_COUNTRY", "India"),
		Location:       os.Getenv("ADDRESSBOOK_LOCATION"),
		Workers:        workers,
		Interval:       interval,
		AddrPrefix:     setDefaultEnv("ADDRESSBOOK_ADDRESS_PREFIX", ""),
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDefaultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
