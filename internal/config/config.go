// Package config loads binary configuration from the environment, an
// optional .env file and the JSON mode parameter file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/travelmodel/modechoice/internal/database"
	"github.com/travelmodel/modechoice/internal/logging"
	"github.com/travelmodel/modechoice/internal/mode"
)

// Network sources.
const (
	SourcePostgres = "postgres"
	SourceFixture  = "fixture"
)

// Config is the configuration shared by the API and worker binaries.
type Config struct {
	Port        string
	Environment string
	// RequireTLS rejects API requests a load balancer forwarded over HTTP.
	RequireTLS bool

	Logging  logging.Config
	Database database.Config

	Networks NetworksConfig
	Modes    ModesConfig
	Auth     AuthConfig
	Worker   WorkerConfig
}

// NetworksConfig selects and caches the skim store.
type NetworksConfig struct {
	// Source is "postgres" or "fixture".
	Source string
	// FixturePath is the JSON network file read when Source is "fixture".
	FixturePath     string
	CacheTTL        time.Duration
	StaleIfErrorTTL time.Duration
}

// ModesConfig points at mode parameters and vehicle types.
type ModesConfig struct {
	// ParametersPath is a JSON mode parameter file. Empty uses defaults.
	ParametersPath  string
	VehicleTypes    []string
	AutoVehicleType string
}

// AuthConfig holds service token settings.
type AuthConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// WorkerConfig holds batch worker settings.
type WorkerConfig struct {
	ProjectID    string
	Subscription string
	Concurrency  int
	MaxBatchSize int
}

// Load reads .env files when present, then the environment. Missing .env
// files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = getEnv("LOG_LEVEL", logCfg.Level)
	logCfg.Console = getBoolEnv("LOG_CONSOLE", false)
	logCfg.FilePath = getEnv("LOG_FILE", "")

	cfg := &Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		RequireTLS:  getBoolEnv("REQUIRE_TLS", false),
		Logging:     logCfg,
		Database:    database.ConfigFromEnv(),
		Networks: NetworksConfig{
			Source:          getEnv("NETWORK_SOURCE", SourcePostgres),
			FixturePath:     getEnv("NETWORK_FIXTURE", ""),
			CacheTTL:        getDurationEnv("NETWORK_CACHE_TTL", time.Hour),
			StaleIfErrorTTL: getDurationEnv("NETWORK_STALE_IF_ERROR_TTL", 24*time.Hour),
		},
		Modes: ModesConfig{
			ParametersPath:  getEnv("MODE_PARAMETERS", ""),
			VehicleTypes:    getListEnv("VEHICLE_TYPES", []string{"Auto"}),
			AutoVehicleType: getEnv("AUTO_VEHICLE_TYPE", "Auto"),
		},
		Auth: AuthConfig{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:     getEnv("JWT_ISSUER", "modechoice"),
			Audience:   getEnv("JWT_AUDIENCE", "modechoice-api"),
		},
		Worker: WorkerConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Subscription: getEnv("PUBSUB_SUBSCRIPTION", "modechoice-evaluations"),
			Concurrency:  getIntEnv("WORKER_CONCURRENCY", 4),
			MaxBatchSize: getIntEnv("WORKER_MAX_BATCH_SIZE", 10000),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Networks.Source {
	case SourcePostgres:
	case SourceFixture:
		if c.Networks.FixturePath == "" {
			errs = append(errs, errors.New("NETWORK_FIXTURE is required for the fixture network source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown network source %q", c.Networks.Source))
	}
	if len(c.Modes.VehicleTypes) == 0 {
		errs = append(errs, errors.New("at least one vehicle type is required"))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("worker concurrency %d must be positive", c.Worker.Concurrency))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadParameters reads the mode parameter file, or returns the defaults
// when no file is configured.
func (c ModesConfig) LoadParameters() (mode.Parameters, error) {
	if c.ParametersPath == "" {
		return mode.DefaultParameters(), nil
	}
	f, err := os.Open(c.ParametersPath)
	if err != nil {
		return mode.Parameters{}, fmt.Errorf("open mode parameters: %w", err)
	}
	defer f.Close()
	return mode.DecodeParameters(f)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
