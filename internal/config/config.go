package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
)

// EnvConfigFile names an optional YAML file read before the environment.
const EnvConfigFile = "STOREFRONT_CONFIG"

type Config struct {
	Port            string
	ShutdownTimeout time.Duration

	// Backend the admin, owner and auth views talk to.
	BackendURL        string
	BackendTimeout    time.Duration
	BackendHealthPath string

	// Session local storage
	StorageDriver db.Driver
	StorageDSN    string

	// Empty disables the broker; checkout events are only logged.
	RabbitMQURL string

	CORSAllowOrigins []string
}

// file mirrors Config in the YAML layout. Durations are Go duration strings.
type file struct {
	Port            string `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
	Backend         struct {
		URL        string `yaml:"url"`
		Timeout    string `yaml:"timeout"`
		HealthPath string `yaml:"healthPath"`
	} `yaml:"backend"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	RabbitMQURL      string   `yaml:"rabbitmqUrl"`
	CORSAllowOrigins []string `yaml:"corsAllowOrigins"`
}

func defaults() file {
	var f file
	f.Port = "8080"
	f.ShutdownTimeout = "10s"
	f.Backend.URL = "http://localhost:3000"
	f.Backend.Timeout = "10s"
	f.Backend.HealthPath = "/health"
	f.Storage.Driver = string(db.SQLite)
	f.Storage.DSN = "storefront.db"
	f.CORSAllowOrigins = []string{"*"}
	return f
}

// Load builds the config from defaults, the optional file named by
// STOREFRONT_CONFIG (or path, when non-empty) and then environment variables.
func Load(path string) (Config, error) {
	f := defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigFile))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	driver, err := db.ParseDriver(getenv("STORAGE_DRIVER", f.Storage.Driver))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:            getenv("PORT", f.Port),
		ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT", f.ShutdownTimeout), 10*time.Second),

		BackendURL:        getenv("BACKEND_URL", f.Backend.URL),
		BackendTimeout:    parseDuration(getenv("BACKEND_TIMEOUT", f.Backend.Timeout), 10*time.Second),
		BackendHealthPath: getenv("BACKEND_HEALTH_PATH", f.Backend.HealthPath),

		StorageDriver: driver,
		StorageDSN:    getenv("STORAGE_DSN", f.Storage.DSN),

		RabbitMQURL: getenv("RABBITMQ_URL", f.RabbitMQURL),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", strings.Join(f.CORSAllowOrigins, ","))),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("backend url is required"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	if c.StorageDriver != db.Memory && strings.TrimSpace(c.StorageDSN) == "" {
		errs = append(errs, fmt.Errorf("storage dsn is required for driver %q", c.StorageDriver))
	}
	if c.StorageDriver == db.SQLite && strings.TrimSpace(c.StorageDSN) == ":memory:" {
		// migrations run on their own connection and would not be seen
		errs = append(errs, errors.New("sqlite storage needs a file, use the memory driver instead"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
