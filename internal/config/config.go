// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the full service configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Store   Store   `yaml:"store"`
	Arango  Arango  `yaml:"arango"`
	Restore Restore `yaml:"restore"`
	Cache   Cache   `yaml:"cache"`
	Log     Log     `yaml:"log"`
	Kafka   Kafka   `yaml:"kafka"`
	Catalog Catalog `yaml:"catalog"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	BodyLimitMB int    `yaml:"bodyLimitMB" validate:"min=1"`
}

// Store selects the record store.
type Store struct {
	Driver string `yaml:"driver" validate:"oneof=arangodb memory"`
}

// Arango locates the ArangoDB server.
type Arango struct {
	URL            string        `yaml:"url"`
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database" validate:"required"`
	Collection     string        `yaml:"collection" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// Endpoint is URL, or http://host:port when URL is unset.
func (a Arango) Endpoint() string {
	if a.URL != "" {
		return a.URL
	}
	return "http://" + a.Host + ":" + a.Port
}

// Restore holds the shared secret of the restore endpoints. An empty key
// rejects every restore.
type Restore struct {
	APIKey string `yaml:"apiKey"`
}

// Cache controls the stats and filter option cache. Zero disables it.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

// Log sets the zap level.
type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Kafka enables restore events when Brokers is set.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// SASL/PLAIN credentials; both empty means plaintext.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Catalog tunes listing behavior.
type Catalog struct {
	ChronologicalDateSort bool `yaml:"chronologicalDateSort"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: Server{Port: "8080", BodyLimitMB: 50},
		Store:  Store{Driver: "arangodb"},
		Arango: Arango{
			Host:           "localhost",
			Port:           "8529",
			User:           "root",
			Database:       "fundaciones_espana",
			Collection:     "fundaciones",
			ConnectTimeout: 2 * time.Minute,
		},
		Cache: Cache{TTL: 5 * time.Minute},
		Log:   Log{Level: "info"},
		Kafka: Kafka{Topic: "fundaciones.dataset"},
	}
}

// Load reads .env if present, then the YAML file named by path or by
// CONFIG_FILE, then the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	str("MS_PORT", &c.Server.Port)
	str("STORE_DRIVER", &c.Store.Driver)
	str("ARANGO_URL", &c.Arango.URL)
	str("ARANGO_HOST", &c.Arango.Host)
	str("ARANGO_PORT", &c.Arango.Port)
	str("ARANGO_USER", &c.Arango.User)
	str("ARANGO_PASS", &c.Arango.Password)
	str("ARANGO_DB", &c.Arango.Database)
	str("RESTORE_API_KEY", &c.Restore.APIKey)
	str("LOG_LEVEL", &c.Log.Level)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("KAFKA_API_KEY", &c.Kafka.Username)
	str("KAFKA_API_SECRET", &c.Kafka.Password)

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if v, ok := lookup("CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup("ARANGO_CONNECT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ARANGO_CONNECT_TIMEOUT %q: %w", v, err)
		}
		c.Arango.ConnectTimeout = d
	}
	if v, ok := lookup("SORT_DATE_CHRONOLOGICAL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SORT_DATE_CHRONOLOGICAL %q: %w", v, err)
		}
		c.Catalog.ChronologicalDateSort = b
	}
	if v, ok := lookup("BODY_LIMIT_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BODY_LIMIT_MB %q: %w", v, err)
		}
		c.Server.BodyLimitMB = n
	}
	return nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
