package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Backend selects where website events are persisted.
type Backend string

const (
	BackendPostgres   Backend = "postgresql"
	BackendClickHouse Backend = "clickhouse"
)

// Config contains runtime configuration required by the service.
type Config struct {
	Backend Backend `env:"DATABASE_TYPE" envDefault:"postgresql"`
	DBURL   string  `env:"DB_URL"`

	ClickHouseURL      string `env:"CLICKHOUSE_URL" envDefault:"http://localhost:8123"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseDB       string `env:"CLICKHOUSE_DB" envDefault:"umami"`

	KafkaBrokers        []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicEvent     string   `env:"KAFKA_TOPIC_EVENT" envDefault:"event"`
	KafkaTopicEventData string   `env:"KAFKA_TOPIC_EVENT_DATA" envDefault:"event_data"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	APIKeysRaw string `env:"API_KEYS"`

	// APIKeys maps apiKey -> websiteID. Filled from APIKeysRaw by Load.
	APIKeys map[string]string
}

// KafkaEnabled reports whether columnar writes go through the broker.
func (c Config) KafkaEnabled() bool {
	return c.Backend == BackendClickHouse && len(c.KafkaBrokers) > 0
}

// Load reads required values from environment variables.
// API_KEYS format: "website1:key1,website2:key2"
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	keys, err := parseAPIKeys(cfg.APIKeysRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.APIKeys = keys
	return cfg, nil
}

func (c *Config) validate() error {
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	switch c.Backend {
	case BackendPostgres:
		if strings.TrimSpace(c.DBURL) == "" {
			return errors.New("DB_URL required")
		}
	case BackendClickHouse:
		if strings.TrimSpace(c.ClickHouseURL) == "" {
			return errors.New("CLICKHOUSE_URL required")
		}
	default:
		return fmt.Errorf("DATABASE_TYPE must be %q or %q", BackendPostgres, BackendClickHouse)
	}

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
	return nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(strings.TrimSpace(raw), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(`API_KEYS must be "website:key,website:key"`)
		}
		website := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if website == "" || key == "" {
			return nil, errors.New(`API_KEYS must be "website:key,website:key"`)
		}
		keys[key] = website
	}
	return keys, nil
}
