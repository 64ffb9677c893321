package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-log-collector/internal/queue"
	"github.com/i474232898/weather-log-collector/internal/weather"
	"github.com/i474232898/weather-log-collector/internal/weather/providers"
)

// FileEnv names the optional TOML config file.
const FileEnv = "COLLECTOR_CONFIG_FILE"

// AppConfig is built once at startup and handed to components by value.
type AppConfig struct {
	Broker   BrokerConfig   `toml:"broker"`
	Provider ProviderConfig `toml:"provider"`
	Schedule ScheduleConfig `toml:"schedule"`
	Status   StatusConfig   `toml:"status"`
	Store    StoreConfig    `toml:"store"`
	Logging  LoggingConfig  `toml:"logging"`
}

// BrokerConfig holds RabbitMQ settings.
type BrokerConfig struct {
	URI     string        `toml:"uri" validate:"required,url"`
	Queue   string        `toml:"queue" validate:"required"`
	Confirm bool          `toml:"confirm"`
	Timeout time.Duration `toml:"timeout" validate:"gt=0"`
}

// ProviderConfig holds weather API settings. APIKey, Lat and Lon may be empty;
// that is reported on every cycle instead of failing startup.
type ProviderConfig struct {
	APIKey          string        `toml:"api_key"`
	BaseURL         string        `toml:"base_url" validate:"required,url"`
	Lat             string        `toml:"lat" validate:"omitempty,latitude,jsonnumber"`
	Lon             string        `toml:"lon" validate:"omitempty,longitude,jsonnumber"`
	Timeout         time.Duration `toml:"timeout" validate:"gt=0"`
	BreakerFailures uint32        `toml:"breaker_failures" validate:"gt=0"`
	BreakerCooldown time.Duration `toml:"breaker_cooldown" validate:"gte=0"` // 0 = half the collection interval
}

// ScheduleConfig controls the collection cadence.
type ScheduleConfig struct {
	IntervalHours int `toml:"interval_hours" validate:"gt=0"`
}

// StatusConfig controls the status HTTP server. Empty Addr disables it.
type StatusConfig struct {
	Addr string `toml:"addr"`
}

// StoreConfig controls in-memory cycle history retention.
type StoreConfig struct {
	MaxHistory int           `toml:"max_history" validate:"gte=0"` // 0 = unlimited
	MaxAge     time.Duration `toml:"max_age" validate:"gte=0"`     // 0 = unlimited
}

// LoggingConfig contains application logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Interval returns the collection interval.
func (c ScheduleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// Coordinates returns the configured point.
func (c ProviderConfig) Coordinates() weather.Coordinates {
	return weather.Coordinates{Lat: c.Lat, Lon: c.Lon}
}

// OneCall returns the collector settings. The breaker cooldown is kept below
// the collection interval so the next scheduled cycle always reaches the provider.
func (c AppConfig) OneCall() providers.OneCallConfig {
	cooldown := c.Provider.BreakerCooldown
	if cooldown <= 0 {
		cooldown = c.Schedule.Interval() / 2
	}

	return providers.OneCallConfig{
		APIKey:  c.Provider.APIKey,
		Coords:  c.Provider.Coordinates(),
		BaseURL: c.Provider.BaseURL,
		Timeout: c.Provider.Timeout,
		Breaker: providers.BreakerConfig{
			ConsecutiveFailures: c.Provider.BreakerFailures,
			Cooldown:            cooldown,
		},
	}
}

// Publisher returns the publisher settings.
func (c BrokerConfig) Publisher() queue.Config {
	return queue.Config{URI: c.URI, Queue: c.Queue, Timeout: c.Timeout}
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	return AppConfig{
		Broker: BrokerConfig{
			URI:     queue.DefaultURI,
			Queue:   queue.DefaultQueue,
			Confirm: true,
			Timeout: 10 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:         providers.DefaultOneCallURL,
			Timeout:         15 * time.Second,
			BreakerFailures: 3,
		},
		Schedule: ScheduleConfig{IntervalHours: 1},
		Status:   StatusConfig{Addr: ":8080"},
		Store:    StoreConfig{MaxHistory: 48, MaxAge: 48 * time.Hour},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration from the optional TOML file and the environment,
// which takes precedence. Call godotenv.Load before Load to pick up a .env file.
func Load() (*AppConfig, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Broker.URI, "RABBITMQ_URI")
	setString(&cfg.Broker.Queue, "RABBITMQ_QUEUE")
	setString(&cfg.Provider.APIKey, "WEATHER_API_KEY")
	setString(&cfg.Provider.BaseURL, "WEATHER_API_URL")
	setString(&cfg.Provider.Lat, "CITY_LAT")
	setString(&cfg.Provider.Lon, "CITY_LON")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	// STATUS_ADDR may be set to an empty value to disable the server.
	if v, ok := os.LookupEnv("STATUS_ADDR"); ok {
		cfg.Status.Addr = strings.TrimSpace(v)
	}

	return errors.Join(
		setBool(&cfg.Broker.Confirm, "PUBLISH_CONFIRM"),
		setDuration(&cfg.Broker.Timeout, "PUBLISH_TIMEOUT"),
		setDuration(&cfg.Provider.Timeout, "HTTP_TIMEOUT"),
		setUint32(&cfg.Provider.BreakerFailures, "BREAKER_FAILURES"),
		setDuration(&cfg.Provider.BreakerCooldown, "BREAKER_COOLDOWN"),
		setInt(&cfg.Schedule.IntervalHours, "COLLECTION_INTERVAL_HOURS"),
		setInt(&cfg.Store.MaxHistory, "STORE_MAX_HISTORY"),
		setDuration(&cfg.Store.MaxAge, "STORE_MAX_AGE"),
	)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Coordinates are emitted verbatim as JSON numbers.
	_ = v.RegisterValidation("jsonnumber", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
		return json.Valid([]byte(s))
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(AppConfig)
		if c.Provider.BreakerCooldown > 0 && c.Provider.BreakerCooldown >= c.Schedule.Interval() {
			sl.ReportError(c.Provider.BreakerCooldown, "BreakerCooldown", "BreakerCooldown", "ltinterval", "")
		}
	}, AppConfig{})
	return v
}

// Validate checks value ranges and formats.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := getenv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := getenv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setUint32(dst *uint32, key string) error {
	v, ok := getenv(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = uint32(n)
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := getenv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := getenv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
