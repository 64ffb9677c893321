package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-log-collector/internal/weather"
)

// DefaultOneCallURL is the OpenWeatherMap One Call 3.0 endpoint.
const DefaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"

// OneCallConfig holds what the collector needs from the application config.
type OneCallConfig struct {
	APIKey  string
	Coords  weather.Coordinates
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// OneCallCollector implements weather.Collector for the OpenWeatherMap One Call API.
type OneCallCollector struct {
	name    string
	apiKey  string
	coords  weather.Coordinates
	baseURL string
	timeout time.Duration
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

func NewOneCallCollector(client *http.Client, cfg OneCallConfig, logger *zap.Logger) *OneCallCollector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOneCallURL
	}

	log := logger.Named("collector")
	cb := newCircuitBreaker("openweather-onecall", cfg.Breaker, func(name string, from, to gobreaker.State) {
		log.Warn("provider circuit breaker changed state",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})

	return &OneCallCollector{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		coords:  cfg.Coords,
		baseURL: baseURL,
		timeout: cfg.Timeout,
		client:  client,
		circuit: cb,
		logger:  log,
		now:     time.Now,
	}
}

// Collect fetches the current conditions and normalizes them. It performs no
// network I/O when the API key or a coordinate is missing.
func (p *OneCallCollector) Collect(ctx context.Context) (weather.Observation, error) {
	p.logger.Info("collecting current weather",
		zap.String("lat", p.coords.Lat),
		zap.String("lon", p.coords.Lon))

	if missing := p.missingSettings(); len(missing) > 0 {
		p.logger.Error("weather provider settings are missing",
			zap.Strings("missing", missing))
		return weather.Observation{}, fmt.Errorf("%w: missing %s", weather.ErrMissingConfig, strings.Join(missing, ", "))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.fetchCurrent(ctx)
	if err != nil {
		p.logger.Error("failed to fetch weather data",
			zap.String("provider", p.name),
			zap.Error(err))
		return weather.Observation{}, fmt.Errorf("%w: %v", weather.ErrProviderUnavailable, err)
	}

	return weather.Normalize(raw, p.coords, p.now()), nil
}

func (p *OneCallCollector) missingSettings() []string {
	var missing []string
	if p.apiKey == "" {
		missing = append(missing, "api key")
	}
	if p.coords.Lat == "" {
		missing = append(missing, "latitude")
	}
	if p.coords.Lon == "" {
		missing = append(missing, "longitude")
	}
	return missing
}

func (p *OneCallCollector) fetchCurrent(ctx context.Context) (weather.RawCurrent, error) {
	values := url.Values{}
	values.Set("lat", p.coords.Lat)
	values.Set("lon", p.coords.Lon)
	values.Set("exclude", "minutely,hourly,daily")
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "pt_br")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return weather.RawCurrent{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.RawCurrent{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current *weather.RawCurrent `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.RawCurrent{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Current == nil {
		return weather.RawCurrent{}, fmt.Errorf("decode response: no current block")
	}

	return *payload.Current, nil
}
