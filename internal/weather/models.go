package weather

import (
	"encoding/json"
	"time"
)

// ConditionUnknown is reported when the provider gives no usable description.
const ConditionUnknown = "unknown"

// Coordinates is the configured point being sampled.
// Values are kept as the configured text so they round-trip exactly.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// RawCondition is one element of the provider's weather array.
type RawCondition struct {
	Description string `json:"description"`
}

// RawCurrent is the provider's "current" block. Every field is optional.
type RawCurrent struct {
	Temp      *float64       `json:"temp"`
	Humidity  *int           `json:"humidity"`
	WindSpeed *float64       `json:"wind_speed"`
	Clouds    *int           `json:"clouds"`
	Weather   []RawCondition `json:"weather"`
}

// Observation is one normalized weather snapshot eligible for publication.
type Observation struct {
	LocationLat json.Number `json:"location_lat"`
	LocationLon json.Number `json:"location_lon"`
	Timestamp   time.Time   `json:"timestamp"` // local collection time
	Temperature *float64    `json:"temperature,omitempty"`
	Humidity    *int        `json:"humidity,omitempty"`
	WindSpeed   *float64    `json:"wind_speed,omitempty"`
	Condition   string      `json:"condition"`
	Cloudiness  int         `json:"cloudiness"`
}

// Outcome is the result of a single collection cycle.
type Outcome string

const (
	OutcomePublished     Outcome = "published"
	OutcomeCollectFailed Outcome = "collect_failed"
	OutcomePublishFailed Outcome = "publish_failed"
)

// CycleReport describes what happened during one cycle.
type CycleReport struct {
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Outcome     Outcome      `json:"outcome"`
	Observation *Observation `json:"observation,omitempty"`
	Error       string       `json:"error,omitempty"`
}
