package weather

import (
	"encoding/json"
	"strings"
	"time"
)

// Normalize converts a provider "current" block into an Observation.
// Missing optional values fall back to their documented defaults; provider
// values are copied as-is. now becomes the observation timestamp.
func Normalize(raw RawCurrent, coords Coordinates, now time.Time) Observation {
	obs := Observation{
		LocationLat: json.Number(coords.Lat),
		LocationLon: json.Number(coords.Lon),
		Timestamp:   now,
		Temperature: copyFloat(raw.Temp),
		Humidity:    copyInt(raw.Humidity),
		WindSpeed:   copyFloat(raw.WindSpeed),
		Condition:   ConditionUnknown,
	}

	if raw.Clouds != nil {
		obs.Cloudiness = *raw.Clouds
	}

	// Only the first condition is reported, verbatim. A blank one counts as missing.
	if len(raw.Weather) > 0 {
		if desc := raw.Weather[0].Description; strings.TrimSpace(desc) != "" {
			obs.Condition = desc
		}
	}

	return obs
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
