package weather

import (
	"fmt"
	"time"
)

// DateLayout is the layout of DailyForecast.Date.
const DateLayout = "2006-01-02"

// MaxForecastDays is the longest forecast the provider serves.
const MaxForecastDays = 16

// DailyForecast is the weather for one local calendar day.
type DailyForecast struct {
	Date            string    `json:"date"`
	WeatherCode     int       `json:"weather_code"`
	Condition       Condition `json:"condition"`
	TempMaxC        float64   `json:"temp_max_c"`
	TempMinC        float64   `json:"temp_min_c"`
	PrecipitationMM float64   `json:"precipitation_mm"`
	SnowfallCM      float64   `json:"snowfall_cm"`
	WindSpeedMaxKmh float64   `json:"wind_speed_max_kmh"`
}

// NewDailyForecast fills Condition from the weather code and validates the day.
func NewDailyForecast(d DailyForecast) (DailyForecast, error) {
	d.Condition = ConditionFromCode(d.WeatherCode)
	if err := d.Validate(); err != nil {
		return DailyForecast{}, err
	}
	return d, nil
}

// Validate checks the fields of one day.
func (d DailyForecast) Validate() error {
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return fmt.Errorf("forecast date %q: %w", d.Date, err)
	}
	if ConditionFromCode(d.WeatherCode) == ConditionUnknown {
		return fmt.Errorf("forecast %s: unknown weather code %d", d.Date, d.WeatherCode)
	}
	if d.TempMaxC < d.TempMinC {
		return fmt.Errorf("forecast %s: max temperature %.1f below min %.1f", d.Date, d.TempMaxC, d.TempMinC)
	}
	if d.PrecipitationMM < 0 || d.SnowfallCM < 0 || d.WindSpeedMaxKmh < 0 {
		return fmt.Errorf("forecast %s: negative precipitation, snowfall or wind speed", d.Date)
	}
	return nil
}

// Forecast is a city's daily forecast, earliest day first.
type Forecast struct {
	City City            `json:"city"`
	Days []DailyForecast `json:"days"`
}

// ValidateDays reports a ErrInvalidArgument-class error when days is outside
// 1..MaxForecastDays.
func ValidateDays(days int) error {
	if days < 1 || days > MaxForecastDays {
		return &InvalidArgumentError{Field: "days", Reason: fmt.Sprintf("must be between 1 and %d", MaxForecastDays)}
	}
	return nil
}
