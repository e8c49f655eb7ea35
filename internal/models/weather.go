package models

import "time"

// beaufortThresholds are the upper bounds (m/s, exclusive) of Beaufort
// forces 0 through 11.
var beaufortThresholds = []float64{
	0.5, 1.5, 3.3, 5.5, 7.9, 10.7, 13.8, 17.1, 20.7, 24.4, 28.4, 32.6,
}

// Beaufort converts a wind speed in metres per second to the Beaufort scale.
func Beaufort(speed float64) int {
	for i, t := range beaufortThresholds {
		if speed < t {
			return i
		}
	}
	return 12
}

// WeatherCondition is one weather descriptor from the daily forecast.
type WeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// DayTemps holds the temperature breakdown for one forecast day.
type DayTemps struct {
	Day   float64 `json:"day"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

// FeelsLike holds the apparent temperature breakdown for one forecast day.
type FeelsLike struct {
	Day   float64 `json:"day"`
	Night float64 `json:"night"`
	Eve   float64 `json:"eve"`
	Morn  float64 `json:"morn"`
}

// WeatherDay is one day of the daily forecast, with wind speeds already
// converted to Beaufort alongside the raw m/s values.
type WeatherDay struct {
	Timestamp         time.Time          `json:"dt"`
	Sunrise           *time.Time         `json:"sunrise,omitempty"`
	Sunset            *time.Time         `json:"sunset,omitempty"`
	Moonrise          *time.Time         `json:"moonrise,omitempty"`
	Moonset           *time.Time         `json:"moonset,omitempty"`
	MoonPhase         *float64           `json:"moon_phase,omitempty"`
	Summary           string             `json:"summary,omitempty"`
	Temp              DayTemps           `json:"temp"`
	FeelsLike         FeelsLike          `json:"feels_like"`
	Pressure          int                `json:"pressure"`
	Humidity          int                `json:"humidity"`
	DewPoint          float64            `json:"dew_point"`
	WindSpeed         float64            `json:"wind_speed"`
	WindSpeedBeaufort int                `json:"wind_speed_beaufort"`
	WindGust          *float64           `json:"wind_gust,omitempty"`
	WindGustBeaufort  *int               `json:"wind_gust_beaufort,omitempty"`
	WindDeg           int                `json:"wind_deg"`
	Conditions        []WeatherCondition `json:"weather"`
	Clouds            int                `json:"clouds"`
	Pop               float64            `json:"pop"`
	UVI               float64            `json:"uvi"`
}

// In returns a copy of the day with all timestamps converted to loc, for
// rendering at the HTTP boundary.
func (d WeatherDay) In(loc *time.Location) WeatherDay {
	out := d
	out.Timestamp = d.Timestamp.In(loc)
	out.Sunrise = timeIn(d.Sunrise, loc)
	out.Sunset = timeIn(d.Sunset, loc)
	out.Moonrise = timeIn(d.Moonrise, loc)
	out.Moonset = timeIn(d.Moonset, loc)
	return out
}

func timeIn(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(loc)
	return &local
}
