package models

// SunTimes is the sunrise/sunset response for one date and location, in
// UTC ISO-8601 strings as returned upstream. TZID names the civil timezone
// the boundary layer should render in.
type SunTimes struct {
	Sunrise                   string `json:"sunrise"`
	Sunset                    string `json:"sunset"`
	SolarNoon                 string `json:"solar_noon"`
	DayLength                 int64  `json:"day_length"`
	CivilTwilightBegin        string `json:"civil_twilight_begin"`
	CivilTwilightEnd          string `json:"civil_twilight_end"`
	NauticalTwilightBegin     string `json:"nautical_twilight_begin"`
	NauticalTwilightEnd       string `json:"nautical_twilight_end"`
	AstronomicalTwilightBegin string `json:"astronomical_twilight_begin"`
	AstronomicalTwilightEnd   string `json:"astronomical_twilight_end"`
	TZID                      string `json:"tzid"`
}

// MoonPhase is one day's moon phase record.
type MoonPhase struct {
	TargetDate   string   `json:"TargetDate"`
	Moon         []string `json:"Moon"`
	Index        int      `json:"Index"`
	Age          float64  `json:"Age"`
	Phase        string   `json:"Phase"`
	Distance     float64  `json:"Distance"`
	Illumination float64  `json:"Illumination"`
	AngularDiameterDegrees float64 `json:"AngularDiameterDegrees"`
}

// MarineHourly holds the hourly marine forecast series. Slices are parallel
// to Time; series not requested upstream are left empty.
type MarineHourly struct {
	Time                  []int64   `json:"time"`
	SeaLevelHeightMSL     []float64 `json:"sea_level_height_msl,omitempty"`
	OceanCurrentVelocity  []float64 `json:"ocean_current_velocity,omitempty"`
	OceanCurrentDirection []float64 `json:"ocean_current_direction,omitempty"`
}

// MarineForecast is the marine conditions forecast for one location.
type MarineForecast struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	HourlyUnits map[string]string `json:"hourly_units"`
	Hourly      MarineHourly      `json:"hourly"`
}
