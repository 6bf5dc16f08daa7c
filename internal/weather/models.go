package weather

import (
	"strconv"
	"time"
)

// Severity ranks alerts so a consumer can surface the worst first.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Suitability classifies planting and harvest conditions.
type Suitability string

const (
	SuitabilityExcellent Suitability = "excellent"
	SuitabilityGood      Suitability = "good"
	SuitabilityModerate  Suitability = "moderate"
	SuitabilityPoor      Suitability = "poor"
)

// Coordinates identify the point a report was requested for.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Lat, 'f', 4, 64) + ":" + strconv.FormatFloat(c.Lon, 'f', 4, 64)
}

// Place is a named location as resolved by the provider.
type Place struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	State       string  `json:"state,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Coordinates returns the place's position.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lon: p.Lon}
}

// Condition is the upstream condition code with its text and icon.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// MainBlock holds the primary measurements of an observation.
// A nil field means the provider omitted it.
type MainBlock struct {
	Temp      *float64
	FeelsLike *float64
	TempMin   *float64
	TempMax   *float64
	Humidity  *float64
	Pressure  *float64
}

// RawObservation is a typed view over one upstream current-weather snapshot.
type RawObservation struct {
	Name       string
	Country    string
	ObservedAt time.Time

	// Main is nil when the payload has no primary weather block.
	Main *MainBlock

	WindSpeed  *float64 // m/s
	WindDeg    *float64
	Clouds     *float64 // percent
	Visibility *float64 // metres
	Rain1h     *float64 // mm
	Rain3h     *float64 // mm

	Conditions []Condition
	Sunrise    time.Time
	Sunset     time.Time
}

// HourlyPrecip returns the 1h rain value if present, else the 3h value, else 0.
func (o RawObservation) HourlyPrecip() float64 {
	if o.Rain1h != nil {
		return *o.Rain1h
	}
	if o.Rain3h != nil {
		return *o.Rain3h
	}
	return 0
}

// PrimaryCondition returns the first reported condition, if any.
func (o RawObservation) PrimaryCondition() (Condition, bool) {
	if len(o.Conditions) == 0 {
		return Condition{}, false
	}
	return o.Conditions[0], true
}

// RawForecastSample is one 3-hour forecast point.
type RawForecastSample struct {
	Time      time.Time
	Temp      float64
	TempMin   float64
	TempMax   float64
	Humidity  *float64
	WindSpeed *float64 // m/s
	Rain3h    *float64 // mm
	Condition Condition
}

// RawForecast is the upstream multi-day forecast for a place.
type RawForecast struct {
	Place   Place
	Samples []RawForecastSample
}

// DailyAggregate is one calendar day's reduced forecast.
type DailyAggregate struct {
	Date          string  `json:"date"`
	TempMin       float64 `json:"temp_min"`
	TempMax       float64 `json:"temp_max"`
	TempAvg       float64 `json:"temp_avg"`
	HumidityAvg   float64 `json:"humidity_avg"`
	WindSpeedAvg  float64 `json:"wind_speed_avg"` // km/h
	Precipitation float64 `json:"rain"`
	GDD           float64 `json:"gdd"`
	Description   string  `json:"description"`
	Icon          string  `json:"icon"`
	Samples       int     `json:"samples"`
}

// GDDDay is one day of a degree-day accumulation.
type GDDDay struct {
	Date       string
	TempMin    float64
	TempMax    float64
	GDD        float64
	Cumulative float64
}

// GDDAccumulation is the running degree-day total over a horizon.
type GDDAccumulation struct {
	BaseTemp float64
	Days     []GDDDay
	Total    float64
}

// Alert is a triggered agronomic warning.
type Alert struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Icon     string   `json:"icon"`
}

// Insight is the planting, irrigation and harvest judgment for an observation.
type Insight struct {
	PlantingConditions Suitability `json:"planting_conditions"`
	IrrigationNeeded   bool        `json:"irrigation_needed"`
	HarvestConditions  Suitability `json:"harvest_conditions"`
	Recommendations    []string    `json:"recommendations"`
}

// ReportLocation identifies the place a report describes.
type ReportLocation struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentConditions is the display form of a RawObservation.
type CurrentConditions struct {
	Temp          float64   `json:"temp"`
	FeelsLike     float64   `json:"feels_like"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindSpeed     float64   `json:"wind_speed"` // km/h
	WindDirection float64   `json:"wind_direction"`
	Clouds        float64   `json:"clouds"`
	Visibility    *float64  `json:"visibility"` // km
	Rain          float64   `json:"rain"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
}

// CurrentReport is the current-conditions product.
type CurrentReport struct {
	Location ReportLocation    `json:"location"`
	Current  CurrentConditions `json:"current"`
	Alerts   []Alert           `json:"alerts"`
	Insights Insight           `json:"insights"`
}

// ForecastReport is the multi-day forecast product.
type ForecastReport struct {
	Location      ReportLocation   `json:"location"`
	Forecast      []DailyAggregate `json:"forecast"`
	CumulativeGDD float64          `json:"cumulative_gdd"`
	Alerts        []Alert          `json:"alerts"`
}

// GDDEntry is one day of a GDDReport.
type GDDEntry struct {
	Date          string  `json:"date"`
	TempMin       float64 `json:"temp_min"`
	TempMax       float64 `json:"temp_max"`
	GDD           float64 `json:"gdd"`
	CumulativeGDD float64 `json:"cumulative_gdd"`
}

// GDDReport is the degree-day product.
type GDDReport struct {
	BaseTemp   float64    `json:"base_temp"`
	PeriodDays int        `json:"period_days"`
	DailyGDD   []GDDEntry `json:"daily_gdd"`
	TotalGDD   float64    `json:"total_gdd"`
}

// Snapshot is a recorded current observation for a place.
type Snapshot struct {
	ID         string            `json:"id"`
	Location   Place             `json:"location"`
	RecordedAt time.Time         `json:"recordedAt"` // always UTC
	Current    CurrentConditions `json:"current"`
	Alerts     []Alert           `json:"alerts,omitempty"`
}
