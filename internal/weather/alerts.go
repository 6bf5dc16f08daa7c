package weather

import "github.com/i474232898/agro-weather/internal/common"

// forecastWindow is the number of 3-hour samples scanned for frost (~24h).
const forecastWindow = 8

type alertCategory int

const (
	categoryTemperature alertCategory = iota
	categoryMoisture
	categoryPrecipitation
)

// alertReading is the subset of an observation the alert rules look at.
type alertReading struct {
	temp      float64
	feelsLike float64
	humidity  float64
	precip    float64
}

type alertRule struct {
	category alertCategory
	match    func(r alertReading) bool
	alert    Alert
}

// alertRules is ordered by category, then by priority within a category.
// Only the first matching rule of a category fires.
var alertRules = []alertRule{
	{
		category: categoryTemperature,
		match:    func(r alertReading) bool { return r.temp < 0 || r.feelsLike < 0 },
		alert: Alert{
			Type:     "frost",
			Severity: SeverityHigh,
			Message:  "⚠️ Frost Warning: Freezing temperatures detected. Protect sensitive crops.",
			Icon:     "❄️",
		},
	},
	{
		category: categoryTemperature,
		match:    func(r alertReading) bool { return r.temp < 5 },
		alert: Alert{
			Type:     "cold",
			Severity: SeverityMedium,
			Message:  "🌡️ Cold Weather: Low temperatures may affect crop growth.",
			Icon:     "🌡️",
		},
	},
	{
		category: categoryMoisture,
		match:    func(r alertReading) bool { return r.humidity < 30 },
		alert: Alert{
			Type:     "drought",
			Severity: SeverityMedium,
			Message:  "🌵 Low Humidity: Consider irrigation to prevent drought stress.",
			Icon:     "🌵",
		},
	},
	{
		category: categoryPrecipitation,
		match:    func(r alertReading) bool { return r.precip > 20 },
		alert: Alert{
			Type:     "excessive_rain",
			Severity: SeverityHigh,
			Message:  "🌧️ Heavy Rainfall: Risk of waterlogging. Ensure proper drainage.",
			Icon:     "🌧️",
		},
	},
	{
		category: categoryPrecipitation,
		match:    func(r alertReading) bool { return r.precip > 10 },
		alert: Alert{
			Type:     "rain",
			Severity: SeverityMedium,
			Message:  "🌦️ Moderate Rainfall: Monitor soil moisture levels.",
			Icon:     "🌦️",
		},
	},
}

var frostForecastAlert = Alert{
	Type:     "frost_forecast",
	Severity: SeverityHigh,
	Message:  "❄️ Frost Forecast: Freezing temperatures expected in the next 24 hours.",
	Icon:     "❄️",
}

// EvaluateAlerts runs the alert rules against the current observation and,
// when given, the forecast window. The result is never nil.
func EvaluateAlerts(obs RawObservation, window []RawForecastSample) []Alert {
	alerts := []Alert{}

	if obs.Main != nil {
		temp := common.FloatOr(obs.Main.Temp, 0)
		r := alertReading{
			temp:      temp,
			feelsLike: common.FloatOr(obs.Main.FeelsLike, temp),
			humidity:  common.FloatOr(obs.Main.Humidity, 0),
			precip:    obs.HourlyPrecip(),
		}

		fired := make(map[alertCategory]bool)
		for _, rule := range alertRules {
			if fired[rule.category] || !rule.match(r) {
				continue
			}
			fired[rule.category] = true
			alerts = append(alerts, rule.alert)
		}
	}

	if len(window) > forecastWindow {
		window = window[:forecastWindow]
	}
	for _, s := range window {
		if s.TempMin < 0 {
			alerts = append(alerts, frostForecastAlert)
			break
		}
	}

	return alerts
}
