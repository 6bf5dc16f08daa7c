package weather

import (
	"time"

	"github.com/i474232898/agro-weather/internal/common"
)

// ReportBuilder composes the aggregation, GDD, alert and insight logic into
// the three public reports. It holds no per-request state.
type ReportBuilder struct {
	loc      *time.Location
	baseTemp float64
}

// ReportOption configures a ReportBuilder.
type ReportOption func(*ReportBuilder)

// WithLocation sets the time zone used to bucket forecast samples into days.
func WithLocation(loc *time.Location) ReportOption {
	return func(b *ReportBuilder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithBaseTemp sets the base temperature for forecast-report GDD.
func WithBaseTemp(base float64) ReportOption {
	return func(b *ReportBuilder) {
		b.baseTemp = base
	}
}

// NewReportBuilder creates a ReportBuilder bucketing in UTC with DefaultBaseTemp.
func NewReportBuilder(opts ...ReportOption) *ReportBuilder {
	b := &ReportBuilder{
		loc:      time.UTC,
		baseTemp: DefaultBaseTemp,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BaseTemp returns the base temperature used for forecast reports.
func (b *ReportBuilder) BaseTemp() float64 {
	return b.baseTemp
}

// Current builds the current-conditions report.
func (b *ReportBuilder) Current(at Coordinates, obs RawObservation) CurrentReport {
	return CurrentReport{
		Location: ReportLocation{
			Name:    nameOrUnknown(obs.Name),
			Country: obs.Country,
			Lat:     at.Lat,
			Lon:     at.Lon,
		},
		Current:  b.Conditions(obs),
		Alerts:   EvaluateAlerts(obs, nil),
		Insights: EvaluateInsights(obs),
	}
}

// Conditions converts an observation into display units.
func (b *ReportBuilder) Conditions(obs RawObservation) CurrentConditions {
	cur := CurrentConditions{
		WindSpeed:     common.Round1(common.FloatOr(obs.WindSpeed, 0) * msToKmh),
		WindDirection: common.FloatOr(obs.WindDeg, 0),
		Clouds:        common.FloatOr(obs.Clouds, 0),
		Rain:          obs.HourlyPrecip(),
		Sunrise:       obs.Sunrise,
		Sunset:        obs.Sunset,
	}
	if obs.Main != nil {
		cur.Temp = common.Round1(common.FloatOr(obs.Main.Temp, 0))
		cur.FeelsLike = common.Round1(common.FloatOr(obs.Main.FeelsLike, cur.Temp))
		cur.Humidity = common.FloatOr(obs.Main.Humidity, 0)
		cur.Pressure = common.FloatOr(obs.Main.Pressure, 0)
	}
	if obs.Visibility != nil && *obs.Visibility != 0 {
		cur.Visibility = common.Float(*obs.Visibility / 1000)
	}
	if c, ok := obs.PrimaryCondition(); ok {
		cur.Description = common.TitleCase(c.Description)
		cur.Icon = c.Icon
	}
	return cur
}

// Forecast builds the multi-day forecast report. Alerts combine the current
// observation with the forecast window.
func (b *ReportBuilder) Forecast(at Coordinates, obs RawObservation, fc RawForecast, days int) ForecastReport {
	daily := AggregateDaily(fc.Samples, days, b.loc)

	var cumulative float64
	for i := range daily {
		daily[i].GDD = common.Round1(GDD(daily[i].TempMin, daily[i].TempMax, b.baseTemp))
		cumulative += daily[i].GDD
	}

	return ForecastReport{
		Location: ReportLocation{
			Name:    nameOrUnknown(fc.Place.Name),
			Country: fc.Place.Country,
			Lat:     at.Lat,
			Lon:     at.Lon,
		},
		Forecast:      daily,
		CumulativeGDD: common.Round1(cumulative),
		Alerts:        EvaluateAlerts(obs, fc.Samples),
	}
}

// GDD builds the degree-day report over days with the given base temperature.
// It is independent of the forecast report's horizon.
func (b *ReportBuilder) GDD(fc RawForecast, days int, base float64) GDDReport {
	acc := AccumulateGDD(AggregateDaily(fc.Samples, days, b.loc), base)

	report := GDDReport{
		BaseTemp:   base,
		PeriodDays: days,
		DailyGDD:   make([]GDDEntry, 0, len(acc.Days)),
		TotalGDD:   common.Round1(acc.Total),
	}
	for _, d := range acc.Days {
		report.DailyGDD = append(report.DailyGDD, GDDEntry{
			Date:          d.Date,
			TempMin:       common.Round1(d.TempMin),
			TempMax:       common.Round1(d.TempMax),
			GDD:           common.Round1(d.GDD),
			CumulativeGDD: common.Round1(d.Cumulative),
		})
	}
	return report
}

func nameOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
