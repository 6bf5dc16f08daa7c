package weather

import "github.com/i474232898/agro-weather/internal/common"

// insightReading is the subset of an observation the insight rules look at.
type insightReading struct {
	temp      float64
	humidity  float64
	windSpeed float64 // m/s, unconverted
	precip    float64
}

// insightBranch applies its effect when when() holds. An empty
// recommendation means the branch classifies without advising.
type insightBranch struct {
	when           func(r insightReading) bool
	apply          func(in *Insight)
	recommendation string
}

// insightRules holds one branch list per rule. Rules are independent; within
// a rule the first matching branch wins.
var insightRules = [][]insightBranch{
	// Planting.
	{
		{
			when: func(r insightReading) bool {
				return r.temp >= 15 && r.temp <= 30 && r.humidity >= 40 && r.precip < 5
			},
			apply:          func(in *Insight) { in.PlantingConditions = SuitabilityExcellent },
			recommendation: "✅ Ideal conditions for planting",
		},
		{
			when:           func(r insightReading) bool { return r.temp < 10 || r.temp > 35 },
			apply:          func(in *Insight) { in.PlantingConditions = SuitabilityPoor },
			recommendation: "⚠️ Extreme temperatures - delay planting if possible",
		},
		{
			when:  func(insightReading) bool { return true },
			apply: func(in *Insight) { in.PlantingConditions = SuitabilityModerate },
		},
	},
	// Irrigation.
	{
		{
			when:           func(r insightReading) bool { return r.humidity < 40 && r.precip < 1 },
			apply:          func(in *Insight) { in.IrrigationNeeded = true },
			recommendation: "💧 Low humidity and no rain - irrigation recommended",
		},
	},
	// Harvest. The wind threshold is compared against m/s as upstream reports it.
	{
		{
			when:           func(r insightReading) bool { return r.precip < 2 && r.windSpeed < 15 },
			apply:          func(in *Insight) { in.HarvestConditions = SuitabilityExcellent },
			recommendation: "🌾 Good conditions for harvesting",
		},
		{
			when:           func(r insightReading) bool { return r.precip > 10 },
			apply:          func(in *Insight) { in.HarvestConditions = SuitabilityPoor },
			recommendation: "🌧️ Heavy rain - avoid harvesting",
		},
	},
	// Wind advisory.
	{
		{
			when:           func(r insightReading) bool { return r.windSpeed > 20 },
			recommendation: "💨 Strong winds - protect crops and structures",
		},
	},
}

// EvaluateInsights classifies planting, irrigation and harvest conditions
// for an observation. Without a primary weather block the defaults are
// returned unchanged.
func EvaluateInsights(obs RawObservation) Insight {
	in := Insight{
		PlantingConditions: SuitabilityGood,
		HarvestConditions:  SuitabilityGood,
		Recommendations:    []string{},
	}
	if obs.Main == nil {
		return in
	}

	r := insightReading{
		temp:      common.FloatOr(obs.Main.Temp, 20),
		humidity:  common.FloatOr(obs.Main.Humidity, 50),
		windSpeed: common.FloatOr(obs.WindSpeed, 0),
		precip:    obs.HourlyPrecip(),
	}

	for _, rule := range insightRules {
		for _, b := range rule {
			if !b.when(r) {
				continue
			}
			if b.apply != nil {
				b.apply(&in)
			}
			if b.recommendation != "" {
				in.Recommendations = append(in.Recommendations, b.recommendation)
			}
			break
		}
	}
	return in
}
