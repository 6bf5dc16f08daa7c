package weather

import (
	"fmt"
	"time"
)

func fp(v float64) *float64 { return &v }

var day0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// threeHourly builds n samples every 3 hours from start. Sample i has
// TempMin i, TempMax i+10, humidity 50+i, wind 1 m/s, 0.5 mm rain, and a
// condition described as "cond i".
func threeHourly(start time.Time, n int) []RawForecastSample {
	out := make([]RawForecastSample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, RawForecastSample{
			Time:      start.Add(time.Duration(3*i) * time.Hour),
			Temp:      float64(i) + 5,
			TempMin:   float64(i),
			TempMax:   float64(i) + 10,
			Humidity:  fp(50 + float64(i)),
			WindSpeed: fp(1),
			Rain3h:    fp(0.5),
			Condition: Condition{
				Description: fmt.Sprintf("cond %d", i),
				Icon:        fmt.Sprintf("%02dd", i),
			},
		})
	}
	return out
}

func observation(temp, feelsLike, humidity float64) RawObservation {
	return RawObservation{
		Name:    "Testville",
		Country: "TV",
		Main: &MainBlock{
			Temp:      fp(temp),
			FeelsLike: fp(feelsLike),
			Humidity:  fp(humidity),
			Pressure:  fp(1013),
		},
		WindSpeed: fp(3),
		Conditions: []Condition{
			{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"},
		},
	}
}

func alertTypes(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}
