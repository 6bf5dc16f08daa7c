package weather

import (
	"sort"
	"time"

	"github.com/i474232898/agro-weather/internal/common"
)

// msToKmh converts wind speed from m/s to km/h.
const msToKmh = 3.6

const dateLayout = "2006-01-02"

type dayBucket struct {
	tempMin  float64
	tempMax  float64
	humidity []float64
	wind     []float64
	precip   float64
	samples  []RawForecastSample
}

// AggregateDaily buckets forecast samples by calendar date in loc and reduces
// each bucket into a DailyAggregate. The result is sorted by date and holds
// at most days entries; days missing from the input are never invented.
// GDD is left at zero; see AccumulateGDD.
func AggregateDaily(samples []RawForecastSample, days int, loc *time.Location) []DailyAggregate {
	if days <= 0 || len(samples) == 0 {
		return []DailyAggregate{}
	}
	if loc == nil {
		loc = time.UTC
	}

	ordered := make([]RawForecastSample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time.Before(ordered[j].Time)
	})

	buckets := make(map[string]*dayBucket)
	for _, s := range ordered {
		k := s.Time.In(loc).Format(dateLayout)

		b, ok := buckets[k]
		if !ok {
			b = &dayBucket{tempMin: s.TempMin, tempMax: s.TempMax}
			buckets[k] = b
		}

		b.tempMin = min(b.tempMin, s.TempMin)
		b.tempMax = max(b.tempMax, s.TempMax)

		if s.Humidity != nil {
			b.humidity = append(b.humidity, *s.Humidity)
		}
		b.wind = append(b.wind, common.FloatOr(s.WindSpeed, 0)*msToKmh)
		b.precip += common.FloatOr(s.Rain3h, 0)
		b.samples = append(b.samples, s)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > days {
		keys = keys[:days]
	}

	out := make([]DailyAggregate, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k].reduce(k))
	}
	return out
}

func (b *dayBucket) reduce(date string) DailyAggregate {
	day := DailyAggregate{
		Date:          date,
		TempMin:       b.tempMin,
		TempMax:       b.tempMax,
		TempAvg:       common.Round1((b.tempMin + b.tempMax) / 2),
		HumidityAvg:   common.Round1(mean(b.humidity)),
		WindSpeedAvg:  common.Round1(mean(b.wind)),
		Precipitation: b.precip,
		Samples:       len(b.samples),
	}

	// The middle sample stands in for the whole day.
	if len(b.samples) > 0 {
		c := b.samples[len(b.samples)/2].Condition
		day.Description = common.TitleCase(c.Description)
		day.Icon = c.Icon
	}
	return day
}

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
