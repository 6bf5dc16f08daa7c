package weather

// DefaultBaseTemp is the GDD base temperature in °C used when none is given.
const DefaultBaseTemp = 10.0

// GDD returns the growing degree days for one day: the mean of tempMin and
// tempMax above base, floored at zero.
func GDD(tempMin, tempMax, base float64) float64 {
	return max(0, (tempMax+tempMin)/2-base)
}

// AccumulateGDD computes per-day GDD and the running total over days, in
// the order given. Callers pass days sorted by date.
func AccumulateGDD(days []DailyAggregate, base float64) GDDAccumulation {
	acc := GDDAccumulation{
		BaseTemp: base,
		Days:     make([]GDDDay, 0, len(days)),
	}
	for _, d := range days {
		g := GDD(d.TempMin, d.TempMax, base)
		acc.Total += g
		acc.Days = append(acc.Days, GDDDay{
			Date:       d.Date,
			TempMin:    d.TempMin,
			TempMax:    d.TempMax,
			GDD:        g,
			Cumulative: acc.Total,
		})
	}
	return acc
}
