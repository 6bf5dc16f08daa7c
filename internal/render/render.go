// Package render writes weather reports as tables or indented JSON for the CLI.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"

	"github.com/i474232898/agro-weather/internal/common"
	"github.com/i474232898/agro-weather/internal/weather"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Render writes v to w. Reports without a table form fall back to JSON.
func Render(w io.Writer, v any, format string) error {
	if format == FormatJSON {
		return renderJSON(w, v)
	}
	switch r := v.(type) {
	case weather.CurrentReport:
		return renderCurrent(w, r)
	case weather.ForecastReport:
		return renderForecast(w, r)
	case weather.GDDReport:
		return renderGDD(w, r)
	case []weather.Place:
		return renderPlaces(w, r)
	default:
		return renderJSON(w, v)
	}
}

func renderJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderCurrent(w io.Writer, r weather.CurrentReport) error {
	fmt.Fprintf(w, "%s, %s (%s, %s)\n\n", r.Location.Name, r.Location.Country, ff(r.Location.Lat), ff(r.Location.Lon))

	cur := r.Current
	visibility := "-"
	if cur.Visibility != nil {
		visibility = ff(*cur.Visibility) + " km"
	}
	printKVTable(w, [][]string{
		{"conditions", cur.Description},
		{"temp", ff(cur.Temp) + " °C"},
		{"feels_like", ff(cur.FeelsLike) + " °C"},
		{"humidity", ff(cur.Humidity) + " %"},
		{"pressure", ff(cur.Pressure) + " hPa"},
		{"wind", fmt.Sprintf("%s km/h @ %s°", ff(cur.WindSpeed), ff(cur.WindDirection))},
		{"clouds", ff(cur.Clouds) + " %"},
		{"visibility", visibility},
		{"rain", ff(cur.Rain) + " mm"},
	})

	if err := renderAlerts(w, r.Alerts); err != nil {
		return err
	}

	in := r.Insights
	fmt.Fprintln(w)
	printKVTable(w, [][]string{
		{"planting", string(in.PlantingConditions)},
		{"harvest", string(in.HarvestConditions)},
		{"irrigation_needed", strconv.FormatBool(in.IrrigationNeeded)},
	})
	for _, rec := range in.Recommendations {
		fmt.Fprintf(w, "  %s\n", rec)
	}
	return nil
}

func renderForecast(w io.Writer, r weather.ForecastReport) error {
	fmt.Fprintf(w, "%s, %s\n\n", r.Location.Name, r.Location.Country)

	table := newTable(w)
	table.SetHeader([]string{"Date", "Min", "Max", "Avg", "Humidity", "Wind km/h", "Rain mm", "GDD", "Conditions"})
	for _, d := range r.Forecast {
		table.Append([]string{
			d.Date, ff(d.TempMin), ff(d.TempMax), ff(d.TempAvg), ff(d.HumidityAvg),
			ff(d.WindSpeedAvg), ff(common.Round1(d.Precipitation)), ff(d.GDD), d.Description,
		})
	}
	table.Render()

	fmt.Fprintf(w, "\ncumulative GDD: %s\n", ff(r.CumulativeGDD))
	return renderAlerts(w, r.Alerts)
}

func renderGDD(w io.Writer, r weather.GDDReport) error {
	fmt.Fprintf(w, "base temperature %s °C, %d days\n\n", ff(r.BaseTemp), r.PeriodDays)

	table := newTable(w)
	table.SetHeader([]string{"Date", "Min", "Max", "GDD", "Cumulative"})
	for _, d := range r.DailyGDD {
		table.Append([]string{d.Date, ff(d.TempMin), ff(d.TempMax), ff(d.GDD), ff(d.CumulativeGDD)})
	}
	table.Render()

	fmt.Fprintf(w, "\ntotal GDD: %s\n", ff(r.TotalGDD))
	return nil
}

func renderPlaces(w io.Writer, places []weather.Place) error {
	if len(places) == 0 {
		fmt.Fprintln(w, "no locations found")
		return nil
	}
	table := newTable(w)
	table.SetHeader([]string{"Name", "State", "Country", "Lat", "Lon"})
	for _, p := range places {
		table.Append([]string{p.Name, p.State, p.Country, ff(p.Lat), ff(p.Lon)})
	}
	table.Render()
	return nil
}

func renderAlerts(w io.Writer, alerts []weather.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	table := newTable(w)
	table.SetHeader([]string{"Alert", "Severity", "Message"})
	for _, a := range alerts {
		table.Append([]string{a.Type, strings.ToUpper(string(a.Severity)), a.Message})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func printKVTable(w io.Writer, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// ff formats a float with the fewest digits that round-trip.
func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
