package httpapi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/invopop/jsonschema"

	"github.com/i474232898/agro-weather/internal/store"
	"github.com/i474232898/agro-weather/internal/weather"
)

var validate = validator.New()

const (
	defaultForecastDays = 7
	defaultGDDDays      = 7
)

// reportTypes maps schema names to the report they describe.
var reportTypes = map[string]any{
	"current":  &weather.CurrentReport{},
	"forecast": &weather.ForecastReport{},
	"gdd":      &weather.GDDReport{},
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	api := app.Group("/api/weather")

	api.Get("/current", func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Current(c.UserContext(), q.toCoordinates())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(report)
	})

	api.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Forecast(c.UserContext(), req.Coords.toCoordinates(), req.Days)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(report)
	})

	api.Get("/gdd", func(c *fiber.Ctx) error {
		req := gddQuery{BaseTemp: service.BaseTemp()}
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GDD(c.UserContext(), req.Coords.toCoordinates(), req.Days, req.BaseTemp)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(report)
	})

	api.Get("/search", func(c *fiber.Ctx) error {
		q := searchQuery{Q: c.Query("q")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		places, err := service.SearchLocation(c.UserContext(), q.Q)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{"locations": places})
	})

	api.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Coords.toCoordinates()
		snapshots, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	api.Get("/schema/:report", func(c *fiber.Ctx) error {
		schema, ok := ReportSchema(c.Params("report"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown report %q", c.Params("report")))
		}
		return c.JSON(schema)
	})
}

// ReportSchema returns the JSON Schema of the named report.
func ReportSchema(name string) (*jsonschema.Schema, bool) {
	v, ok := reportTypes[name]
	if !ok {
		return nil, false
	}
	r := jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(v), true
}

// toFiberError maps the weather error taxonomy onto HTTP statuses.
func toFiberError(err error) error {
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrConfigurationMissing):
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather provider api key not configured")
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "location not found")
	case errors.Is(err, weather.ErrTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, "weather api request timeout")
	case errors.As(err, &upstream):
		code := upstream.StatusCode
		if code < 400 || code > 599 {
			code = fiber.StatusBadGateway
		}
		return fiber.NewError(code, fmt.Sprintf("weather api error: %s", upstream.Message))
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

// coordQuery holds query parameters for identifying a location.
type coordQuery struct {
	Lat *float64 `validate:"required,min=-90,max=90"`
	Lon *float64 `validate:"required,min=-180,max=180"`
}

func (q coordQuery) toCoordinates() weather.Coordinates {
	return weather.Coordinates{Lat: *q.Lat, Lon: *q.Lon}
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	var q coordQuery

	lat, err := parseOptionalFloat(c, "lat")
	if err != nil {
		return q, err
	}
	lon, err := parseOptionalFloat(c, "lon")
	if err != nil {
		return q, err
	}
	q.Lat, q.Lon = lat, lon

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Coords coordQuery
	Days   int `validate:"min=1,max=7"`
}

func (f *forecastQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	f.Coords = coords

	days, err := parseIntDefault(c, "days", defaultForecastDays)
	if err != nil {
		return err
	}
	f.Days = days

	return validate.Struct(f)
}

// gddQuery holds query parameters for the GDD endpoint.
type gddQuery struct {
	Coords   coordQuery
	Days     int `validate:"min=1,max=30"`
	BaseTemp float64
}

func (g *gddQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	g.Coords = coords

	days, err := parseIntDefault(c, "days", defaultGDDDays)
	if err != nil {
		return err
	}
	g.Days = days

	base, err := parseOptionalFloat(c, "base_temp")
	if err != nil {
		return err
	}
	if base != nil {
		if math.IsNaN(*base) || math.IsInf(*base, 0) {
			return errors.New("invalid base_temp: must be a finite number")
		}
		g.BaseTemp = *base
	}

	return validate.Struct(g)
}

type searchQuery struct {
	Q string `validate:"required"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coords coordQuery
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	h.Coords = coords

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

func parseOptionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be a number", key)
	}
	return &f, nil
}

func parseIntDefault(c *fiber.Ctx, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", key)
	}
	return n, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
