package forecast

import (
	"context"
	"time"

	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/types"
	"github.com/atmowatch/atmowatch/pkg/aqi"
)

// curveHorizons are the horizons reported by the ensemble curve endpoint.
// The tail extends past the deepest trained horizon to show the decayed
// extrapolation.
var curveHorizons = []int{1, 6, 24, 48, 72}

// PollutantValue is one forecast concentration in a day outlook.
type PollutantValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// DayOutlook is one day of the city forecast.
type DayOutlook struct {
	Date       string           `json:"date"`
	AQI        int              `json:"aqi"`
	Category   string           `json:"category"`
	Color      string           `json:"color"`
	Pollutants []PollutantValue `json:"pollutants"`
}

// CurrentConditions is the observed AQI snapshot for a city.
type CurrentConditions struct {
	City              string    `json:"city"`
	AQI               int       `json:"aqi"`
	Category          string    `json:"category"`
	Color             string    `json:"color"`
	DominantPollutant string    `json:"dominant_pollutant"`
	ObservedAt        time.Time `json:"observed_at"`
}

func unitFor(pollutant string) string {
	switch pollutant {
	case "PM25", "PM10":
		return "ug/m3"
	case "CO":
		return "ppm"
	default:
		return "ppb"
	}
}

// EnsembleCurve forecasts one pollutant across the standard horizon ladder.
// Horizons with no usable model are skipped; an empty curve surfaces the
// last failure instead of an empty success.
func (e *Engine) EnsembleCurve(ctx context.Context, city, pollutant string) ([]*Prediction, error) {
	var (
		curve   []*Prediction
		lastErr error
	)
	for _, h := range curveHorizons {
		p, err := e.Ensemble(ctx, city, pollutant, h)
		if err != nil {
			lastErr = err
			continue
		}
		curve = append(curve, p)
	}
	if len(curve) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, types.NewFailure(types.KindModelMissing, "no trained models for %s", pollutant)
	}
	return curve, nil
}

// DayForecast produces a day-by-day outlook: for each day ahead, every
// trained pollutant is forecast at that day's horizon and the composite AQI
// is taken across them.
func (e *Engine) DayForecast(ctx context.Context, city string, days int) ([]DayOutlook, error) {
	pollutants := e.registry.Pollutants()
	if len(pollutants) == 0 {
		return nil, types.NewFailure(types.KindModelMissing, "no trained models")
	}

	now := time.Now().UTC()
	var outlooks []DayOutlook
	for d := 1; d <= days; d++ {
		concentrations := make(map[string]float64)
		var values []PollutantValue
		for _, p := range pollutants {
			pred, err := e.Ensemble(ctx, city, p, d*24)
			if err != nil {
				// A pollutant without recent data drops out of the
				// composite; the day still reports the others.
				e.logger.Debugw("pollutant skipped in day forecast",
					"city", city, "pollutant", p, "day", d, "error", err)
				continue
			}
			v := pred.Mean
			if v < 0 {
				v = 0
			}
			concentrations[p] = v
			values = append(values, PollutantValue{Name: p, Value: v, Unit: unitFor(p)})
		}
		if len(values) == 0 {
			continue
		}

		outlook := DayOutlook{
			Date:       now.AddDate(0, 0, d).Format("2006-01-02"),
			Pollutants: values,
		}
		if composite, _, ok := aqi.Composite(concentrations); ok {
			outlook.AQI = composite
			outlook.Category = aqi.Category(composite)
			outlook.Color = aqi.Color(composite)
		} else {
			outlook.Category = "undefined"
		}
		outlooks = append(outlooks, outlook)
	}
	if len(outlooks) == 0 {
		return nil, types.NewFailure(types.KindFeatureMismatch,
			"no pollutant could be forecast for %s", city)
	}
	return outlooks, nil
}

// CurrentConditions computes the observed AQI from the latest reading of
// each pollutant within the past 24 hours.
func (e *Engine) CurrentConditions(ctx context.Context, city string) (*CurrentConditions, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	obs, err := e.store.LatestCityObservations(ctx, city, since, 500)
	if err != nil {
		return nil, types.NewFailure(types.KindPersistenceError, "loading observations for %s: %v", city, err)
	}
	if len(obs) == 0 {
		return nil, types.NewFailure(types.KindInsufficientData,
			"no observations for %s in the past 24h", city)
	}

	// obs is newest first; keep the first reading seen per pollutant.
	concentrations := make(map[string]float64)
	for _, o := range obs {
		p := schema.CanonicalParameter(o.Parameter)
		if _, ok := concentrations[p]; !ok {
			concentrations[p] = o.Value
		}
	}

	composite, dominant, ok := aqi.Composite(concentrations)
	if !ok {
		return nil, types.NewFailure(types.KindAQIOutOfRange,
			"no observed concentration for %s maps onto the index", city)
	}
	return &CurrentConditions{
		City:              city,
		AQI:               composite,
		Category:          aqi.Category(composite),
		Color:             aqi.Color(composite),
		DominantPollutant: dominant,
		ObservedAt:        obs[0].ObservationTime,
	}, nil
}
