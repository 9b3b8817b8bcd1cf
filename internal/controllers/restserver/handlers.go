package restserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/managers"
	"github.com/atmowatch/atmowatch/internal/schema"
	"github.com/atmowatch/atmowatch/internal/train"
	"github.com/atmowatch/atmowatch/internal/types"
	"github.com/atmowatch/atmowatch/pkg/aqi"
	"github.com/atmowatch/atmowatch/pkg/responseformat"
)

// Handlers holds the HTTP endpoint implementations.
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	training   atomic.Bool
}

// NewHandlers creates the handler set for a controller.
func NewHandlers(c *Controller) *Handlers {
	return &Handlers{
		controller: c,
		formatter:  responseformat.NewFormatter(),
	}
}

// statusFor maps a failure kind onto an HTTP status.
func statusFor(kind types.FailureKind) int {
	switch kind {
	case types.KindModelMissing, types.KindInsufficientData:
		return http.StatusNotFound
	case types.KindFeatureMismatch, types.KindAQIOutOfRange:
		return http.StatusUnprocessableEntity
	case types.KindInvalidRecord:
		return http.StatusBadRequest
	case types.KindSourceUnavailable:
		return http.StatusBadGateway
	case types.KindTrainingInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an error as a structured failure object.
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var failure *types.Failure
	if !errors.As(err, &failure) {
		failure = types.NewFailure(types.KindPersistenceError, "%v", err)
	}
	h.formatter.WriteResponse(w, req, failure, statusFor(failure.Kind))
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, http.StatusOK); err != nil {
		h.controller.logger.Errorw("writing response", "path", req.URL.Path, "error", err)
	}
}

// PostIngest triggers one ingest cycle. The body is optional; without it the
// cycle covers the configured look-back window with every source enabled.
func (h *Handlers) PostIngest(w http.ResponseWriter, req *http.Request) {
	var ingestReq managers.IngestRequest
	if body, err := io.ReadAll(req.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &ingestReq); err != nil {
			h.writeError(w, req, types.NewFailure(types.KindInvalidRecord, "decoding ingest request: %v", err))
			return
		}
	}
	report := h.controller.ingest.Run(req.Context(), ingestReq)
	h.write(w, req, report)
}

// PostTrain runs one training cycle. Training is CPU-bound, so only one run
// is admitted at a time; concurrent requests get a 409.
func (h *Handlers) PostTrain(w http.ResponseWriter, req *http.Request) {
	var trainReq train.Request
	if body, err := io.ReadAll(req.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &trainReq); err != nil {
			h.writeError(w, req, types.NewFailure(types.KindInvalidRecord, "decoding train request: %v", err))
			return
		}
	}

	if !h.training.CompareAndSwap(false, true) {
		h.writeError(w, req, types.NewFailure(types.KindTrainingInProgress, "a training run is already in progress"))
		return
	}
	defer h.training.Store(false)

	report, err := h.controller.trainer.Run(req.Context(), trainReq)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, report)
}

// GetCityForecast serves the day-by-day outlook for a city.
func (h *Handlers) GetCityForecast(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	days := queryInt(req, "days", 3)
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	outlooks, err := h.controller.engine.DayForecast(req.Context(), city, days)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, map[string]any{"city": city, "days": outlooks})
}

// GetEnsembleForecast serves the per-horizon ensemble curve for a pollutant.
func (h *Handlers) GetEnsembleForecast(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	pollutant := req.URL.Query().Get("pollutant")
	if pollutant == "" {
		pollutant = "PM25"
	}

	curve, err := h.controller.engine.EnsembleCurve(req.Context(), city, pollutant)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, curve)
}

// GetCurrentAQI serves the observed AQI snapshot for a city.
func (h *Handlers) GetCurrentAQI(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	conditions, err := h.controller.engine.CurrentConditions(req.Context(), city)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, conditions)
}

// GetHealth reports store reachability and the trained model count.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	status := map[string]any{
		"status":   "ok",
		"models":   h.controller.registry.Len(),
		"database": "ok",
	}
	if _, err := h.controller.store.Cities(req.Context(), 1); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
	}
	h.write(w, req, status)
}

type cityListing struct {
	City        string `json:"city"`
	RecordCount int64  `json:"record_count"`
	AQI         int    `json:"aqi,omitempty"`
	Category    string `json:"category,omitempty"`
}

// GetCities lists the cities with ground data, busiest first, each with its
// current AQI when one can be computed.
func (h *Handlers) GetCities(w http.ResponseWriter, req *http.Request) {
	limit := queryInt(req, "limit", 50)
	cities, err := h.controller.store.Cities(req.Context(), limit)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	listings := make([]cityListing, 0, len(cities))
	for _, c := range cities {
		l := cityListing{City: c.City, RecordCount: c.RecordCount}
		if cond, err := h.controller.engine.CurrentConditions(req.Context(), c.City); err == nil {
			l.AQI = cond.AQI
			l.Category = cond.Category
		}
		listings = append(listings, l)
	}
	h.write(w, req, listings)
}

type pollutantReading struct {
	Pollutant  string    `json:"pollutant"`
	Value      float64   `json:"value"`
	Units      string    `json:"units"`
	AQI        int       `json:"aqi,omitempty"`
	Category   string    `json:"category,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// GetCityPollutants serves the latest reading per pollutant with its AQI
// sub-index.
func (h *Handlers) GetCityPollutants(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	since := time.Now().UTC().Add(-24 * time.Hour)
	obs, err := h.controller.store.LatestCityObservations(req.Context(), city, since, 500)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if len(obs) == 0 {
		h.writeError(w, req, types.NewFailure(types.KindInsufficientData,
			"no observations for %s in the past 24h", city))
		return
	}

	// obs is newest first; first hit per pollutant wins.
	seen := make(map[string]bool)
	var readings []pollutantReading
	for _, o := range obs {
		p := schema.CanonicalParameter(o.Parameter)
		if seen[p] {
			continue
		}
		seen[p] = true
		r := pollutantReading{
			Pollutant:  p,
			Value:      o.Value,
			Units:      o.Units,
			ObservedAt: o.ObservationTime,
		}
		if sub, ok := aqi.Compute(p, o.Value); ok {
			r.AQI = sub
			r.Category = aqi.Category(sub)
		}
		readings = append(readings, r)
	}
	h.write(w, req, map[string]any{"city": city, "pollutants": readings})
}

// GetPollutantHistory serves one pollutant's time series for a city.
func (h *Handlers) GetPollutantHistory(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	city := vars["city"]
	pollutant := vars["pollutant"]
	hours := queryInt(req, "hours", 72)

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	obs, err := h.controller.store.PollutantHistory(req.Context(), city, pollutant, since)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	type point struct {
		Time  time.Time `json:"time"`
		Value float64   `json:"value"`
		Units string    `json:"units"`
	}
	points := make([]point, 0, len(obs))
	for _, o := range obs {
		points = append(points, point{Time: o.ObservationTime, Value: o.Value, Units: o.Units})
	}
	h.write(w, req, map[string]any{
		"city":      city,
		"pollutant": schema.CanonicalParameter(pollutant),
		"hours":     hours,
		"points":    points,
	})
}

// GetWildfireImpact aggregates recent fire activity around a city. The city
// position is taken from its most recent observation.
func (h *Handlers) GetWildfireImpact(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	radius := queryFloat(req, "radius_km", 50)

	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	obs, err := h.controller.store.LatestCityObservations(req.Context(), city, since, 1)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if len(obs) == 0 {
		h.writeError(w, req, types.NewFailure(types.KindInsufficientData,
			"no observations locate %s", city))
		return
	}

	w7 := types.Window{Start: since, End: time.Now().UTC()}
	fires, err := h.controller.store.FireDetections(req.Context(), w7)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	impact := features.SummarizeFires(obs[0].Latitude, obs[0].Longitude, radius, fires)
	h.write(w, req, map[string]any{
		"city":       city,
		"radius_km":  radius,
		"window_d":   7,
		"impact":     impact,
		"smoke_risk": impact.RiskLevel(),
	})
}

// GetModels lists the trained model inventory.
func (h *Handlers) GetModels(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, h.controller.registry.Entries())
}

func queryInt(req *http.Request, name string, fallback int) int {
	if s := req.URL.Query().Get(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}

func queryFloat(req *http.Request, name string, fallback float64) float64 {
	if s := req.URL.Query().Get(name); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return fallback
}
