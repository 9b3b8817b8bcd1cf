// Package restserver exposes the pipeline over HTTP: ingest and training
// triggers, forecast and AQI queries, and the observation browsing API.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/forecast"
	"github.com/atmowatch/atmowatch/internal/log"
	"github.com/atmowatch/atmowatch/internal/managers"
	"github.com/atmowatch/atmowatch/internal/registry"
	"github.com/atmowatch/atmowatch/internal/storage"
	"github.com/atmowatch/atmowatch/internal/train"
	"github.com/atmowatch/atmowatch/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	httpCfg  config.HTTPData
	Server   http.Server
	store    storage.Store
	ingest   *managers.IngestManager
	trainer  *train.Trainer
	engine   *forecast.Engine
	registry *registry.Registry
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, httpCfg config.HTTPData, store storage.Store,
	ingest *managers.IngestManager, trainer *train.Trainer, engine *forecast.Engine,
	reg *registry.Registry, logger *zap.SugaredLogger) *Controller {

	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		httpCfg:  httpCfg,
		store:    store,
		ingest:   ingest,
		trainer:  trainer,
		engine:   engine,
		registry: reg,
		logger:   logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", httpCfg.ListenAddr, httpCfg.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	return ctrl
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	// Pipeline triggers
	router.HandleFunc("/ingest", c.handlers.PostIngest).Methods(http.MethodPost)
	router.HandleFunc("/train", c.handlers.PostTrain).Methods(http.MethodPost)

	// Forecasts
	router.HandleFunc("/forecast/ensemble/{city}", c.handlers.GetEnsembleForecast).Methods(http.MethodGet)
	router.HandleFunc("/forecast/{city}", c.handlers.GetCityForecast).Methods(http.MethodGet)
	router.HandleFunc("/aqi/{city}", c.handlers.GetCurrentAQI).Methods(http.MethodGet)

	// Observation browsing
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/cities", c.handlers.GetCities).Methods(http.MethodGet)
	router.HandleFunc("/api/pollutants/{city}", c.handlers.GetCityPollutants).Methods(http.MethodGet)
	router.HandleFunc("/api/pollutants/{city}/history/{pollutant}", c.handlers.GetPollutantHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/wildfire/impact/{city}", c.handlers.GetWildfireImpact).Methods(http.MethodGet)
	router.HandleFunc("/api/models", c.handlers.GetModels).Methods(http.MethodGet)

	return router
}
