// Package api exposes the portal's HTTP surface: scan verify/confirm, round
// and session administration, and job reads.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"placementd/internal/placement"
	"placementd/internal/token"
	"placementd/pkg/bus"
	gos3 "placementd/pkg/s3"
)

// Store holds external dependencies required by the API layer.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	S3  *gos3.Client
	Bus *bus.Bus
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	PhotoBucket     string
	PhotoURLTTL     time.Duration
	AllowedOrigins  []string
	RateLimitPerMin int
}

// API wires dependencies and configuration for HTTP handlers.
type API struct {
	store    *Store
	config   Config
	rounds   *placement.RoundStore
	sessions *placement.SessionManager
	recorder *placement.Recorder
	legacy   *placement.LegacyRecorder
}

// New initialises the API layer with sane defaults applied to the provided configuration.
func New(store *Store, codec *token.Codec, cfg Config) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 300
	}

	rounds, err := placement.NewRoundStore(store.ORM)
	if err != nil {
		return nil, err
	}
	sessions, err := placement.NewSessionManager(store.ORM)
	if err != nil {
		return nil, err
	}
	validator, err := placement.NewValidator(store.ORM, sessions)
	if err != nil {
		return nil, err
	}
	recorder, err := placement.NewRecorder(store.ORM, codec, sessions, validator, placement.RecorderOptions{
		Photos:      store.S3,
		PhotoBucket: cfg.PhotoBucket,
		PhotoTTL:    cfg.PhotoURLTTL,
	})
	if err != nil {
		return nil, err
	}

	return &API{
		store:    store,
		config:   cfg,
		rounds:   rounds,
		sessions: sessions,
		recorder: recorder,
		legacy:   placement.NewLegacyRecorder(store.ORM),
	}, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	allowed := a.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(httprate.Limit(a.config.RateLimitPerMin, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReadyz)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scan", a.handleScan)
		r.Post("/scan/confirm", a.handleScanConfirm)

		r.Get("/jobs", a.handleListJobs)
		r.Get("/jobs/{jobID}", a.handleGetJob)
		r.Get("/jobs/{jobID}/attendance", a.handleJobAttendance)

		r.Get("/jobs/{jobID}/rounds", a.handleListRounds)
		r.Post("/jobs/{jobID}/rounds", a.handleCreateRound)
		r.Patch("/rounds/{roundID}", a.handleUpdateRound)
		r.Delete("/rounds/{roundID}", a.handleRemoveRound)
		r.Post("/rounds/{roundID}/restore", a.handleRestoreRound)

		r.Get("/sessions", a.handleListSessions)
		r.Post("/rounds/{roundID}/sessions", a.handleStartSession)
		r.Get("/sessions/{sessionID}", a.handleGetSession)
		r.Post("/sessions/{sessionID}/transition", a.handleTransitionSession)
		r.Post("/sessions/{sessionID}/token", a.handleIssueToken)
	})

	return r, nil
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if a.store.DB != nil {
		if err := a.store.DB.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
