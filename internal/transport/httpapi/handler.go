// Package httpapi exposes the application wizard, consent and status lookup
// over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/wizard"
)

const (
	maxJSONBytes = 256 * 1024
	// multipart overhead on top of the ingest ceiling
	maxUploadOverhead = 1 << 20
)

type StatusLookup interface {
	LatestByCitizenID(ctx context.Context, citizenID string) (*models.Application, error)
}

type PositionLister interface {
	ActivePositions(ctx context.Context) ([]models.Position, error)
}

// Check is a named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Options struct {
	Consents  wizard.ConsentStore
	Sessions  *wizard.Sessions
	Wizard    wizard.Deps
	Status    StatusLookup
	Positions PositionLister
	Checks    []Check
	Logger    logger.Logger
}

type Handler struct {
	consents  wizard.ConsentStore
	sessions  *wizard.Sessions
	deps      wizard.Deps
	status    StatusLookup
	positions PositionLister
	checks    []Check
	log       logger.Logger
	now       func() time.Time
}

func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		consents:  opts.Consents,
		sessions:  opts.Sessions,
		deps:      opts.Wizard,
		status:    opts.Status,
		positions: opts.Positions,
		checks:    opts.Checks,
		log:       log.WithFields(map[string]interface{}{"component": "http"}),
		now:       time.Now,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/positions", h.HandleListPositions)
	r.Post("/consent", h.HandleConsent)
	r.Get("/status/{citizenId}", h.HandleStatus)

	r.Route("/wizard", func(r chi.Router) {
		r.Post("/", h.HandleOpenWizard)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetWizard)
			r.Delete("/", h.HandleAbandonWizard)
			r.Patch("/fields", h.HandleSetFields)
			r.Post("/next", h.HandleNext)
			r.Post("/back", h.HandleBack)
			r.Put("/attachments/{slot}", h.HandleAttach)
			r.Delete("/attachments/{slot}", h.HandleDetach)
			r.Get("/attachments/{slot}/preview", h.HandlePreview)
			r.Post("/submit", h.HandleSubmit)
		})
	})
}

// Router builds the portal router with the standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	h.Register(r)
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request served", map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start).String(),
			"requestId": middleware.GetReqID(r.Context()),
		})
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// HandleReady runs every readiness probe and reports 503 when any fails.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			continue
		}
		results[c.Name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
}
