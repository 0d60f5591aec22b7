// Package handlers exposes the measurement workflow over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/saisun/internal/archiver"
	"github.com/xelth-com/saisun/internal/artifacts"
	"github.com/xelth-com/saisun/internal/buildinfo"
	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/export"
	"github.com/xelth-com/saisun/internal/importer"
	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/measurement"
	"github.com/xelth-com/saisun/internal/middleware"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/reference"
	"github.com/xelth-com/saisun/internal/search"
	"github.com/xelth-com/saisun/internal/session"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/template"
	"github.com/xelth-com/saisun/internal/users"
	"github.com/xelth-com/saisun/internal/websocket"
)

// ListingSource fetches product listings from an external system.
type ListingSource interface {
	Fetch(ctx context.Context) ([]models.ImportRow, error)
}

// Services are the dependencies of the HTTP surface. Odoo and Artifacts
// may be nil when not configured.
type Services struct {
	Catalog       *catalog.Store
	Templates     *template.Resolver
	Measurements  *measurement.Store
	Reference     *reference.Store
	Users         *users.Store
	Recorder      *session.Recorder
	Archiver      *archiver.Archiver
	Search        *search.Service
	Renderer      export.Renderer
	Labels        export.LabelConfig
	Artifacts     artifacts.Store
	Odoo          ListingSource
	Hub           *websocket.Hub
	JWTSecret     string
	RetentionDays int
	Log           *logger.Logger
	Now           func() time.Time
}

// Router wraps the mux router and its services
type Router struct {
	*mux.Router
	svc Services
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(svc Services) *Router {
	if svc.Now == nil {
		svc.Now = time.Now
	}
	r := &Router{Router: mux.NewRouter(), svc: svc}

	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/auth/login", r.login).Methods("POST")
	r.HandleFunc("/ws", r.serveWs).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(svc.JWTSecret))

	api.HandleFunc("/catalog", r.listCatalog).Methods("GET")
	api.HandleFunc("/catalog/brands", r.listBrands).Methods("GET")
	api.HandleFunc("/catalog/brands/{brand}/ids", r.listManagementIDs).Methods("GET")
	api.HandleFunc("/catalog/ids/{id}/sizes", r.listSizes).Methods("GET")
	api.HandleFunc("/catalog/labels", r.catalogLabels).Methods("GET")
	api.HandleFunc("/templates/{genre}/fields", r.templateFields).Methods("GET")
	api.HandleFunc("/measurements/form", r.measurementForm).Methods("GET")
	api.HandleFunc("/measurements", r.saveMeasurements).Methods("POST")
	api.HandleFunc("/search", r.search).Methods("GET")
	api.HandleFunc("/export", r.export).Methods("GET")
	api.HandleFunc("/reference", r.getReference).Methods("GET")

	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/catalog/import", r.importCatalog).Methods("POST")
	admin.HandleFunc("/catalog/import/odoo", r.importOdoo).Methods("POST")
	admin.HandleFunc("/reference/import", r.importReference).Methods("POST")
	admin.HandleFunc("/archive", r.archive).Methods("POST")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	body := buildinfo.Info()
	body["status"] = "ok"
	body["time"] = r.svc.Now().UTC().Format(time.RFC3339)
	respondJSON(w, http.StatusOK, body)
}

func (r *Router) publish(eventType string, payload interface{}) {
	if r.svc.Hub != nil {
		r.svc.Hub.Publish(eventType, payload)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr maps a domain error to its status code. A partial commit
// also reports which sizes were written.
func (r *Router) respondErr(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		r.svc.Log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	}
	var ce *session.CommitError
	if errors.As(err, &ce) {
		respondJSON(w, status, commitErrorBody(err, ce))
		return
	}
	respondError(w, status, err.Error())
}

func commitErrorBody(err error, ce *session.CommitError) map[string]interface{} {
	return map[string]interface{}{
		"error":     err.Error(),
		"committed": ce.Committed,
		"failed":    ce.Failed,
		"unremoved": ce.Unremoved,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, session.ErrUnknownSelection):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, tabular.ErrStoreRead),
		errors.Is(err, tabular.ErrStoreWrite):
		return http.StatusBadGateway
	case errors.Is(err, importer.ErrUnsupportedFile),
		errors.Is(err, importer.ErrMissingColumn):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
