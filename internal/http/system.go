package http

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Pinger reports backing store connectivity for the readiness probe.
// *sql.DB and *bun.DB both satisfy it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Info is the build identity served by the info endpoint.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Environment string   `json:"environment,omitempty"`
	Features    []string `json:"features,omitempty"`
}

func (api *API) registerSystemRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET "+joinPath(base, "healthz"), api.handleHealthz)
	mux.HandleFunc("GET "+joinPath(base, "readyz"), api.handleReadyz)
	mux.HandleFunc("GET "+joinPath(base, "info"), api.handleInfo)

	schemaRoot := joinPath(base, "schemas")
	mux.HandleFunc("GET "+schemaRoot, api.authenticated(api.handleSchemaList))
	mux.HandleFunc("GET "+schemaRoot+"/{resource}", api.authenticated(api.handleSchemaGet))
}

func (api *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings the backing store when one is wired. Without a pinger
// liveness and readiness are the same check.
func (api *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.pinger == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := api.pinger.PingContext(ctx); err != nil {
		api.logger.Warn("readiness ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *API) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.info)
}

func (api *API) handleSchemaList(w http.ResponseWriter, _ *http.Request) {
	if api == nil || api.catalog == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": api.catalog.Resources()})
}

func (api *API) handleSchemaGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.catalog == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	doc, ok := api.catalog.Document(r.PathValue("resource"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
