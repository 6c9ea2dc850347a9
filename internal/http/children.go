package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-nestsync/children"
	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/google/uuid"
)

type childCreatePayload struct {
	Name        string   `json:"name"`
	BirthDate   string   `json:"birth_date"`
	CurrentSize string   `json:"current_size,omitempty"`
	DailyUsage  int      `json:"daily_usage,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

type childUpdatePayload struct {
	Name        *string  `json:"name,omitempty"`
	CurrentSize *string  `json:"current_size,omitempty"`
	DailyUsage  *int     `json:"daily_usage,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

func (api *API) registerChildRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	familyRoot := joinPath(base, "families")
	root := joinPath(base, "children")
	mux.HandleFunc("GET "+familyRoot+"/{id}/children", api.authenticated(api.handleChildList))
	mux.HandleFunc("POST "+familyRoot+"/{id}/children", api.authenticated(api.handleChildCreate))
	mux.HandleFunc("GET "+root+"/{id}", api.authenticated(api.handleChildGet))
	mux.HandleFunc("PATCH "+root+"/{id}", api.authenticated(api.handleChildUpdate))
	mux.HandleFunc("DELETE "+root+"/{id}", api.authenticated(api.handleChildDelete))
	mux.HandleFunc("GET "+root+"/{id}/advisory", api.authenticated(api.handleChildAdvisory))
}

func (api *API) handleChildList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	familyID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, familyID, permissions.ChildrenRead) {
		return
	}
	list, err := api.children.List(r.Context(), familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleChildCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	familyID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload childCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	birthDate, err := parseBirthDate(payload.BirthDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid birth_date"})
		return
	}
	created, err := api.children.Create(r.Context(), children.CreateChildRequest{
		FamilyID:    familyID,
		Name:        payload.Name,
		BirthDate:   birthDate,
		CurrentSize: domain.DiaperSize(strings.ToLower(strings.TrimSpace(payload.CurrentSize))),
		DailyUsage:  payload.DailyUsage,
		WeightKg:    payload.WeightKg,
		Notes:       payload.Notes,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (api *API) handleChildGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	record, ok := api.loadChildForRead(w, r, permissions.ChildrenRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *API) handleChildUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload childUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	req := children.UpdateChildRequest{
		ID:         id,
		Name:       payload.Name,
		DailyUsage: payload.DailyUsage,
		WeightKg:   payload.WeightKg,
		Notes:      payload.Notes,
		UpdatedBy:  actor.ID,
	}
	if payload.CurrentSize != nil {
		size := domain.DiaperSize(strings.ToLower(strings.TrimSpace(*payload.CurrentSize)))
		req.CurrentSize = &size
	}
	updated, err := api.children.Update(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *API) handleChildDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if err := api.children.Delete(r.Context(), children.DeleteChildRequest{ID: id, DeletedBy: actor.ID}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleChildAdvisory(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.children == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	record, ok := api.loadChildForRead(w, r, permissions.ChildrenRead)
	if !ok {
		return
	}
	advisory, err := api.children.SizeAdvisory(r.Context(), record.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advisory)
}

// loadChildForRead resolves the child named in the path and checks the
// permission against its family. Child-scoped reads have no family in the
// URL, so the scope comes from the loaded record.
func (api *API) loadChildForRead(w http.ResponseWriter, r *http.Request, permission string) (*children.Child, bool) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return nil, false
	}
	record, err := api.children.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if !requireFamilyPermission(w, r, record.FamilyID, permission) {
		return nil, false
	}
	return record, true
}

// childFamilyID resolves the owning family for inventory and usage routes.
func (api *API) childFamilyID(r *http.Request, childID uuid.UUID) (uuid.UUID, error) {
	if api == nil || api.children == nil {
		return uuid.Nil, children.ErrChildIDRequired
	}
	record, err := api.children.Get(r.Context(), childID)
	if err != nil {
		return uuid.Nil, err
	}
	return record.FamilyID, nil
}

func parseBirthDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", trimmed)
}
