package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-nestsync/domain"
	internalusers "github.com/goliatone/go-nestsync/internal/users"
	"github.com/goliatone/go-nestsync/users"
)

type userUpdatePayload struct {
	DisplayName *string `json:"display_name,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	Province    *string `json:"province,omitempty"`
	Onboarded   *bool   `json:"onboarded,omitempty"`
}

type userDeletePayload struct {
	Reason string `json:"reason,omitempty"`
}

func (api *API) registerUserRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "users/me")
	mux.HandleFunc("GET "+root, api.authenticated(api.handleUserGet))
	mux.HandleFunc("PATCH "+root, api.authenticated(api.handleUserUpdate))
	mux.HandleFunc("DELETE "+root, api.authenticated(api.handleUserDelete))
	mux.HandleFunc("GET "+root+"/consents", api.authenticated(api.handleConsentList))
	mux.HandleFunc("POST "+root+"/consents", api.authenticated(api.handleConsentRecord))
}

func (api *API) handleUserGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	record, err := api.users.Get(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *API) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var payload userUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	req := users.UpdateUserRequest{
		ID:          actor.ID,
		DisplayName: payload.DisplayName,
		Timezone:    payload.Timezone,
		Onboarded:   payload.Onboarded,
	}
	if payload.Province != nil {
		province := domain.Province(strings.ToUpper(strings.TrimSpace(*payload.Province)))
		req.Province = &province
	}
	updated, err := api.users.Update(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *API) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var payload userDeletePayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	req := users.DeleteUserRequest{
		ID:        actor.ID,
		DeletedBy: actor.ID,
		Reason:    payload.Reason,
	}
	if err := api.users.Delete(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleConsentList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	status, err := api.users.ConsentStatus(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (api *API) handleConsentRecord(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if err := internalusers.ValidateConsentPayload(payload); err != nil {
		writeError(w, err)
		return
	}
	req := users.RecordConsentRequest{
		UserID:   actor.ID,
		Type:     users.ConsentType(stringField(payload, "type")),
		Version:  stringField(payload, "version"),
		Granted:  boolField(payload, "granted"),
		Method:   stringField(payload, "method"),
		Metadata: mapField(payload, "metadata"),
	}
	if req.Method == "" {
		req.Method = users.ConsentMethodAPI
	}
	record, err := api.users.RecordConsent(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
