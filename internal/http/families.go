package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-nestsync/domain"
	"github.com/goliatone/go-nestsync/families"
	"github.com/goliatone/go-nestsync/internal/permissions"
)

type familyCreatePayload struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type familyUpdatePayload struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}

type memberRolePayload struct {
	Role string `json:"role"`
}

type invitationCreatePayload struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func (api *API) registerFamilyRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "families")
	mux.HandleFunc("GET "+root, api.authenticated(api.handleFamilyList))
	mux.HandleFunc("POST "+root, api.authenticated(api.handleFamilyCreate))
	mux.HandleFunc("GET "+root+"/{id}", api.authenticated(api.handleFamilyGet))
	mux.HandleFunc("PATCH "+root+"/{id}", api.authenticated(api.handleFamilyUpdate))
	mux.HandleFunc("DELETE "+root+"/{id}", api.authenticated(api.handleFamilyDelete))
	mux.HandleFunc("GET "+root+"/{id}/members", api.authenticated(api.handleMemberList))
	mux.HandleFunc("PATCH "+root+"/{id}/members/{userID}", api.authenticated(api.handleMemberRoleUpdate))
	mux.HandleFunc("DELETE "+root+"/{id}/members/{userID}", api.authenticated(api.handleMemberRemove))
	mux.HandleFunc("GET "+root+"/{id}/invitations", api.authenticated(api.handleInvitationList))
	mux.HandleFunc("POST "+root+"/{id}/invitations", api.authenticated(api.handleInvitationCreate))
	mux.HandleFunc("DELETE "+root+"/{id}/invitations/{invID}", api.authenticated(api.handleInvitationRevoke))
	mux.HandleFunc("POST "+joinPath(base, "invitations")+"/{code}/accept", api.authenticated(api.handleInvitationAccept))
}

func (api *API) handleFamilyList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	list, err := api.families.List(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleFamilyCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var payload familyCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	created, err := api.families.Create(r.Context(), families.CreateFamilyRequest{
		Name:      payload.Name,
		Slug:      payload.Slug,
		CreatedBy: actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (api *API) handleFamilyGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, id, permissions.FamiliesRead) {
		return
	}
	record, err := api.families.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *API) handleFamilyUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
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
	var payload familyUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	updated, err := api.families.Update(r.Context(), families.UpdateFamilyRequest{
		ID:        id,
		Name:      payload.Name,
		Slug:      payload.Slug,
		UpdatedBy: actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *API) handleFamilyDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
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
	if err := api.families.Delete(r.Context(), families.DeleteFamilyRequest{ID: id, DeletedBy: actor.ID}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleMemberList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, id, permissions.MembersRead) {
		return
	}
	members, err := api.families.Members(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (api *API) handleMemberRoleUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
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
	userID, err := parseUUID(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid user id"})
		return
	}
	var payload memberRolePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	member, err := api.families.UpdateMemberRole(r.Context(), families.UpdateMemberRoleRequest{
		FamilyID:  familyID,
		UserID:    userID,
		Role:      domain.Role(strings.ToLower(strings.TrimSpace(payload.Role))),
		UpdatedBy: actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (api *API) handleMemberRemove(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
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
	userID, err := parseUUID(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid user id"})
		return
	}
	req := families.RemoveMemberRequest{
		FamilyID:  familyID,
		UserID:    userID,
		RemovedBy: actor.ID,
	}
	if err := api.families.RemoveMember(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleInvitationList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, id, permissions.InvitationsRead) {
		return
	}
	invitations, err := api.families.ListInvitations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

func (api *API) handleInvitationCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
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
	var payload invitationCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	invitation, err := api.families.Invite(r.Context(), families.InviteMemberRequest{
		FamilyID:  familyID,
		Email:     payload.Email,
		Role:      domain.Role(strings.ToLower(strings.TrimSpace(payload.Role))),
		InvitedBy: actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invitation)
}

func (api *API) handleInvitationRevoke(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	invitationID, err := parseUUID(r.PathValue("invID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid invitation id"})
		return
	}
	req := families.RevokeInvitationRequest{
		InvitationID: invitationID,
		RevokedBy:    actor.ID,
	}
	if err := api.families.RevokeInvitation(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleInvitationAccept(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.families == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invitation code required"})
		return
	}
	member, err := api.families.AcceptInvitation(r.Context(), families.AcceptInvitationRequest{
		Code:   code,
		UserID: actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}
