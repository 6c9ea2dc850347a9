package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-nestsync/billing"
	"github.com/goliatone/go-nestsync/internal/permissions"
)

type subscriptionStartPayload struct {
	PlanCode           string  `json:"plan_code"`
	ProviderCustomerID *string `json:"provider_customer_id,omitempty"`
}

type subscriptionCancelPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (api *API) registerBillingRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	familyRoot := joinPath(base, "families")
	mux.HandleFunc("GET "+joinPath(base, "billing/plans"), api.authenticated(api.handlePlanList))
	mux.HandleFunc("GET "+familyRoot+"/{id}/subscription", api.authenticated(api.handleSubscriptionGet))
	mux.HandleFunc("POST "+familyRoot+"/{id}/subscription", api.authenticated(api.handleSubscriptionStart))
	mux.HandleFunc("DELETE "+familyRoot+"/{id}/subscription", api.authenticated(api.handleSubscriptionCancel))
	mux.HandleFunc("GET "+familyRoot+"/{id}/billing-records", api.authenticated(api.handleBillingRecordList))
}

func (api *API) handlePlanList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	plans, err := api.billing.Plans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (api *API) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	familyID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, familyID, permissions.BillingRead) {
		return
	}
	subscription, err := api.billing.GetSubscription(r.Context(), familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscription)
}

func (api *API) handleSubscriptionStart(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
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
	var payload subscriptionStartPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	subscription, err := api.billing.StartSubscription(r.Context(), billing.StartSubscriptionRequest{
		FamilyID:           familyID,
		PlanCode:           payload.PlanCode,
		ProviderCustomerID: payload.ProviderCustomerID,
		StartedBy:          actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subscription)
}

func (api *API) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
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
	var payload subscriptionCancelPayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	subscription, err := api.billing.CancelSubscription(r.Context(), billing.CancelSubscriptionRequest{
		FamilyID:   familyID,
		CanceledBy: actor.ID,
		Reason:     payload.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscription)
}

func (api *API) handleBillingRecordList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.billing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	familyID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	if !requireFamilyPermission(w, r, familyID, permissions.BillingRead) {
		return
	}
	records, err := api.billing.ListBillingRecords(r.Context(), familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
