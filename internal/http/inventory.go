package http

import (
	"net/http"

	"github.com/goliatone/go-nestsync/domain"
	internalinventory "github.com/goliatone/go-nestsync/internal/inventory"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/goliatone/go-nestsync/inventory"
	"github.com/google/uuid"
)

type itemUpdatePayload struct {
	Brand             *string `json:"brand,omitempty"`
	QuantityRemaining *int    `json:"quantity_remaining,omitempty"`
	CostCents         *int    `json:"cost_cents,omitempty"`
}

func (api *API) registerInventoryRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	childRoot := joinPath(base, "children")
	mux.HandleFunc("GET "+childRoot+"/{id}/inventory", api.authenticated(api.handleItemList))
	mux.HandleFunc("POST "+childRoot+"/{id}/inventory", api.authenticated(api.handleItemAdd))
	mux.HandleFunc("PATCH "+joinPath(base, "inventory")+"/{id}", api.authenticated(api.handleItemUpdate))
	mux.HandleFunc("DELETE "+joinPath(base, "inventory")+"/{id}", api.authenticated(api.handleItemDelete))
	mux.HandleFunc("GET "+childRoot+"/{id}/usage", api.authenticated(api.handleUsageList))
	mux.HandleFunc("POST "+childRoot+"/{id}/usage", api.authenticated(api.handleUsageLog))
	mux.HandleFunc("DELETE "+joinPath(base, "usage")+"/{id}", api.authenticated(api.handleUsageDelete))
	mux.HandleFunc("GET "+childRoot+"/{id}/projection", api.authenticated(api.handleProjection))
}

func (api *API) handleItemList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	childID, ok := api.childScope(w, r, permissions.InventoryRead)
	if !ok {
		return
	}
	items, err := api.inventory.ListItems(r.Context(), childID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (api *API) handleItemAdd(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	childID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if err := internalinventory.ValidateItemPayload(payload); err != nil {
		writeError(w, err)
		return
	}
	req := inventory.AddItemRequest{
		ChildID: childID,
		Brand:   stringField(payload, "brand"),
		Size:    domain.DiaperSize(stringField(payload, "size")),
		AddedBy: actor.ID,
	}
	if quantity, ok := intField(payload, "quantity_purchased"); ok {
		req.QuantityPurchased = quantity
	}
	if cost, ok := intField(payload, "cost_cents"); ok {
		req.CostCents = &cost
	}
	if purchasedAt, ok := timeField(payload, "purchased_at"); ok {
		req.PurchasedAt = purchasedAt
	}
	item, err := api.inventory.AddItem(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (api *API) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
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
	var payload itemUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	item, err := api.inventory.UpdateItem(r.Context(), inventory.UpdateItemRequest{
		ID:                id,
		Brand:             payload.Brand,
		QuantityRemaining: payload.QuantityRemaining,
		CostCents:         payload.CostCents,
		UpdatedBy:         actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (api *API) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
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
	if err := api.inventory.DeleteItem(r.Context(), inventory.DeleteItemRequest{ID: id, DeletedBy: actor.ID}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleUsageList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	childID, ok := api.childScope(w, r, permissions.UsageRead)
	if !ok {
		return
	}
	since, err := parseTimeQuery(r.URL.Query().Get("since"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid since"})
		return
	}
	logs, err := api.inventory.ListUsage(r.Context(), childID, since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (api *API) handleUsageLog(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	childID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if err := internalinventory.ValidateUsagePayload(payload); err != nil {
		writeError(w, err)
		return
	}
	req := inventory.LogUsageRequest{
		ChildID:  childID,
		Kind:     inventory.UsageKind(stringField(payload, "kind")),
		LoggedBy: actor.ID,
	}
	if raw := stringField(payload, "item_id"); raw != "" {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid item_id"})
			return
		}
		req.ItemID = &itemID
	}
	if notes := stringField(payload, "notes"); notes != "" {
		req.Notes = &notes
	}
	if occurredAt, ok := timeField(payload, "occurred_at"); ok {
		req.OccurredAt = occurredAt
	}
	usage, err := api.inventory.LogUsage(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, usage)
}

func (api *API) handleUsageDelete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
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
	if err := api.inventory.DeleteUsage(r.Context(), inventory.DeleteUsageRequest{ID: id, DeletedBy: actor.ID}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (api *API) handleProjection(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.inventory == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	childID, ok := api.childScope(w, r, permissions.InventoryRead)
	if !ok {
		return
	}
	projections, err := api.inventory.Projection(r.Context(), childID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections)
}

// childScope parses the child id from the path, resolves the owning family,
// and checks the read permission against it.
func (api *API) childScope(w http.ResponseWriter, r *http.Request, permission string) (uuid.UUID, bool) {
	childID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return uuid.Nil, false
	}
	familyID, err := api.childFamilyID(r, childID)
	if err != nil {
		writeError(w, err)
		return uuid.Nil, false
	}
	if !requireFamilyPermission(w, r, familyID, permission) {
		return uuid.Nil, false
	}
	return childID, true
}
