package http

import (
	"net/http"

	"github.com/goliatone/go-nestsync/domain"
	internalnotifications "github.com/goliatone/go-nestsync/internal/notifications"
	"github.com/goliatone/go-nestsync/internal/permissions"
	"github.com/goliatone/go-nestsync/notifications"
	"github.com/google/uuid"
)

func (api *API) registerNotificationRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	familyRoot := joinPath(base, "families")
	root := joinPath(base, "notifications")
	mux.HandleFunc("GET "+familyRoot+"/{id}/notification-preferences", api.authenticated(api.handlePreferencesGet))
	mux.HandleFunc("PUT "+familyRoot+"/{id}/notification-preferences", api.authenticated(api.handlePreferencesUpdate))
	mux.HandleFunc("GET "+root, api.authenticated(api.handleNotificationList))
	mux.HandleFunc("POST "+root+"/{id}/read", api.authenticated(api.handleNotificationRead))
}

func (api *API) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.notifications == nil {
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
	if !requireFamilyPermission(w, r, familyID, permissions.NotificationsRead) {
		return
	}
	prefs, err := api.notifications.Preferences(r.Context(), actor.ID, familyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (api *API) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.notifications == nil {
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
	if !requireFamilyPermission(w, r, familyID, permissions.NotificationsUpdate) {
		return
	}
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if err := internalnotifications.ValidatePreferencePayload(payload); err != nil {
		writeError(w, err)
		return
	}
	req := notifications.UpdatePreferencesRequest{
		UserID:   actor.ID,
		FamilyID: familyID,
	}
	if raw, ok := payload["channels"].([]any); ok {
		channels := make([]domain.Channel, 0, len(raw))
		for _, entry := range raw {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			channels = append(channels, domain.Channel(name))
		}
		req.Channels = channels
	}
	req.QuietHoursStart = clockField(payload, "quiet_hours_start")
	req.QuietHoursEnd = clockField(payload, "quiet_hours_end")
	if threshold, ok := intField(payload, "low_stock_threshold_days"); ok {
		req.LowStockThresholdDays = &threshold
	}
	if _, ok := payload["size_change_alerts"]; ok {
		alerts := boolField(payload, "size_change_alerts")
		req.SizeChangeAlerts = &alerts
	}
	if _, ok := payload["marketing_opt_in"]; ok {
		optIn := boolField(payload, "marketing_opt_in")
		req.MarketingOptIn = &optIn
	}
	if digest := stringField(payload, "digest"); digest != "" {
		req.Digest = &digest
	}
	updated, err := api.notifications.UpdatePreferences(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *API) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.notifications == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	actor := actorFrom(r)
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	query := r.URL.Query()
	req := notifications.ListNotificationsRequest{
		UserID:     actor.ID,
		Status:     query.Get("status"),
		UnreadOnly: parseBoolQuery(query.Get("unread"), false),
		Limit:      parseIntQuery(query.Get("limit"), 0),
	}
	if raw := query.Get("family_id"); raw != "" {
		familyID, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid family_id"})
			return
		}
		req.FamilyID = &familyID
	}
	list, err := api.notifications.List(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.notifications == nil {
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
	record, err := api.notifications.MarkRead(r.Context(), notifications.MarkReadRequest{
		NotificationID: id,
		UserID:         actor.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// clockField maps a quiet hours entry onto the update contract: absent keeps
// the stored value, null or empty clears it.
func clockField(payload map[string]any, key string) *string {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	value, _ := raw.(string)
	return &value
}
