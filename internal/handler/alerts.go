package handler

import (
	"net/http"

	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/model"
	"ambulancewatch/internal/repository"
	"ambulancewatch/internal/service/websocket"

	ws "github.com/gorilla/websocket"
	"github.com/spf13/cast"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = ws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AlertsWebsocketHandler registers viewers in the hub so they receive every fired alert.
func AlertsWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		err = hub.Serve(connection)
		if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
			logger.Debug("Alert viewer disconnected normally")
		} else {
			logger.Debug("Alert viewer disconnected: %v", err)
		}
	}
}

// RecentAlertsHandler returns the newest alert events, ?limit=N (default 50).
func RecentAlertsHandler(alerts repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), defaultAlertLimit)
		if limit > maxAlertLimit {
			limit = maxAlertLimit
		}

		events, err := alerts.GetRecent(limit)
		if err != nil {
			logger.Error("Error querying alert events: %v", err)
			writeError(w, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		total, err := alerts.GetTotalCount()
		if err != nil {
			logger.Error("Error counting alert events: %v", err)
			total = len(events)
		}

		infos := make([]dto.AlertInfo, 0, len(events))
		for _, e := range events {
			infos = append(infos, toAlertInfo(e))
		}
		writeJSON(w, http.StatusOK, dto.AlertsData{Alerts: infos, Total: total, Limit: limit})
	}
}

func toAlertInfo(e model.AlertEvent) dto.AlertInfo {
	return dto.AlertInfo{
		ID:          e.ID,
		Source:      e.Source,
		Label:       e.Label,
		Confidence:  e.Confidence,
		Box:         [4]int{e.X1, e.Y1, e.X2, e.Y2},
		OutputImage: e.OutputImage,
		Date:        e.CreatedAt,
		TimeOfDay:   e.CreatedAt,
	}
}

// atoiDefault parses a positive int or returns def.
func atoiDefault(s string, def int) int {
	if v, err := cast.ToIntE(s); err == nil && v > 0 {
		return v
	}
	return def
}
