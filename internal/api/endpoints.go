package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/chainscope/analytics-gateway/internal/ai"
	"github.com/chainscope/analytics-gateway/internal/alerts"
	"github.com/chainscope/analytics-gateway/internal/audit"
	"github.com/chainscope/analytics-gateway/internal/auth"
	"github.com/chainscope/analytics-gateway/internal/flows"
	"github.com/chainscope/analytics-gateway/internal/translate"
)

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ask translates a natural-language question into SQL against the transfer
// table. Unrecognized input is a normal response, never an error; every
// attempt lands in the audit log.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := auth.TenantFromContext(r.Context())
	role, _ := auth.RoleFromContext(r.Context())

	var req struct {
		Query   string `json:"query"`
		Execute bool   `json:"execute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query exceeds 2000 characters")
		return
	}

	if _, ok := h.requireRole(w, r, "admin", "analyst"); !ok {
		h.auditLog.Append(audit.Entry{
			TenantID: tenantID,
			Role:     role,
			Query:    req.Query,
		})
		return
	}

	sql, translated := h.translator.Translate(req.Query)

	h.auditLog.Append(audit.Entry{
		TenantID:   tenantID,
		Role:       role,
		Query:      req.Query,
		SQL:        sql,
		Translated: translated,
	})

	if !translated {
		h.untranslatable.Add(1)
		log.Printf("🤷 Could not translate query for tenant %s", tenantID)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Could not translate query",
			"query":   req.Query,
		})
		return
	}

	h.translated.Add(1)
	if tenantID != "" {
		sql = translate.AppendTenantFilter(sql, tenantID)
	}

	resp := map[string]interface{}{"sql": sql}

	if req.Execute {
		if h.store == nil {
			writeError(w, http.StatusBadRequest, "event store not configured")
			return
		}
		result, err := h.store.QueryScalar(r.Context(), sql)
		if err != nil {
			log.Printf("❌ Event store query failed: %v", err)
			writeError(w, http.StatusBadGateway, "event store query failed")
			return
		}
		resp["result"] = result
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRole(w, r, "admin", "analyst"); !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.alertFeed.Snapshot())
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRole(w, r, "admin"); !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":            time.Since(h.startTime).Round(time.Second).String(),
		"requests_total":    h.requestsTotal.Load(),
		"rate_limited":      h.rateLimited.Load(),
		"translated":        h.translated.Load(),
		"untranslatable":    h.untranslatable.Load(),
		"cache_hits":        h.translator.Hits(),
		"cache_entries":     h.translator.Len(),
		"audit_entries":     h.auditLog.Len(),
		"alerts_raised":     h.alertsRaised.Load(),
		"rate_limiter_keys": h.limiter.Keys(),
	})
}

// Flows returns a synthetic transfer graph for an address. The address is
// validated before the role so a missing parameter is always a 400.
func (h *Handler) Flows(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	if _, ok := h.requireRole(w, r, "admin", "analyst"); !ok {
		return
	}

	writeJSON(w, http.StatusOK, flows.Build(address))
}

// Anomaly forwards a numeric series to the AI service. When the service
// flags an anomaly, a severity is attached and notifications go out
// fire-and-forget; the response never waits for them.
func (h *Handler) Anomaly(w http.ResponseWriter, r *http.Request) {
	role, ok := h.requireRole(w, r, "admin", "analyst")
	if !ok {
		return
	}

	var req struct {
		Values    []float64 `json:"values"`
		Threshold *float64  `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Values) == 0 {
		writeError(w, http.StatusBadRequest, "values are required")
		return
	}

	threshold := 2.0
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := h.aiClient.Anomaly(r.Context(), req.Values, threshold)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	resp := map[string]interface{}{
		"score":      result.Score,
		"is_anomaly": result.IsAnomaly,
		"message":    result.Message,
	}

	if result.IsAnomaly {
		severity := "warning"
		if math.Abs(result.Score) >= 2*threshold {
			severity = "critical"
		}
		resp["severity"] = severity

		tenantID, _ := auth.TenantFromContext(r.Context())
		alert := h.alertFeed.Append(alerts.Alert{
			TenantID: tenantID,
			Severity: severity,
			Message:  result.Message,
			Score:    result.Score,
		})
		h.alertsRaised.Add(1)

		// Fire and forget: detached from the request context so cancelling
		// the request doesn't cancel the dispatch.
		channels := h.notifier.ChannelsFor(role)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			msg := "Anomaly detected (severity " + severity + "): " + alert.Message
			if err := h.notifier.Send(ctx, tenantID, msg, channels); err != nil {
				log.Printf("⚠️  Alert notification incomplete for tenant %s: %v", tenantID, err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Label forwards an address to the AI service and passes its response
// through verbatim.
func (h *Handler) Label(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRole(w, r, "admin", "analyst"); !ok {
		return
	}

	var req struct {
		Address string `json:"address"`
		Chain   string `json:"chain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	raw, err := h.aiClient.Label(r.Context(), req.Address, req.Chain)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Notify dispatches a message synchronously; the response waits for every
// channel attempt.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	role, ok := h.requireRole(w, r, "admin", "analyst")
	if !ok {
		return
	}

	var req struct {
		Message  string   `json:"message"`
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = h.notifier.ChannelsFor(role)
	}

	tenantID, _ := auth.TenantFromContext(r.Context())
	if err := h.notifier.Send(r.Context(), tenantID, req.Message, channels); err != nil {
		writeError(w, http.StatusInternalServerError, "notification dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification sent"})
}

func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRole(w, r, "admin", "analyst"); !ok {
		return
	}

	var req struct {
		Values  []float64 `json:"values"`
		Horizon int       `json:"horizon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Values) == 0 {
		writeError(w, http.StatusBadRequest, "values are required")
		return
	}
	if req.Horizon <= 0 {
		req.Horizon = 1
	}

	raw, err := h.aiClient.Forecast(r.Context(), req.Values, req.Horizon)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireRole(w, r, "admin", "analyst", "compliance"); !ok {
		return
	}

	var req struct {
		Addresses []string `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, http.StatusBadRequest, "addresses are required")
		return
	}

	raw, err := h.aiClient.RiskScores(r.Context(), req.Addresses)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// writeUpstreamError surfaces an AI service failure as a 502 with the
// upstream status and body kept for diagnostics. Never retried here.
func writeUpstreamError(w http.ResponseWriter, err error) {
	log.Printf("❌ AI service call failed: %v", err)

	var upstream *ai.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           "ai service error",
			"upstream_status": upstream.StatusCode,
			"upstream_body":   upstream.Body,
		})
		return
	}

	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ai service unreachable"})
}
