package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"paydash/internal/aggregator"
	"paydash/internal/log"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once templates are loaded and the first pipeline
// run has completed, successfully or not.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	snap := s.dash.Snapshot()
	if s.dash.Ready() {
		data := map[string]any{
			"status":  "ok",
			"source":  s.dash.Source(),
			"records": len(snap.Records),
			"version": snap.Version,
		}
		if snap.Error != "" {
			data["last_error"] = snap.Error
		}
		checks["data"] = data
	} else {
		checks["data"] = "waiting for first refresh"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	checks["websocket_clients"] = s.hub.Clients()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	NewHTMXResponse().
		Status(httpStatus).
		JSON(map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleIndex renders the full dashboard page around the cached main section.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap := s.dash.Snapshot()
	section, err := s.renderPartial(snap)
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard render failed", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	data := struct {
		Source string
		Main   template.HTML
	}{
		Source: s.dash.Source(),
		// Rendered by our own templates, already escaped.
		Main: template.HTML(section),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, pageTemplate, data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err, "template", pageTemplate)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}

// handleDashboardPartial renders the main section for htmx swaps.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()
	body, err := s.renderPartial(snap)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard partial render failed",
			log.FieldError, err, log.FieldOperation, log.OpRender)
		ErrorResponse(http.StatusInternalServerError, "Failed to render dashboard").Write(w)
		return
	}
	NewHTMXResponse().
		Header("X-Dashboard-Version", strconv.FormatUint(snap.Version, 10)).
		HTML(body).
		Write(w)
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Header("Cache-Control", "no-store").
		JSON(s.dash.Snapshot()).
		Write(w)
}

// handleRefresh runs (or joins) a pipeline run and answers with its result.
// A failed fetch is still a rendered dashboard for htmx callers; API callers
// get the snapshot with 502.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	snap, err := s.dash.Refresh(ctx)
	switch {
	case errors.Is(err, aggregator.ErrStopped):
		s.writeError(w, r, http.StatusServiceUnavailable, "Dashboard is shutting down")
		return
	case ctx.Err() != nil:
		// Client went away; the run carries on for everyone else.
		logger.DebugContext(ctx, "Refresh abandoned by client", log.FieldError, ctx.Err())
		return
	}

	if isHTMX(r) {
		body, rerr := s.renderPartial(snap)
		if rerr != nil {
			logger.ErrorContext(ctx, "Dashboard partial render failed", log.FieldError, rerr, log.FieldOperation, log.OpRender)
			ErrorResponse(http.StatusInternalServerError, "Failed to render dashboard").Write(w)
			return
		}
		resp := NewHTMXResponse().HTML(body).TriggerRefreshed(snap.Version)
		if snap.Error != "" {
			resp.TriggerNotification(NotificationError, "Refresh Failed", snap.Error, 5000)
		} else {
			resp.TriggerNotification(NotificationSuccess, "Dashboard Updated", "Data has been refreshed from "+s.dash.Source(), 3000)
		}
		resp.Write(w)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	NewHTMXResponse().
		Status(status).
		Header("Cache-Control", "no-store").
		JSON(snap).
		Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.ipResolver.ClientIP(r),
		log.FieldPath, r.URL.Path)
	s.writeError(w, r, http.StatusTooManyRequests, "Too many refresh requests. Please try again shortly.")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		ErrorResponse(status, msg).TriggerNotification(NotificationError, "Refresh Failed", msg, 5000).Write(w)
		return
	}
	JSONError(status, msg).Write(w)
}
