package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"hrdash/internal/dashboard"
	"hrdash/internal/log"
	"hrdash/internal/metrics"
	"hrdash/internal/session"
)

// sessionFrom returns the requested session id and its state. Missing or
// malformed ids get a fresh id with no data.
func (s *Server) sessionFrom(r *http.Request) (string, session.State) {
	return s.lookupSession(r.FormValue("session"))
}

func (s *Server) lookupSession(id string) (string, session.State) {
	if !session.ValidID(id) {
		return s.store.NewID(), session.State{}
	}
	st, _ := s.store.Get(id)
	return id, st
}

func (s *Server) view(r *http.Request, id string, st session.State, f dashboard.Filter) (dashboardView, dashboard.Result) {
	v, res := buildView(id, st, f, s.derive)
	metrics.DashboardRenders.WithLabelValues(string(res.State)).Inc()
	s.events.LogDashboard(r.Context(), id, f.POC, f.Month, string(res.State), res.Matched)
	return v, res
}

// handleIndex renders the full page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed("GET, HEAD").send(w)
		return
	}

	id, st := s.sessionFrom(r)
	v, _ := s.view(r, id, st, parseFilter(r))

	s.renderPage(w, r, http.StatusOK, v)
}

// handleDashboardPartial renders the dashboard section for filter changes.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed("GET").send(w)
		return
	}

	id, st := s.sessionFrom(r)
	f := parseFilter(r)
	v, _ := s.view(r, id, st, f)

	body, err := s.renderPartial(v)
	if err != nil {
		s.logTemplateError(r, "dashboard", err)
		errorReply(http.StatusInternalServerError, "Could not render the dashboard.").send(w)
		return
	}
	reply(http.StatusOK).
		pushURL(pageURL(id, f)).
		html(body).
		send(w)
}

// handleDashboardAPI returns the derived dashboard as JSON.
func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed("GET").send(w)
		return
	}

	id, st := s.sessionFrom(r)
	v, res := s.view(r, id, st, parseFilter(r))

	resp := apiResponse{
		SessionID:    id,
		FileName:     st.FileName,
		Choices:      v.Choices,
		Result:       res,
		CountCards:   res.Metrics.CountCards(),
		PercentCards: res.Metrics.PercentCards(),
	}
	if !st.UploadedAt.IsZero() {
		at := st.UploadedAt
		resp.UploadedAt = &at
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard JSON encoding failed", log.FieldError, err)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and how busy the server is
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil || s.templates.Lookup("dashboard") == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if counter, ok := s.store.(interface{ Len() int }); ok {
		checks["sessions"] = map[string]interface{}{"active": counter.Len(), "status": "ok"}
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, v dashboardView) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", pageData{SessionID: v.SessionID, Dashboard: v}); err != nil {
		s.logTemplateError(r, "index.html", err)
		errorReply(http.StatusInternalServerError, "Could not render the page.").send(w)
		return
	}
	reply(status).html(buf.String()).send(w)
}

func (s *Server) renderPartial(v dashboardView) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) logTemplateError(r *http.Request, name string, err error) {
	fields := log.NewFields().WithErrorType(log.ErrorTypeInternal)
	fields[log.FieldTemplate] = name
	s.events.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender, fields)
}
