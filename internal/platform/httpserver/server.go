package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	governanceengine "plenum/contexts/assembly-governance/governance-engine"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	governanceerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	governancehttp "plenum/contexts/assembly-governance/governance-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "plenum/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance governanceengine.Module
}

func New(
	governance governanceengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/motions/{motion_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("POST /api/v1/motions/{motion_id}/official-result", s.handleComputeOfficialResult)
	s.mux.HandleFunc("GET /api/v1/motions/{motion_id}/official-result/preview", s.handlePreviewOfficialResult)

	s.mux.HandleFunc("POST /api/v1/meetings/{meeting_id}/attendance", s.handleUpsertAttendance)
	s.mux.HandleFunc("GET /api/v1/meetings/{meeting_id}/attendance", s.handleListAttendance)
	s.mux.HandleFunc("GET /api/v1/meetings/{meeting_id}/attendance/summary", s.handleAttendanceSummary)
	s.mux.HandleFunc("GET /api/v1/meetings/{meeting_id}/transition-readiness", s.handleTransitionReadiness)
	s.mux.HandleFunc("GET /api/v1/meetings/{meeting_id}/transition-check", s.handleTransitionCheck)
	s.mux.HandleFunc("POST /api/v1/meetings/{meeting_id}/transition", s.handleApplyTransition)
	s.mux.HandleFunc("POST /api/v1/meetings/{meeting_id}/consolidate", s.handleConsolidateMeeting)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	var req governancehttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.MemberID) == "" {
		req.MemberID = strings.TrimSpace(r.Header.Get("X-Member-Id"))
	}

	resp, err := s.governance.Handler.CastBallotHandler(r.Context(), tenant, r.PathValue("motion_id"), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComputeOfficialResult(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ComputeOfficialResultHandler(r.Context(), tenant, r.PathValue("motion_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreviewOfficialResult(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.PreviewOfficialResultHandler(r.Context(), tenant, r.PathValue("motion_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertAttendance(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	var req governancehttp.UpsertAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.UpsertAttendanceHandler(r.Context(), tenant, r.PathValue("meeting_id"), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	if _, ok := resolveTenant(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ListAttendanceHandler(r.Context(), r.PathValue("meeting_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	if _, ok := resolveTenant(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.AttendanceSummaryHandler(r.Context(), r.PathValue("meeting_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionReadiness(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.TransitionReadinessHandler(r.Context(), tenant, r.PathValue("meeting_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionCheck(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.TransitionCheckHandler(
		r.Context(),
		tenant,
		r.PathValue("meeting_id"),
		r.URL.Query().Get("target"),
	)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApplyTransition(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}

	var req governancehttp.ApplyTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.ApplyTransitionHandler(r.Context(), tenant, r.PathValue("meeting_id"), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsolidateMeeting(w http.ResponseWriter, r *http.Request) {
	tenant, ok := resolveTenant(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ConsolidateMeetingHandler(r.Context(), tenant, r.PathValue("meeting_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func resolveTenant(w http.ResponseWriter, r *http.Request) (entities.TenantContext, bool) {
	tenantID := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
	if tenantID == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_tenant", "X-Tenant-Id header is required")
		return entities.TenantContext{}, false
	}
	return entities.TenantContext{
		TenantID: tenantID,
		ActorID:  strings.TrimSpace(r.Header.Get("X-Member-Id")),
	}, true
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch governanceerrors.KindOf(err) {
	case governanceerrors.KindInvalidArgument:
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case governanceerrors.KindNotFound:
		writeGovernanceError(w, http.StatusNotFound, "not_found", err.Error())
	case governanceerrors.KindConflict:
		writeGovernanceError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
