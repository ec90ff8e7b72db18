package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// registerOfficeRoutes mounts the Office manager's command surface (spec.md
// §6: start, approvePlan, rejectPlan, injectInstruction,
// respondToClarification, pause, resume, stop, reset) under /office/*.
func (s *apiServer) registerOfficeRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/office/start", s.handleOfficeStart)
	mux.HandleFunc("/office/pause", s.handleOfficeSimple(func() error { return s.rt.Office.Pause() }))
	mux.HandleFunc("/office/resume", s.handleOfficeSimple(func() error { return s.rt.Office.Resume() }))
	mux.HandleFunc("/office/stop", s.handleOfficeStop)
	mux.HandleFunc("/office/reset", s.handleOfficeReset)
	mux.HandleFunc("/office/approve-plan", s.handleOfficeSimple(func() error { return s.rt.Office.ApprovePlan() }))
	mux.HandleFunc("/office/reject-plan", s.handleOfficeRejectPlan)
	mux.HandleFunc("/office/inject", s.handleOfficeInject)
	mux.HandleFunc("/office/respond-clarification", s.handleOfficeRespondClarification)
	mux.HandleFunc("/office/status", s.handleOfficeStatus)
}

func (s *apiServer) handleOfficeStart(w http.ResponseWriter, r *http.Request) {
	var config orchtypes.OfficeConfig
	if err := decodeJSON(r, &config); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Office.Start(config); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	rec := sessionRecord{
		SessionID: "office-run-" + uuid.NewString(),
		Kind:      "office",
		Objective: config.Objective,
		StartedAt: time.Now().UTC(),
	}
	if err := saveSessionRecord(r.Context(), s.rt.Store, rec); err != nil {
		s.logger.Warn("failed to persist office session record", "error", err)
	}

	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeStop(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Office.Stop(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeReset(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Office.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeRejectPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Office.RejectPlan(body.Feedback); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeInject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.rt.Office.InjectInstruction(body.Text)
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeRespondClarification(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Office.RespondToClarification(body.Answer); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.officeStatus())
}

func (s *apiServer) handleOfficeSimple(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusOK, s.officeStatus())
	}
}

type officeStatusResponse struct {
	Phase   orchtypes.ManagerPhase      `json:"phase"`
	Reports []orchtypes.IterationReport `json:"reports"`
}

func (s *apiServer) officeStatus() officeStatusResponse {
	return officeStatusResponse{
		Phase:   s.rt.Office.Phase(),
		Reports: s.rt.Office.Reports(),
	}
}
