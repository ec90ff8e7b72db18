package main

import (
	"net/http"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// registerPanelRoutes mounts the Panel manager's command surface (§6's Panel
// counterparts: start, sendUserMessage, approveAndStartPanel, rejectPlan,
// pause, resume, stop) under /panel/*.
func (s *apiServer) registerPanelRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/panel/start", s.handlePanelStart)
	mux.HandleFunc("/panel/ask", s.handlePanelAsk)
	mux.HandleFunc("/panel/approve-and-start", s.handlePanelSimple(func() error { return s.rt.Panel.ApproveAndStartPanel() }))
	mux.HandleFunc("/panel/reject-plan", s.handlePanelRejectPlan)
	mux.HandleFunc("/panel/pause", s.handlePanelSimple(func() error { return s.rt.Panel.Pause() }))
	mux.HandleFunc("/panel/resume", s.handlePanelSimple(func() error { return s.rt.Panel.Resume() }))
	mux.HandleFunc("/panel/stop", s.handlePanelStop)
	mux.HandleFunc("/panel/reset", s.handlePanelReset)
	mux.HandleFunc("/panel/status", s.handlePanelStatus)
}

func (s *apiServer) handlePanelStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string                 `json:"prompt"`
		Config orchtypes.PanelSettings `json:"config"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Panel.Start(body.Prompt, body.Config); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Panel.SendUserMessage(body.Text); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelRejectPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rt.Panel.RejectPlan(body.Feedback); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelStop(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Panel.Stop(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelReset(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.Panel.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.panelStatus())
}

func (s *apiServer) handlePanelSimple(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusOK, s.panelStatus())
	}
}

type panelStatusResponse struct {
	Phase    orchtypes.PanelPhase     `json:"phase"`
	Messages []orchtypes.PanelMessage `json:"messages"`
}

func (s *apiServer) panelStatus() panelStatusResponse {
	return panelStatusResponse{
		Phase:    s.rt.Panel.Phase(),
		Messages: s.rt.Panel.Messages(),
	}
}
