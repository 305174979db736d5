// Package server exposes the interview runner over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/casemill/interview-controller/internal/controller"
	"github.com/casemill/interview-controller/internal/interview"
	"github.com/casemill/interview-controller/internal/runner"
)

// #region server

type Server struct {
	runner *runner.Runner
	log    *zap.Logger
}

func New(r *runner.Runner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: r, log: log}
}

// Handler builds the route table. Creating an interview also starts it,
// so the create response carries the opening message.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cases", s.handleCases)
	mux.HandleFunc("POST /api/interviews", s.handleCreate)
	mux.HandleFunc("POST /api/interviews/{id}/respond", s.handleRespond)
	mux.HandleFunc("GET /api/interviews/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/interviews/{id}/ledger", s.handleLedger)
	return mux
}

// #endregion server

// #region wire-types

type createRequest struct {
	CaseID      string `json:"case_id"`
	CandidateID string `json:"candidate_id"`
}

type createResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type respondRequest struct {
	Input string `json:"input"`
}

type respondResponse struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
}

type statusResponse struct {
	SessionID    string   `json:"session_id"`
	CaseID       string   `json:"case_id"`
	CandidateID  string   `json:"candidate_id"`
	StartedAt    string   `json:"started_at"`
	Phase        string   `json:"phase"`
	UnitIndex    int      `json:"unit_index"`
	Difficulty   int      `json:"difficulty"`
	TurnCount    int      `json:"turn_count"`
	ScoreCount   int      `json:"score_count"`
	Completed    bool     `json:"completed"`
	Interrupted  bool     `json:"interrupted"`
	FinalScore   *float64 `json:"final_score,omitempty"`
	FinalSummary string   `json:"final_summary,omitempty"`
}

type ledgerResponse struct {
	SessionID string                  `json:"session_id"`
	Records   []interview.ScoreRecord `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// #endregion wire-types

// #region handlers

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	ids, err := s.runner.Cases()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, map[string][]string{"cases": ids})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.CaseID == "" {
		s.writeError(w, http.StatusBadRequest, "case_id is required")
		return
	}

	// Unknown case ids and malformed case definitions both surface
	// here; either way the request, not the server, is at fault.
	sessionID, err := s.runner.Create(req.CaseID, req.CandidateID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opening, err := s.runner.Start(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.log.Info("session created",
		zap.String("session_id", sessionID),
		zap.String("case_id", req.CaseID))
	s.write(w, http.StatusCreated, createResponse{SessionID: sessionID, Message: opening})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	msg, err := s.runner.Respond(r.Context(), sessionID, req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	completed, err := s.runner.IsComplete(sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, respondResponse{Message: msg, Completed: completed})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Snapshot(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, statusResponse{
		SessionID:    snap.SessionID,
		CaseID:       snap.CaseID,
		CandidateID:  snap.CandidateID,
		StartedAt:    snap.StartedAt.Format(time.RFC3339),
		Phase:        string(snap.Phase),
		UnitIndex:    snap.UnitIndex,
		Difficulty:   snap.Difficulty,
		TurnCount:    len(snap.Transcript),
		ScoreCount:   len(snap.Ledger),
		Completed:    snap.Completed,
		Interrupted:  snap.Interrupted,
		FinalScore:   snap.FinalScore,
		FinalSummary: snap.FinalSummary,
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	records, err := s.runner.Ledger(sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []interview.ScoreRecord{}
	}
	s.write(w, http.StatusOK, ledgerResponse{SessionID: sessionID, Records: records})
}

// #endregion handlers

// #region responses

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, runner.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrSessionComplete),
		errors.Is(err, controller.ErrAlreadyStarted),
		errors.Is(err, runner.ErrTurnInFlight),
		errors.Is(err, runner.ErrNotStarted):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.write(w, status, errorResponse{Error: msg})
}

// #endregion responses
