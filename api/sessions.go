package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/qrform/form"
	"github.com/openclaw/qrform/session"
	"github.com/openclaw/qrform/store"
)

type sessionResponse struct {
	ID string `json:"id"`
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.State())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess.Controller.SetText(req.Text)
	writeJSON(w, http.StatusOK, sess.Controller.State())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	err := sess.Controller.Submit(r.Context(), req.Text)
	st := sess.Controller.State()

	outcome := store.OutcomeOK
	status := http.StatusOK
	switch {
	case errors.Is(err, form.ErrEmptyInput):
		outcome = store.OutcomeEmpty
		status = http.StatusUnprocessableEntity
	case err != nil:
		outcome = store.OutcomeFailed
		status = http.StatusUnprocessableEntity
	}
	s.record(sess.ID, req.Text, outcome, st, time.Since(start))

	writeJSON(w, status, st)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	saved, err := sess.Controller.Download(form.SaverFunc(func(filename string, data []byte) error {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(data)
		return err
	}))
	if err != nil {
		s.Log.Warn("download write failed", "session_id", sess.ID, "error", err)
		return
	}
	if !saved {
		w.WriteHeader(http.StatusNoContent)
	}
}

// session resolves the {id} path parameter, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// record feeds one generate action into metrics and the history log.
func (s *Server) record(sessionID, text, outcome string, st form.State, d time.Duration) {
	if s.Metrics != nil {
		s.Metrics.ObserveGenerate(outcome, d)
	}
	if s.History == nil {
		return
	}
	g := &store.Generation{
		SessionID: sessionID,
		Text:      text,
		Outcome:   outcome,
		Error:     st.Error,
		PNGSize:   len(st.Image),
	}
	if err := s.History.Save(g); err != nil {
		s.Log.Error("failed to save generation", "error", err)
	}
}
