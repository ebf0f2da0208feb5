package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

func (s *Server) handleRegisterVisitor(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterVisitorRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.visitors.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVisitorName),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrInvalidPurpose),
			errors.Is(err, service.ErrInvalidHost),
			errors.Is(err, service.ErrInvalidDepartment):
			writeError(w, http.StatusBadRequest, "invalid_visitor", err.Error())
		default:
			s.logger.Printf("register visitor error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetVisitor(w http.ResponseWriter, r *http.Request) {
	rec, err := s.visitors.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrVisitorNotFound) {
			writeError(w, http.StatusNotFound, "visitor_not_found", "no such visitor")
			return
		}
		s.logger.Printf("get visitor error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListVisitors(w http.ResponseWriter, r *http.Request) {
	status := types.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = types.StatusPending
	}

	recs, err := s.visitors.ListByStatus(r.Context(), status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		s.logger.Printf("list visitors error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCancelVisitor(w http.ResponseWriter, r *http.Request) {
	rec, err := s.visitors.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVisitorNotFound):
			writeError(w, http.StatusNotFound, "visitor_not_found", "no such visitor")
		case errors.Is(err, service.ErrStateConflict):
			writeError(w, http.StatusConflict, "state_conflict", "visit is already in a terminal state")
		default:
			s.logger.Printf("cancel visitor error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
