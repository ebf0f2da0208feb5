package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

func (s *Server) handleIssueVisitorPass(w http.ResponseWriter, r *http.Request) {
	var req types.IssuePassRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.passes.IssueVisitorPass(r.Context(), req.VisitorID, req.Usage)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVisitorID):
			writeError(w, http.StatusBadRequest, "invalid_visitor_id", err.Error())
		case errors.Is(err, service.ErrInvalidUsage):
			writeError(w, http.StatusBadRequest, "invalid_usage", err.Error())
		case errors.Is(err, service.ErrVisitorNotFound):
			writeError(w, http.StatusNotFound, "visitor_not_found", "no such visitor")
		case errors.Is(err, service.ErrIssuanceConflict):
			writeError(w, http.StatusConflict, "issuance_conflict", err.Error())
		default:
			s.logger.Printf("issue pass error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIssueTemporaryPass(w http.ResponseWriter, r *http.Request) {
	var req types.TemporaryPassRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.passes.IssueTemporaryPass(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLocation):
			writeError(w, http.StatusBadRequest, "invalid_location", err.Error())
		case errors.Is(err, service.ErrInvalidDuration):
			writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
		default:
			s.logger.Printf("issue temporary pass error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	result, err := s.validation.Validate(r.Context(), req.Blob)
	if err != nil {
		switch {
		case errors.Is(err, pass.ErrMalformedBlob):
			writeError(w, http.StatusBadRequest, "malformed_blob", "blob is not a pass")
		case errors.Is(err, pass.ErrIntegrity):
			writeError(w, http.StatusBadRequest, "integrity_failure", "pass failed integrity checks")
		case errors.Is(err, service.ErrExpired):
			writeError(w, http.StatusGone, "pass_expired", "pass is past its validity window")
		case errors.Is(err, service.ErrVisitorNotFound):
			writeError(w, http.StatusNotFound, "visitor_not_found", "pass references an unknown visitor")
		case errors.Is(err, service.ErrStateConflict):
			// Already used or wrong phase; a correct refusal, not a fault.
			writeError(w, http.StatusConflict, "state_conflict", "pass not valid for current visitor state")
		default:
			s.logger.Printf("validate error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
