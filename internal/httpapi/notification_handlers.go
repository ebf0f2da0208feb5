package httpapi

import (
	"errors"
	"net/http"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

// Notification handlers operate on the authenticated caller's own queue;
// the recipient id always comes from the token, never the request body.

func (s *Server) handleUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	recipientID := callerClaims(r).Subject

	recs, err := s.notifications.Unread(r.Context(), recipientID)
	if err != nil {
		s.logger.Printf("unread notifications error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if recs == nil {
		recs = []store.NotificationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	recipientID := callerClaims(r).Subject

	rec, err := s.notifications.MarkRead(r.Context(), r.PathValue("id"), recipientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "notification_not_found", "no such notification for this recipient")
			return
		}
		s.logger.Printf("mark read error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID := callerClaims(r).Subject

	n, err := s.notifications.MarkAllRead(r.Context(), recipientID)
	if err != nil {
		s.logger.Printf("mark all read error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "updated": n})
}
