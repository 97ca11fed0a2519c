package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/show-logic-core/internal/audit"
)

// recordAudit stores an action edit. Failures are logged, never returned:
// the edit itself has already succeeded.
func (s *Server) recordAudit(r *http.Request, op, actionID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	subject, _ := r.Context().Value(ctxKeySubject).(string) //nolint:errcheck // absent on unauthenticated paths
	entry := &audit.Entry{
		Operation: op,
		ActionID:  actionID,
		Subject:   subject,
		Source:    audit.SourceAPI,
		Details:   details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Warn("audit write failed", "operation", op, "action_id", actionID, "error", err)
	}
}

// handleListAudit returns action edits, newest first.
//
// Query parameters:
//   - operation: create, update, delete, toggle or import
//   - action_id: only edits of this action
//   - limit, offset: paging (default 50, max 200)
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Operation: q.Get("operation"),
		ActionID:  q.Get("action_id"),
	}
	if len(filter.Operation) > maxQueryParamLen || len(filter.ActionID) > maxQueryParamLen {
		writeBadRequest(w, "query parameter exceeds maximum length")
		return
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "limit must be a number")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeBadRequest(w, "offset must be a number")
			return
		}
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
