package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/auth"
)

// recordAudit queues an audit entry. It never blocks the request.
func (s *Server) recordAudit(action, entityType, entityID, userID string, details map[string]any) {
	if s.auditRec == nil {
		return
	}
	s.auditRec.Record(action, entityType, entityID, userID, details)
}

// auditMutation records a blog mutation attributed to the request subject.
func (s *Server) auditMutation(r *http.Request, action, entityType string, id int64, details map[string]any) {
	subject, _ := auth.SubjectFromContext(r.Context())
	s.recordAudit(action, entityType, strconv.FormatInt(id, 10), subject, details)
}

// handleListAuditLogs returns paginated audit entries with optional filters.
//
// Query parameters:
//   - action: create, update, delete, register
//   - entity_type: author, post, user
//   - entity_id, user_id: exact match
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeInternalError(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		UserID:     q.Get("user_id"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
