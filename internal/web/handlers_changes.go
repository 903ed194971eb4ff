package web

import (
	"net/http"
	"time"

	"github.com/emiliopalmerini/agentlab/internal/realtime"
)

var changeTables = map[string]bool{
	"experiments": true,
	"battles":     true,
}

// handleChanges streams change events for one table as server-sent events.
// Query: table=experiments|battles, optional filter=column=eq.value.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusServiceUnavailable, "change feed disabled")
		return
	}

	table := r.URL.Query().Get("table")
	if !changeTables[table] {
		s.writeError(w, http.StatusBadRequest, "table must be experiments or battles")
		return
	}
	filter, err := realtime.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Streams outlive any server write deadline.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sub := s.hub.Subscribe(table, filter)
	defer sub.Close()

	s.logger.Debug("change feed subscribed", "subscription", sub.ID, "table", table, "filter", filter.Column)
	s.hub.Stream(w, r, sub, s.heartbeat)
}
