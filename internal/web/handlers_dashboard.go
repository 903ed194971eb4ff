package web

import (
	"fmt"
	"net/http"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

// handleDashboard recomputes every analytics view from a fresh snapshot.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	exps, err := s.experiments.List(ctx, ports.ListExperimentsOptions{Goal: queryGoal(r)})
	if err != nil {
		s.writeDomainError(w, fmt.Errorf("failed to list experiments: %w", err))
		return
	}

	dashboard := domain.ComputeDashboard(exps, s.now())
	s.metrics.RecordDashboard(ctx, dashboard.Summary)

	s.writeJSON(w, http.StatusOK, dashboard)
}
