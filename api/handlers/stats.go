package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Sunshine050/emergency-project-sub001/api"
	"github.com/Sunshine050/emergency-project-sub001/config"
	"github.com/Sunshine050/emergency-project-sub001/stats"
)

// Stats exported for testing purposes
type Stats struct {
	Agg *stats.Aggregator
}

// DashboardStatsHandler returns the current dashboard aggregates,
// computed on demand
func (s Stats) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	snapshot, err := s.Agg.Snapshot(ctx)
	if err != nil {
		config.ErrorStatus("failed to compute dashboard stats", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(snapshot)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
