package http

import (
	"net/http"

	"zeus/internal/core"
)

type comparisonJSON struct {
	Month string  `json:"month"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type breakdownJSON struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// handleComparisonChart returns income and expenses for all months in long form.
func (s *Server) handleComparisonChart(w http.ResponseWriter, r *http.Request) {
	points := core.ComparisonSeries(s.ledger.Snapshot())
	out := make([]comparisonJSON, 0, len(points))
	for _, p := range points {
		out = append(out, comparisonJSON{Month: p.Month.String(), Type: p.Type, Value: p.Value.InexactFloat64()})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleBreakdownChart(w http.ResponseWriter, r *http.Request) {
	m, err := s.parseMonth(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "mês inválido"})
		return
	}
	amounts := core.CategoryBreakdown(s.ledger.Snapshot(), m)
	out := make([]breakdownJSON, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, breakdownJSON{Category: a.Category, Value: a.Value.InexactFloat64()})
	}
	writeJSON(w, r, http.StatusOK, out)
}
