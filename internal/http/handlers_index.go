package http

import (
	"log/slog"
	"net/http"

	"chitfund/internal/core"
)

type indexRow struct {
	Member core.MemberTotals
	Record core.PaymentRecord
}

type indexData struct {
	Month     int
	Months    []int
	Dashboard core.Dashboard
	Rows      []indexRow
	Summary   []core.MonthSummary
	Selected  *core.Member
	Series    []core.SeriesPoint
	Revision  uint64
}

// handleIndex renders the dashboard for ?month=, defaulting to the session month.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sel := s.svc.Selection()
	month, err := queryInt(r, "month", sel.Month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.buildIndex(month, sel.MemberID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
	}
}

func (s *Server) buildIndex(month, memberID int) (indexData, error) {
	dash, err := s.svc.Dashboard(month)
	if err != nil {
		return indexData{}, err
	}
	totals, err := s.svc.Members(month)
	if err != nil {
		return indexData{}, err
	}
	recs, err := s.svc.MonthRecords(month)
	if err != nil {
		return indexData{}, err
	}

	data := indexData{
		Month:     month,
		Dashboard: dash,
		Summary:   s.svc.MonthlySummary(),
		Revision:  s.svc.Revision(),
	}
	for m := 1; m <= s.svc.Settings().NumMonths; m++ {
		data.Months = append(data.Months, m)
	}
	for i := range totals {
		data.Rows = append(data.Rows, indexRow{Member: totals[i], Record: recs[i]})
	}

	if memberID > 0 {
		m, err := s.svc.Member(memberID)
		if err != nil {
			return indexData{}, err
		}
		series, err := s.svc.MemberSeries(memberID)
		if err != nil {
			return indexData{}, err
		}
		data.Selected = &m
		data.Series = series
	}
	return data, nil
}
