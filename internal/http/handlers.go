package http

import (
	"fmt"
	"net/http"

	"chitfund/internal/core"
	"chitfund/internal/log"
)

// cachedJSON serves a derived view, computing it at most once per ledger
// revision. Concurrent misses for the same key share one computation.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	rev := s.svc.Revision()
	flightKey := fmt.Sprintf("%s@%d", key, rev)

	body, err, _ := s.inflight.Do(flightKey, func() (any, error) {
		return s.views.GetOrCompute(key, rev, func() ([]byte, error) {
			v, err := compute()
			if err != nil {
				return nil, err
			}
			return marshalJSON(v)
		})
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Ledger-Revision", fmt.Sprint(rev))
	writeRawJSON(w, http.StatusOK, body.([]byte))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryInt(r, "as_of", s.svc.Selection().Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cachedJSON(w, r, fmt.Sprintf("members:%d", asOf), func() (any, error) {
		totals, err := s.svc.Members(asOf)
		if err != nil {
			return nil, err
		}
		return mapSlice(totals, toMemberTotalsJSON), nil
	})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.svc.Member(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberJSON(m))
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.svc.UpdateMemberProfile(r.Context(), id, core.ProfileField(req.Field), sanitizeInput(req.Value))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberJSON(m))
}

func (s *Server) handleMemberSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cachedJSON(w, r, fmt.Sprintf("series:%d", id), func() (any, error) {
		series, err := s.svc.MemberSeries(id)
		if err != nil {
			return nil, err
		}
		return mapSlice(series, toSeriesPointJSON), nil
	})
}

func (s *Server) handleMonthPayments(w http.ResponseWriter, r *http.Request) {
	month, err := pathInt(r, "month")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.svc.MonthRecords(month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(recs, toPaymentJSON))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	month, err := pathInt(r, "month")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	member, err := pathInt(r, "member")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	status, err := core.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var amount int64
	if req.Amount != nil {
		amount = req.Amount.Value
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.svc.RecordPayment(r.Context(), month, member, status, amount, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogPaymentRecorded(r.Context(), rec.Month, rec.MemberID, rec.Status.String(), rec.Amount)
	writeJSON(w, http.StatusOK, toPaymentJSON(rec))
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	s.cachedJSON(w, r, "summary:monthly", func() (any, error) {
		return mapSlice(s.svc.MonthlySummary(), toMonthSummaryJSON), nil
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month", s.svc.Selection().Month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cachedJSON(w, r, fmt.Sprintf("dashboard:%d", month), func() (any, error) {
		d, err := s.svc.Dashboard(month)
		if err != nil {
			return nil, err
		}
		return toDashboardJSON(d), nil
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSessionJSON(s.svc.Selection()))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings := s.svc.Settings()
	if req.Month != nil && *req.Month > settings.NumMonths {
		s.writeError(w, r, fmt.Errorf("month %d outside 1..%d: %w", *req.Month, settings.NumMonths, core.ErrInvalidArgument))
		return
	}
	if req.Member != nil && *req.Member > settings.NumMembers {
		s.writeError(w, r, fmt.Errorf("member %d outside 0..%d: %w", *req.Member, settings.NumMembers, core.ErrInvalidArgument))
		return
	}
	if req.Month != nil {
		if err := s.svc.SelectMonth(*req.Month); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Member != nil {
		if err := s.svc.SelectMember(*req.Member); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toSessionJSON(s.svc.Selection()))
}
