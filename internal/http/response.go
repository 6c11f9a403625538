package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"chitfund/internal/core"
	"chitfund/internal/log"
	"chitfund/internal/services"
)

type memberJSON struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	TotalPaid   *int64 `json:"total_paid,omitempty"`
	Expected    *int64 `json:"expected,omitempty"`
	Outstanding *int64 `json:"outstanding,omitempty"`
}

type paymentJSON struct {
	Month       int    `json:"month"`
	MemberID    int    `json:"member_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	PaymentDate string `json:"payment_date"`
	DueDate     string `json:"due_date"`
}

type monthSummaryJSON struct {
	Month    int    `json:"month"`
	Label    string `json:"label"`
	Total    int64  `json:"total"`
	Paid     int    `json:"paid"`
	Partial  int    `json:"partial"`
	Unpaid   int    `json:"unpaid"`
	Expected int64  `json:"expected"`
}

type seriesPointJSON struct {
	Month      int    `json:"month"`
	Label      string `json:"label"`
	Amount     int64  `json:"amount"`
	Cumulative int64  `json:"cumulative"`
	Expected   int64  `json:"expected"`
}

type dashboardJSON struct {
	Month            int    `json:"month"`
	MonthCollection  int64  `json:"month_collection"`
	MonthExpected    int64  `json:"month_expected"`
	MonthPending     int64  `json:"month_pending"`
	CollectionRate   int    `json:"collection_rate"`
	ActiveMembers    int    `json:"active_members"`
	TotalCollected   int64  `json:"total_collected"`
	TotalOutstanding int64  `json:"total_outstanding"`
	TotalFund        int64  `json:"total_fund"`
	TotalFundDisplay string `json:"total_fund_display"`
}

type sessionJSON struct {
	Month  int `json:"month"`
	Member int `json:"member"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toMemberJSON(m core.Member) memberJSON {
	return memberJSON{ID: m.ID, Name: m.Name, Phone: m.Phone, Address: m.Address}
}

func toMemberTotalsJSON(mt core.MemberTotals) memberJSON {
	out := toMemberJSON(mt.Member)
	out.TotalPaid = &mt.TotalPaid
	out.Expected = &mt.Expected
	out.Outstanding = &mt.Outstanding
	return out
}

func toPaymentJSON(rec core.PaymentRecord) paymentJSON {
	return paymentJSON{
		Month:       rec.Month,
		MemberID:    rec.MemberID,
		Status:      rec.Status.String(),
		Amount:      rec.Amount,
		PaymentDate: rec.PaymentDate.String(),
		DueDate:     rec.DueDate.String(),
	}
}

func toMonthSummaryJSON(s core.MonthSummary) monthSummaryJSON {
	return monthSummaryJSON(s)
}

func toSeriesPointJSON(p core.SeriesPoint) seriesPointJSON {
	return seriesPointJSON(p)
}

func toDashboardJSON(d core.Dashboard) dashboardJSON {
	return dashboardJSON{
		Month:            d.Month,
		MonthCollection:  d.MonthCollection,
		MonthExpected:    d.MonthExpected,
		MonthPending:     d.MonthPending,
		CollectionRate:   d.CollectionRate,
		ActiveMembers:    d.ActiveMembers,
		TotalCollected:   d.TotalCollected,
		TotalOutstanding: d.TotalOutstanding,
		TotalFund:        d.TotalFund,
		TotalFundDisplay: core.FormatRupees(d.TotalFund),
	}
}

func toSessionJSON(sel services.Selection) sessionJSON {
	return sessionJSON{Month: sel.Month, Member: sel.MemberID}
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := marshalJSON(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, status, body)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps ledger errors onto HTTP statuses: rejected arguments are
// 422, undecodable requests 400, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		writeJSON(w, http.StatusUnprocessableEntity, errorJSON{Error: err.Error()})
	case errors.Is(err, errMalformed):
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal error"})
	}
}
