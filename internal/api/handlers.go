package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/remote"
)

// transactionDTO is the wire shape for Transaction: id is string-encoded
// so it survives JavaScript's 53-bit safe-integer limit.
type transactionDTO struct {
	ID       string  `json:"id"`
	Time     string  `json:"time"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
}

func toDTO(t domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:       strconv.FormatInt(t.ID, 10),
		Time:     t.Time.Format(time.RFC3339),
		Amount:   t.Amount,
		Merchant: t.Merchant,
	}
}

func toDTOs(rows []domain.Transaction) []transactionDTO {
	out := make([]transactionDTO, len(rows))
	for i, r := range rows {
		out[i] = toDTO(r)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeTaxonomyError maps the shared error taxonomy onto a status code,
// never leaking stack traces or internal detail beyond the error message.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	var (
		cfgErr     *domain.ConfigError
		valErr     *domain.ValidationError
		remoteErr  *domain.RemoteError
		storeErr   *domain.StoreError
		alreadyRun *domain.ErrAlreadyRunning
	)
	switch {
	case errors.As(err, &alreadyRun):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &valErr), errors.As(err, &cfgErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &remoteErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &storeErr):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Store.Query(r.Context(), domain.FilterSpec{})
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(rows))
}

func (s *Server) handleQueryTransactions(w http.ResponseWriter, r *http.Request) {
	var filter domain.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		writeTaxonomyError(w, &domain.ValidationError{Reason: "malformed filter body: " + err.Error()})
		return
	}

	rows, err := s.Store.Query(r.Context(), filter)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(rows))
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.Store.Count(r.Context())
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"count": n})
}

type fetchRequest struct {
	StartDate string `json:"start_date"`
}

func (s *Server) handleTriggerFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaxonomyError(w, &domain.ValidationError{Reason: "malformed fetch body: " + err.Error()})
		return
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, remote.CampusLocation)
	if err != nil {
		writeTaxonomyError(w, &domain.ValidationError{Reason: "start_date must be YYYY-MM-DD"})
		return
	}

	cred, err := s.Config.Load(s.resolved)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}
	if cred.Account == "" {
		writeTaxonomyError(w, &domain.ConfigError{Reason: "account is not configured"})
		return
	}

	if err := s.Coord.Trigger(s.fetchContext(), cred.Account, start); err != nil {
		writeTaxonomyError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSetAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Account string `json:"account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Account == "" {
		writeTaxonomyError(w, &domain.ValidationError{Reason: "account is required"})
		return
	}

	if _, err := s.Config.Update(func(c *domain.Credential) { c.Account = body.Account }); err != nil {
		writeTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetHallticket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hallticket string `json:"hallticket"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Hallticket == "" {
		writeTaxonomyError(w, &domain.ValidationError{Reason: "hallticket is required"})
		return
	}

	cookie := domain.NormalizeHallticket(body.Hallticket)
	if _, err := s.Config.Update(func(c *domain.Credential) { c.Cookie = cookie }); err != nil {
		writeTaxonomyError(w, err)
		return
	}
	s.applyCookie(cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAccountCookie(w http.ResponseWriter, r *http.Request) {
	cred, err := s.Config.Load(s.resolved)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}
	if cred.IsZero() {
		writeError(w, http.StatusNotFound, "no credential configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account": cred.Account, "cookie": cred.Cookie})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseFilterQuery(q)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	rows, err := s.Store.Query(r.Context(), filter)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	format := q.Get("format")
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toDTOs(rows))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	csvw := csv.NewWriter(w)
	_ = csvw.Write([]string{"id", "time", "amount", "merchant"})
	for _, row := range rows {
		_ = csvw.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.Time.Format(time.RFC3339),
			fmt.Sprintf("%.2f", row.Amount),
			row.Merchant,
		})
	}
	csvw.Flush()
}

func parseFilterQuery(q map[string][]string) (domain.FilterSpec, error) {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	var filter domain.FilterSpec
	filter.Merchant = get("merchant")

	if v := get("min_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "min_amount must be a number"}
		}
		filter.AmountMin = &f
	}
	if v := get("max_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "max_amount must be a number"}
		}
		filter.AmountMax = &f
	}
	if v := get("time_start"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, remote.CampusLocation)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "time_start must be YYYY-MM-DD"}
		}
		filter.TimeStart = &t
	}
	if v := get("time_end"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, remote.CampusLocation)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "time_end must be YYYY-MM-DD"}
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}
