package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/table"
)

// errBadRequest marks malformed query parameters and bodies.
var errBadRequest = errors.New("bad request")

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}

	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type tableResponse struct {
	Kind    string             `json:"kind"`
	Rows    int                `json:"rows"`
	Columns []table.ColumnInfo `json:"columns"`
	Metrics []string           `json:"metrics"`
}

type tablesResponse struct {
	Tables []tableResponse `json:"tables"`
}

type columnValues struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	Values []Float `json:"values"`
}

type rowsResponse struct {
	Kind    string         `json:"kind"`
	Count   int            `json:"count"`
	Basis   string         `json:"basis"`
	Min     *Float         `json:"min,omitempty"`
	Max     *Float         `json:"max,omitempty"`
	Columns []columnValues `json:"columns"`
}

type spanResponse struct {
	Kind  string `json:"kind"`
	Basis string `json:"basis"`
	Empty bool   `json:"empty"`
	Min   Float  `json:"min"`
	Max   Float  `json:"max"`
}

type windowResponse struct {
	Basis      string `json:"basis"`
	Bounded    bool   `json:"bounded"`
	Min        Float  `json:"min"`
	Max        Float  `json:"max"`
	Generation uint64 `json:"generation"`
}

type windowRequest struct {
	Basis string   `json:"basis"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	resp := tablesResponse{}
	for _, tbl := range s.tel.Tables() {
		resp.Tables = append(resp.Tables, tableResponse{
			Kind:    tbl.Kind().String(),
			Rows:    tbl.Len(),
			Columns: tbl.ColumnInfos(),
			Metrics: tbl.MetricColumns(),
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Pin the active window so the response reports the range it was cut with.
	if q.Range == nil && !q.Unfiltered {
		if win := s.tel.Window(); win.Bounded {
			q.Basis, q.Range = win.Basis, &win.Range
		}
	}

	proj, err := s.tel.Query(kind, q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := rowsResponse{Kind: kind.String(), Count: proj.Len(), Basis: q.Basis.String()}
	if q.Range != nil {
		lo, hi := Float(q.Range.Min), Float(q.Range.Max)
		resp.Min, resp.Max = &lo, &hi
	}
	for _, c := range proj.Columns() {
		values := make([]Float, c.Len())
		for i := range values {
			values[i] = Float(c.Float64(i))
		}
		resp.Columns = append(resp.Columns, columnValues{Name: c.Name(), Title: table.Title(c.Name()), Values: values})
	}
	s.metrics.rowsServed.WithLabelValues(kind.String()).Add(float64(proj.Len()))

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpan(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	basis, err := format.ParseTimeBasis(r.URL.Query().Get("basis"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	span, ok, err := s.tel.Span(kind, basis)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, spanResponse{
		Kind:  kind.String(),
		Basis: basis.String(),
		Empty: !ok,
		Min:   Float(span.Min),
		Max:   Float(span.Max),
	})
}

func (s *Server) handleGetWindow(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.windowResponse())
}

func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: window body: %w", errBadRequest, err))
		return
	}
	if req.Min == nil || req.Max == nil {
		s.writeError(w, fmt.Errorf("%w: window needs both min and max", errBadRequest))
		return
	}
	basis, err := format.ParseTimeBasis(req.Basis)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	if err := s.tel.SetTimeRange(basis, *req.Min, *req.Max); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.windowResponse())
}

func (s *Server) handleResetWindow(w http.ResponseWriter, _ *http.Request) {
	s.tel.ResetTimeRange()
	s.writeJSON(w, http.StatusOK, s.windowResponse())
}

func (s *Server) windowResponse() windowResponse {
	win := s.tel.Window()

	return windowResponse{
		Basis:      win.Basis.String(),
		Bounded:    win.Bounded,
		Min:        Float(win.Range.Min),
		Max:        Float(win.Range.Max),
		Generation: s.Generation(),
	}
}

func kindParam(r *http.Request) (format.RecordKind, error) {
	name := mux.Vars(r)["kind"]
	kind, err := format.ParseRecordKind(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrUnknownRecordKind, name)
	}

	return kind, nil
}

// parseQuery reads columns, basis, min, max and all from the URL. Giving only
// one bound leaves the other side open.
func parseQuery(r *http.Request) (table.Query, error) {
	params := r.URL.Query()

	var q table.Query
	if cols := strings.TrimSpace(params.Get("columns")); cols != "" {
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Columns = append(q.Columns, c)
			}
		}
	}

	basis, err := format.ParseTimeBasis(params.Get("basis"))
	if err != nil {
		return q, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	q.Basis = basis

	lo, hasMin, err := floatParam(params.Get("min"), math.Inf(-1))
	if err != nil {
		return q, err
	}
	hi, hasMax, err := floatParam(params.Get("max"), math.Inf(1))
	if err != nil {
		return q, err
	}
	if hasMin || hasMax {
		q.Range = &table.TimeRange{Min: lo, Max: hi}
	}

	if all := params.Get("all"); all != "" {
		q.Unfiltered, err = strconv.ParseBool(all)
		if err != nil {
			return q, fmt.Errorf("%w: all=%q", errBadRequest, all)
		}
	}

	return q, nil
}

func floatParam(raw string, fallback float64) (float64, bool, error) {
	if raw == "" {
		return fallback, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", errBadRequest, raw)
	}

	return v, true, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnknownRecordKind):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, errs.ErrUnknownColumn),
		errors.Is(err, errs.ErrInvalidTimeRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}

	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
