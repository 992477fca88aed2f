package client

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Response is the envelope every stats endpoint answers with
type Response struct {
	Resource   string      `json:"resource"`
	ResultSets []ResultSet `json:"resultSets"`
}

// ResultSet is a named table of rows keyed by header position
type ResultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

// Set returns the i-th result set
func (r *Response) Set(i int) (ResultSet, error) {
	if i < 0 || i >= len(r.ResultSets) {
		return ResultSet{}, fmt.Errorf("response has %d result sets, want index %d", len(r.ResultSets), i)
	}
	return r.ResultSets[i], nil
}

// Rows returns the set's rows with by-name accessors
func (rs ResultSet) Rows() []Row {
	idx := make(map[string]int, len(rs.Headers))
	for i, h := range rs.Headers {
		idx[h] = i
	}
	rows := make([]Row, len(rs.RowSet))
	for i, values := range rs.RowSet {
		rows[i] = Row{idx: idx, values: values}
	}
	return rows
}

// RangeColumn returns the header naming the bucket of a shot dashboard
// (SHOT_TYPE, DRIBBLE_RANGE, ...), or "" for the overall dashboard.
func (rs ResultSet) RangeColumn() string {
	for _, h := range rs.Headers {
		if h == "SHOT_TYPE" || strings.HasSuffix(h, "_RANGE") {
			return h
		}
	}
	return ""
}

// Row is one row of a result set. Missing columns and nulls read as zero values.
type Row struct {
	idx    map[string]int
	values []any
}

func (r Row) value(col string) any {
	i, ok := r.idx[col]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// String returns the column as text; numbers are formatted without exponent
func (r Row) String(col string) string {
	switch v := r.value(col).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the column as a float64
func (r Row) Float(col string) float64 {
	f, _ := r.float(col)
	return f
}

// NullFloat returns the column as a NullFloat64, invalid for null or missing values
func (r Row) NullFloat(col string) sql.NullFloat64 {
	f, ok := r.float(col)
	return sql.NullFloat64{Float64: f, Valid: ok}
}

// Int returns the column as an int
func (r Row) Int(col string) int {
	return int(r.Float(col))
}

// Int64 returns the column as an int64
func (r Row) Int64(col string) int64 {
	return int64(r.Float(col))
}

func (r Row) float(col string) (float64, bool) {
	switch v := r.value(col).(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
