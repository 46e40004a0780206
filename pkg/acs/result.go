package acs

import (
	"encoding/json"
)

// Record is one normalized row, keyed by friendly field name. Housing fields
// hold int64 or float64, derived percentages hold int64 (nil when undefined),
// and every other field is a string.
type Record map[string]any

// String returns a string field, or "" when the field is absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Result holds the ordered records of one call together with the column order
// of the response.
type Result struct {
	columns []string
	records []Record
}

// NewResult builds a Result from columns and records. It is mostly useful for
// tests and for callers assembling results from stored records.
func NewResult(columns []string, records []Record) *Result {
	return &Result{columns: columns, records: records}
}

// Columns returns the field names in response order, followed by any derived
// fields.
func (r *Result) Columns() []string {
	return r.columns
}

// Records returns the records in the API's row order.
func (r *Result) Records() []Record {
	return r.records
}

// Len returns the number of records.
func (r *Result) Len() int {
	return len(r.records)
}

// Single returns the record when the result holds exactly one.
func (r *Result) Single() (Record, bool) {
	if len(r.records) != 1 {
		return nil, false
	}
	return r.records[0], true
}

// Filter returns a Result with the records matching keep, in order.
func (r *Result) Filter(keep func(Record) bool) *Result {
	out := &Result{columns: r.columns}
	for _, rec := range r.records {
		if keep(rec) {
			out.records = append(out.records, rec)
		}
	}
	return out
}

// First returns a Result holding the first record matching keep, or an empty
// Result when nothing matches.
func (r *Result) First(keep func(Record) bool) *Result {
	for _, rec := range r.records {
		if keep(rec) {
			return &Result{columns: r.columns, records: []Record{rec}}
		}
	}
	return &Result{columns: r.columns}
}

// Value returns the collapsed form of the result: the lone Record when there
// is exactly one, otherwise the slice of records.
func (r *Result) Value() any {
	if rec, ok := r.Single(); ok {
		return rec
	}
	if r.records == nil {
		return []Record{}
	}
	return r.records
}

// MarshalJSON encodes a single-record result as an object and anything else
// as an array.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}
