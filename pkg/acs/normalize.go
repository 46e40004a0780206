package acs

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"

	"github.com/rotisserie/eris"
)

// numericFields are coerced from the API's string values to numbers.
var numericFields = []string{
	FieldHousingUnits,
	FieldOwnerOccupied,
	FieldRenterOccupied,
	FieldVacant,
}

// derivedPercents lists each derived percentage with its numerator field. The
// denominator is always housing_units.
var derivedPercents = []struct {
	field     string
	numerator string
}{
	{field: FieldOwnerOccupiedPercent, numerator: FieldOwnerOccupied},
	{field: FieldRenterOccupiedPercent, numerator: FieldRenterOccupied},
	{field: FieldVacantPercent, numerator: FieldVacant},
}

// Normalize parses a raw API response body: a JSON array whose first element
// is the header row and whose remaining elements are data rows. An empty body
// (the API answers 204 when nothing matches) yields an empty Result.
func Normalize(body []byte) (*Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &Result{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &DataShapeError{Err: eris.Wrap(err, "decode response")}
	}

	for i, r := range raw {
		for j, cell := range r {
			if !validCell(cell) {
				return nil, &DataShapeError{Row: i, Err: eris.Errorf("row %d column %d: unexpected value %v", i, j, cell)}
			}
		}
	}

	return normalizeCells(raw)
}

// validCell reports whether a decoded JSON cell is one the API sends: a
// string, a number, or null for a suppressed value.
func validCell(cell any) bool {
	switch cell.(type) {
	case nil, string, json.Number:
		return true
	default:
		return false
	}
}

// cellText returns the string form of a cell. Null becomes "".
func cellText(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// NormalizeRows converts header + data rows into records: columns are renamed
// through the variable catalog, housing fields become numbers, and the derived
// percentages are added. Row order is preserved.
func NormalizeRows(rows [][]string) (*Result, error) {
	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	return normalizeCells(cells)
}

func normalizeCells(rows [][]any) (*Result, error) {
	if len(rows) == 0 {
		return &Result{}, nil
	}

	header := rows[0]
	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, code := range header {
		columns[i] = FieldName(cellText(code))
		index[columns[i]] = i
	}

	var percents []string
	for _, d := range derivedPercents {
		_, hasNum := index[d.numerator]
		_, hasDen := index[FieldHousingUnits]
		if hasNum && hasDen {
			columns = append(columns, d.field)
			percents = append(percents, d.field)
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, &DataShapeError{
				Row: i,
				Err: eris.Errorf("row %d has %d columns, header has %d", i, len(row), len(header)),
			}
		}

		rec := make(Record, len(columns))
		for j, cell := range row {
			rec[columns[j]] = cellText(cell)
		}

		for _, field := range numericFields {
			j, ok := index[field]
			if !ok {
				continue
			}
			// Suppressed estimates are undefined, not zero.
			if row[j] == nil {
				rec[field] = nil
				continue
			}
			raw := cellText(row[j])
			n, err := parseNumber(raw)
			if err != nil {
				return nil, &DataShapeError{Field: field, Value: raw, Row: i, Err: err}
			}
			rec[field] = n
		}

		for _, d := range derivedPercents {
			if slices.Contains(percents, d.field) {
				rec[d.field] = percentOf(rec, d.numerator)
			}
		}

		records = append(records, rec)
	}

	return &Result{columns: columns, records: records}, nil
}

// decimalPattern matches plain decimal notation. ParseFloat alone would also
// take NaN, Inf and hex floats.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseNumber parses an integer when the raw value is one, otherwise a finite
// decimal float.
func parseNumber(raw string) (any, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	if !decimalPattern.MatchString(raw) {
		return nil, eris.Errorf("parse %q: not a decimal number", raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", raw)
	}
	return f, nil
}

// percentOf returns round(100 * numerator / housing_units) for a record, or
// nil when the percentage is undefined: either value is missing or
// suppressed, or housing_units is zero.
func percentOf(rec Record, numerator string) any {
	num, ok := toFloat(rec[numerator])
	if !ok {
		return nil
	}
	den, ok := toFloat(rec[FieldHousingUnits])
	if !ok || den == 0 {
		return nil
	}
	p := math.RoundToEven(100 * num / den)
	if math.IsNaN(p) || math.IsInf(p, 0) || math.Abs(p) >= math.MaxInt64 {
		return nil
	}
	return int64(p)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
