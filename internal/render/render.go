// Package render writes ACS results as tables, JSON, CSV, YAML or XLSX.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/acs-cli/pkg/acs"
)

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
	FormatXLSX  Format = "xlsx"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV, FormatYAML, FormatXLSX}
}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatCSV, FormatYAML, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("render: unknown format %q", s)
	}
}

// Binary reports whether the format is unsuitable for a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Write renders res to w in the given format.
func Write(w io.Writer, f Format, res *acs.Result) error {
	switch f {
	case FormatTable:
		return writeTable(w, res)
	case FormatJSON:
		return writeJSON(w, res)
	case FormatCSV:
		return writeCSV(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	case FormatXLSX:
		return writeXLSX(w, res)
	default:
		return eris.Errorf("render: unknown format %q", f)
	}
}

// Title turns a field name such as "owner_occupied_percent" into a column
// heading ("Owner Occupied Percent").
func Title(field string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}

func writeTable(w io.Writer, res *acs.Result) error {
	if res.Len() == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	cols := res.Columns()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = Title(col)
	}
	t.AppendHeader(header)

	for _, rec := range res.Records() {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatCell(rec[col], "n/a")
		}
		t.AppendRow(row)
	}

	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", res.Len())
	return err
}

func writeJSON(w io.Writer, res *acs.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "render: encode json")
}

func writeYAML(w io.Writer, res *acs.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res.Value()); err != nil {
		return eris.Wrap(err, "render: encode yaml")
	}
	return eris.Wrap(enc.Close(), "render: close yaml encoder")
}

func writeCSV(w io.Writer, res *acs.Result) error {
	cols := res.Columns()
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return eris.Wrap(err, "render: write csv header")
	}
	for _, rec := range res.Records() {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = formatCell(rec[col], "")
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "render: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "render: flush csv")
}

// SheetName is the worksheet XLSX output is written to.
const SheetName = "ACS"

func writeXLSX(w io.Writer, res *acs.Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "render: add sheet")
	}

	cols := res.Columns()
	header := sheet.AddRow()
	for _, col := range cols {
		header.AddCell().SetString(col)
	}

	for _, rec := range res.Records() {
		row := sheet.AddRow()
		for _, col := range cols {
			cell := row.AddCell()
			switch v := rec[col].(type) {
			case nil:
			case int64:
				cell.SetInt64(v)
			case float64:
				cell.SetFloat(v)
			default:
				cell.SetString(formatCell(v, ""))
			}
		}
	}

	return eris.Wrap(f.Write(w), "render: write xlsx")
}

// formatCell renders one value for text output; missing marks nil.
func formatCell(v any, missing string) string {
	switch x := v.(type) {
	case nil:
		return missing
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}
