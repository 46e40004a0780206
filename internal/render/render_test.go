package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/acs-cli/pkg/acs"
)

func countyResult() *acs.Result {
	return acs.NewResult(
		[]string{"geography_name", "housing_units", "state", "county", "owner_occupied_percent"},
		[]acs.Record{
			{"geography_name": "Hartford County, Connecticut", "housing_units": int64(100), "state": "09", "county": "003", "owner_occupied_percent": int64(60)},
			{"geography_name": "Empty, Connecticut", "housing_units": 12.5, "state": "09", "county": "009", "owner_occupied_percent": nil},
		},
	)
}

func singleResult() *acs.Result {
	return acs.NewResult(
		[]string{"geography_name", "state"},
		[]acs.Record{{"geography_name": "Connecticut", "state": "09"}},
	)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xlsx", FormatXLSX, false},
		{"parquet", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatBinary(t *testing.T) {
	assert.True(t, FormatXLSX.Binary())
	assert.False(t, FormatJSON.Binary())
	assert.Len(t, Formats(), 5)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Owner Occupied Percent", Title("owner_occupied_percent"))
	assert.Equal(t, "County Subdivision", Title("county subdivision"))
	assert.Equal(t, "State", Title("state"))
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, countyResult()))

	out := buf.String()
	assert.Contains(t, out, "Geography Name")
	assert.Contains(t, out, "Owner Occupied Percent")
	assert.Contains(t, out, "Hartford County, Connecticut")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "(2 rows)")
}

func TestWrite_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, acs.NewResult(nil, nil)))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestWrite_JSONCollapsesSingleRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, singleResult()))

	var obj map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &obj))
	assert.Equal(t, "Connecticut", obj["geography_name"])
}

func TestWrite_JSONList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, countyResult()))

	var list []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Nil(t, list[1]["owner_occupied_percent"])
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, countyResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"geography_name", "housing_units", "state", "county", "owner_occupied_percent"}, rows[0])
	assert.Equal(t, []string{"Hartford County, Connecticut", "100", "09", "003", "60"}, rows[1])
	assert.Equal(t, []string{"Empty, Connecticut", "12.5", "09", "009", ""}, rows[2])
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, countyResult()))

	var list []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "003", list[0]["county"])
	assert.Equal(t, 100, list[0]["housing_units"])
	assert.Nil(t, list[1]["owner_occupied_percent"])
}

func TestWrite_YAMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, acs.NewResult(nil, nil)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, countyResult()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "geography_name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Hartford County, Connecticut", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "100", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "003", sheet.Rows[1].Cells[3].String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Format("parquet"), singleResult())
	assert.Error(t, err)
}
