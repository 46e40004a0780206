package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/acs-cli/pkg/acs"
)

const countiesBody = `[
	["NAME","B25001_001E","B25075_001E","B25003_003E","B25002_003E","state","county"],
	["Fairfield County, Connecticut","100","60","35","5","09","001"],
	["Hartford County, Connecticut","8","1","3","4","09","003"]
]`

const tractsBody = `[
	["NAME","B25001_001E","state","county","tract"],
	["Census Tract 2402","100","09","001","240200"],
	["Census Tract 2403","200","09","001","240300"]
]`

// upstream fakes the ACS API, answering every request with body and
// recording raw queries.
type upstream struct {
	srv     *httptest.Server
	mu      sync.Mutex
	queries []string
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.queries = append(u.queries, r.URL.RawQuery)
		u.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) lastQuery() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.queries) == 0 {
		return ""
	}
	return u.queries[len(u.queries)-1]
}

// resetFlags restores every flag variable and clears Changed marks left by
// earlier executions of the shared command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	flagYear, flagDataset, flagFormat, flagOut = "", "", "table", ""
	flagVariables, flagGeo, flagIn = nil, nil, nil
	flagState = ""
	servePort = 0
	_ = recordsCmd.Flags().Set("limit", "100")
	_ = recordsCmd.Flags().Set("geography", "")

	var clearChanged func(c *cobra.Command)
	clearChanged = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			clearChanged(sub)
		}
	}
	clearChanged(rootCmd)
}

// runCLI executes the root command against the fake upstream from a temp
// working directory and returns stdout.
func runCLI(t *testing.T, u *upstream, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	t.Setenv(acs.APIKeyEnv, "")
	t.Setenv("ACS_ACS_BASE_URL", u.srv.URL)
	t.Setenv("ACS_LOG_LEVEL", "error")
	if os.Getenv("ACS_STORE_DATABASE_URL") == "" {
		t.Setenv("ACS_STORE_DATABASE_URL", filepath.Join(dir, "acs.db"))
	}

	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCountiesCommand_JSON(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)

	out, err := runCLI(t, u, "counties", "--state", "9", "001,003", "-f", "json")
	require.NoError(t, err)

	assert.Contains(t, u.lastQuery(), "&for=county:001,003&in=state:09")
	assert.True(t, strings.HasPrefix(u.lastQuery(), "get=NAME,B01001_001E,"))

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Fairfield County, Connecticut", list[0]["geography_name"])
	assert.Equal(t, float64(60), list[0]["owner_occupied_percent"])
	assert.Equal(t, float64(12), list[1]["owner_occupied_percent"])
}

func TestCountiesCommand_Table(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)

	out, err := runCLI(t, u, "counties", "--state", "09")
	require.NoError(t, err)
	assert.Contains(t, u.lastQuery(), "for=county:*&in=state:09")
	assert.Contains(t, out, "Geography Name")
	assert.Contains(t, out, "(2 rows)")
}

func TestTractsCommand_FiltersGEOID(t *testing.T) {
	u := newUpstream(t, http.StatusOK, tractsBody)

	out, err := runCLI(t, u, "tracts", "--state", "09", "09001240200", "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, u.lastQuery(), "for=tract:*&in=state:09")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "240200")
}

func TestFetchCommand_AliasAndContainment(t *testing.T) {
	u := newUpstream(t, http.StatusOK, tractsBody)

	_, err := runCLI(t, u, "fetch", "census_tract", "--state", "09", "--in", "county:001",
		"--variables", "NAME,B25001_001E", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, "get=NAME,B25001_001E&for=tract:*&in=state:09+county:001", u.lastQuery())
}

func TestFetchCommand_UpstreamError(t *testing.T) {
	u := newUpstream(t, http.StatusBadRequest, "error: unknown variable 'B99999_001E'")

	_, err := runCLI(t, u, "fetch", "county", "--state", "09", "--variables", "B99999_001E")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variable 'B99999_001E'")
}

func TestFetchCommand_InvalidState(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)

	_, err := runCLI(t, u, "fetch", "county", "--state", "CT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid state FIPS code")
	assert.Empty(t, u.lastQuery())
}

func TestFetchCommand_XLSXNeedsOut(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)

	_, err := runCLI(t, u, "fetch", "county", "--state", "09", "-f", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --out")
}

func TestFetchCommand_XLSXToFile(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)
	path := filepath.Join(t.TempDir(), "counties.xlsx")

	_, err := runCLI(t, u, "fetch", "county", "--state", "09", "-f", "xlsx", "-o", path)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 3)
}

func TestVariablesCommand(t *testing.T) {
	u := newUpstream(t, http.StatusOK, "")

	out, err := runCLI(t, u, "variables", "-f", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "field"}, rows[0])
	assert.Equal(t, []string{"NAME", "geography_name"}, rows[1])
	assert.Len(t, rows, len(acs.Catalog())+1)
	assert.Empty(t, u.lastQuery())
}

func TestLoadAndRecordsCommands(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)
	t.Setenv("ACS_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "load.db"))

	out, err := runCLI(t, u, "load", "county", "--state", "09")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 records")

	// Loading again replaces rather than duplicates.
	_, err = runCLI(t, u, "load", "county", "--state", "09")
	require.NoError(t, err)

	out, err = runCLI(t, u, "records", "-f", "json")
	require.NoError(t, err)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "09001", list[0]["geo_id"])
	assert.Equal(t, "county", list[0]["geography"])
	assert.Equal(t, "Fairfield County, Connecticut", list[0]["geography_name"])
}

func TestStoredResult_Columns(t *testing.T) {
	u := newUpstream(t, http.StatusOK, countiesBody)
	t.Setenv("ACS_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "cols.db"))

	_, err := runCLI(t, u, "load", "county", "--state", "09", "--variables", "NAME,B25001_001E")
	require.NoError(t, err)

	out, err := runCLI(t, u, "records", "--geography", "county", "-f", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"geo_id", "geography", "batch_id"}, rows[0][:3])
}
