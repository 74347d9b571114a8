package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unitconv/internal/config"
	"github.com/roach88/unitconv/internal/testutil"
)

var testEpoch = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// cliEnv runs commands against one database with a shared deterministic clock.
type cliEnv struct {
	t     *testing.T
	db    string
	clock *testutil.StepClock
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvDatabase, "")
	t.Setenv(config.EnvLogLevel, "")
	return &cliEnv{
		t:     t,
		db:    filepath.Join(t.TempDir(), "unitconv.db"),
		clock: testutil.NewStepClock(testEpoch, time.Second),
	}
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (e *cliEnv) run(args ...string) cliResult {
	e.t.Helper()
	return e.runWithDB(e.db, args...)
}

func (e *cliEnv) runWithDB(db string, args ...string) cliResult {
	e.t.Helper()

	opts := &RootOptions{
		RequestIDs: testutil.NewFixedIDGenerator("test-request-1"),
		Now:        e.clock.Now,
	}
	cmd := newRootCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if db != "" {
		args = append([]string{"--db", db}, args...)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	res := e.run(args...)
	require.NoError(e.t, res.err, "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return res.stdout
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCategories(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("categories")
	assert.Equal(t, "Length\nTemperature\nWeight\n", out)

	out = env.mustRun("--format", "json", "categories", "--details")
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-request-1", resp.TraceID)
	assert.Contains(t, out, `"description":"Units of temperature measurement"`)
}

func TestUnits(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("units", "Length")
	assert.Equal(t, "Centimeter\nKilometer\nMeter\nMile\n", out)

	out = env.mustRun("units", "Volume")
	assert.Empty(t, out, "unknown category lists nothing")
}

func TestUnits_DetailsGolden(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("units", "Temperature", "--details")

	newGolden(t).Assert(t, "units_temperature_details", []byte(out))
}

func TestUnits_NoCategoryWithoutDefault(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("units")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.True(t, IsReported(res.err))
	assert.Contains(t, res.stdout, "category is required")
}

func TestConvert_Text(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("convert", "1", "Kilometer", "Meter")
	assert.Equal(t, "1 Kilometer = 1000 Meter\n", out)
}

func TestConvert_JSONGolden(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("--format", "json", "convert", "1", "Kilometer", "Meter")

	newGolden(t).Assert(t, "convert_kilometer_meter", []byte(out))
}

func TestConvert_NegativeValueAfterDashes(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("convert", "--", "-40", "Celsius", "Fahrenheit")
	assert.Equal(t, "-40 Celsius = -40 Fahrenheit\n", out)
}

func TestConvert_Swap(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("convert", "--swap", "1000", "Kilometer", "Meter")
	assert.Equal(t, "1000 Meter = 1 Kilometer\n", out)
}

func TestConvert_Category(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("convert", "--category", "Weight", "2", "Kilogram", "Kilogram")
	assert.Equal(t, "2 Kilogram = 2 Kilogram\n", out)

	res := env.run("convert", "--category", "Length", "2", "Kilogram", "Gram")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error ["+ErrCodeUnitNotFound+"]")
}

func TestConvert_NoHistory(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun("convert", "--no-history", "1", "Kilometer", "Meter")

	resp := decodeResponse(t, env.mustRun("--format", "json", "history"))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["count"])
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"not a number", []string{"abc", "Meter", "Mile"}, ErrCodeInvalidInput, ExitFailure},
		{"empty value", []string{" ", "Meter", "Mile"}, ErrCodeInvalidInput, ExitFailure},
		{"unknown unit", []string{"1", "Furlong", "Meter"}, ErrCodeUnitNotFound, ExitFailure},
		{"category mismatch", []string{"1", "Meter", "Gram"}, ErrCodeCategoryMismatch, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)

			args := append([]string{"--format", "json", "convert"}, tt.args...)
			res := env.run(args...)

			require.Error(t, res.err)
			assert.Equal(t, tt.wantExit, GetExitCode(res.err))
			assert.True(t, IsReported(res.err))

			resp := decodeResponse(t, res.stdout)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			// Failed conversions never reach the history log.
			hist := decodeResponse(t, env.mustRun("--format", "json", "history"))
			assert.Equal(t, float64(0), hist.Data.(map[string]interface{})["count"])
		})
	}
}

func TestConvert_StorageUnavailable(t *testing.T) {
	env := newCLIEnv(t)
	db := filepath.Join(t.TempDir(), "missing", "dir", "unitconv.db")

	res := env.runWithDB(db, "convert", "1", "Kilometer", "Meter")

	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error ["+ErrCodeStorageUnavailable+"]")
}

func TestStorageFailureAfterOpen(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("convert", "1", "Kilometer", "Meter")

	// The database opens and migrates cleanly, but later queries fail.
	db, err := sql.Open("sqlite3", env.db)
	require.NoError(t, err)
	_, err = db.Exec("DROP TABLE history")
	require.NoError(t, err)
	_, err = db.Exec("DROP TABLE settings")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	for _, args := range [][]string{
		{"history"},
		{"history", "clear", "--yes"},
		{"settings"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			res := env.run(append([]string{"--format", "json"}, args...)...)

			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))
			assert.True(t, IsReported(res.err))

			resp := decodeResponse(t, res.stdout)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeStorageUnavailable, resp.Error.Code)
		})
	}
}

func TestHistory_Golden(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun("convert", "1", "Kilometer", "Meter")
	env.mustRun("convert", "100", "Celsius", "Kelvin")

	out := env.mustRun("history")

	newGolden(t).Assert(t, "history_table", []byte(out))
}

func TestHistory_Empty(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "No conversion history.\n", env.mustRun("history"))
}

func TestHistory_Filter(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun("convert", "1", "Kilometer", "Meter")
	env.mustRun("convert", "100", "Celsius", "Kelvin")
	env.mustRun("convert", "1500", "Meter", "Kilometer")

	resp := decodeResponse(t, env.mustRun("--format", "json", "history", "--filter", "KILO", "--field", "from_unit"))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])

	resp = decodeResponse(t, env.mustRun("--format", "json", "history", "--filter", "kilo"))
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])

	records := data["records"].([]interface{})
	newest := records[0].(map[string]interface{})
	assert.Equal(t, float64(3), newest["id"])
	assert.Equal(t, "Meter", newest["from_unit"])
	assert.Equal(t, 1.5, newest["result_value"])
	assert.Equal(t, "Length", newest["category_name"])
}

func TestHistory_UnknownField(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("history", "--field", "colour")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), "unknown history field")
}

func TestHistoryClear(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun("convert", "1", "Kilometer", "Meter")
	env.mustRun("convert", "2", "Kilometer", "Meter")

	res := env.run("history", "clear")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.err.Error(), "--yes")

	assert.Equal(t, "Cleared 2 history records\n", env.mustRun("history", "clear", "--yes"))
	assert.Equal(t, "No conversion history.\n", env.mustRun("history"))
}

func TestCatalogImport(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "pressure.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`categories:
  - name: Pressure
    units:
      - {name: Pascal, symbol: Pa, factor: 1}
      - {name: Bar, symbol: bar, factor: 100000}
  - name: Length
    units:
      - {name: Meter, factor: 1}
      - {name: Foot, symbol: ft, factor: 0.3048}
`), 0o644))

	out := env.mustRun("catalog", "import", path)
	assert.Equal(t, "Imported 1 categories, 3 units (1 already present)\n", out)

	assert.Equal(t, "Bar\nPascal\n", env.mustRun("units", "Pressure"))
	assert.Equal(t, "2 Bar = 200000 Pascal\n", env.mustRun("convert", "2", "Bar", "Pascal"))

	// Importing again adds nothing.
	out = env.mustRun("catalog", "import", path)
	assert.Equal(t, "Imported 0 categories, 0 units (4 already present)\n", out)
}

func TestCatalogValidate(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`categories:
  - name: Time
    units:
      - {name: Second, factor: 1}
      - {name: Minute, factor: 60}
`), 0o644))

	out := env.mustRun("catalog", "validate", good)
	assert.Equal(t, good+": 1 categories, 2 units\n", out)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`categories:
  - name: Time
    units:
      - {name: Never, factor: 0}
`), 0o644))

	res := env.run("--format", "json", "catalog", "validate", bad)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	resp := decodeResponse(t, res.stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidCatalog, resp.Error.Code)

	res = env.run("catalog", "validate", filepath.Join(dir, "absent.yaml"))
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestSettings(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "theme_mode: light\ndefault_category: (none)\n", env.mustRun("settings"))

	out := env.mustRun("settings", "theme", "dark")
	assert.Equal(t, "theme_mode: dark\ndefault_category: (none)\n", out)

	res := env.run("settings", "theme", "sepia")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	out = env.mustRun("settings", "default-category", "Length")
	assert.Equal(t, "theme_mode: dark\ndefault_category: Length\n", out)

	// units falls back to the default category.
	assert.Equal(t, "Centimeter\nKilometer\nMeter\nMile\n", env.mustRun("units"))

	res = env.run("settings", "default-category", "Volume")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	out = env.mustRun("settings", "default-category")
	assert.Equal(t, "theme_mode: dark\ndefault_category: (none)\n", out)
}

func TestConfigFile(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "unitconv.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+db+"\n"), 0o644))

	res := env.runWithDB("", "--config", cfgPath, "categories")
	require.NoError(t, res.err, res.stdout)

	_, err := os.Stat(db)
	assert.NoError(t, err, "database should be created at the configured path")
}

func TestVerboseLogsToStderr(t *testing.T) {
	env := newCLIEnv(t)

	res := env.run("--verbose", "--format", "json", "units", "Length")
	require.NoError(t, res.err)

	resp := decodeResponse(t, res.stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, res.stderr, "Listing units of Length")
	assert.Contains(t, res.stderr, "request_id=test-request-1")
}
