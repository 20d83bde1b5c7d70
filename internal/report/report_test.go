package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conn-castle/c2-harness/internal/harness"
)

func sampleSummary() harness.Summary {
	return harness.Summary{
		StartedAt:     time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		SetUpDuration: 2500 * time.Millisecond,
		Results: []harness.Result{
			{Check: harness.CheckStart, Status: harness.StatusPass, Duration: 100 * time.Millisecond},
			{Check: harness.CheckGetComponents, Status: harness.StatusFail, Failures: []string{"component count: got 8, want 9"}, Duration: 200 * time.Millisecond},
		},
		TearDownErr:      errors.New("restore device files: read-only file system"),
		TearDownDuration: time.Second,
	}
}

func TestBuild(t *testing.T) {
	doc := Build(sampleSummary())
	assert.False(t, doc.Passed)
	assert.True(t, doc.SetUp.OK)
	assert.Equal(t, 2.5, doc.SetUp.DurationSeconds)
	assert.False(t, doc.TearDown.OK)
	assert.Contains(t, doc.TearDown.Error, "read-only")
	assert.Equal(t, Totals{Pass: 1, Fail: 1}, doc.Totals)
	require.Len(t, doc.Checks, 2)
	assert.Equal(t, "fail", doc.Checks[1].Status)
}

func TestWriteFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteFile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "getComponents", doc.Checks[1].Name)
	assert.Equal(t, []string{"component count: got 8, want 9"}, doc.Checks[1].Failures)
	assert.Contains(t, string(data), "passed: false")
}

func TestWriteFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.JSON")
	require.NoError(t, WriteFile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Totals.Fail)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestWriteFileUnknownExtension(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "report.xml"), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".xml")
}

func TestRegistry(t *testing.T) {
	reg := Registry(sampleSummary())
	expected := `
# HELP c2h_check_status 1 for the status each check ended in, 0 otherwise.
# TYPE c2h_check_status gauge
c2h_check_status{check="Start",status="fail"} 0
c2h_check_status{check="Start",status="pass"} 1
c2h_check_status{check="Start",status="skip"} 0
c2h_check_status{check="getComponents",status="fail"} 1
c2h_check_status{check="getComponents",status="pass"} 0
c2h_check_status{check="getComponents",status="skip"} 0
# HELP c2h_phase_ok 1 when the environment phase succeeded.
# TYPE c2h_phase_ok gauge
c2h_phase_ok{phase="setup"} 1
c2h_phase_ok{phase="teardown"} 0
# HELP c2h_run_passed 1 when setup succeeded and no check failed.
# TYPE c2h_run_passed gauge
c2h_run_passed 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"c2h_check_status", "c2h_phase_ok", "c2h_run_passed"))
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 14, count)
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c2h.prom")
	require.NoError(t, WriteMetrics(path, sampleSummary()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `c2h_check_duration_seconds{check="getComponents"} 0.2`)
	assert.Contains(t, string(data), "c2h_run_start_time_seconds 1.772600767e+09")
}
