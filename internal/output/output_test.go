package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memsieve/pescan/internal/engine"
)

func TestPrintJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	err := PrintJSON(buf, map[string]string{"key": "value"})
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "value", result["key"])
}

func TestPrintError(t *testing.T) {
	buf := new(bytes.Buffer)
	err := PrintError(buf, "test_error", "something went wrong")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "test_error", result["error"])
	assert.Equal(t, "something went wrong", result["message"])
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitError)
	assert.Equal(t, 2, ExitSuspicious)
	assert.Equal(t, 3, ExitBadArguments)
}

func TestSetAndGetFlags(t *testing.T) {
	SetFlags(true, true, false)
	assert.True(t, IsJSON())
	assert.True(t, IsQuiet())
	assert.False(t, IsVerbose())

	SetFlags(false, false, true)
	assert.False(t, IsJSON())
	assert.False(t, IsQuiet())
	assert.True(t, IsVerbose())

	SetFlags(false, false, false)
}

func TestPrintReportJSON(t *testing.T) {
	SetFlags(true, false, false)
	defer SetFlags(false, false, false)

	report := engine.NewProcessReport(4242)
	report.AppendReport(engine.HeadersScan{ModulePath: `C:\evil.dll`, ScanStatus: engine.StatusSuspicious})

	buf := new(bytes.Buffer)
	require.NoError(t, PrintReport(buf, report))

	var env reportEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, uint32(4242), env.PID)
	assert.NotEmpty(t, env.SessionID)
	require.Len(t, env.Findings, 1)
	assert.Equal(t, "headers_scan", env.Findings[0].Type)
	assert.Equal(t, "suspicious", env.Findings[0].Status)
}

func TestPrintReportTextSkipsNotSuspiciousUnlessVerbose(t *testing.T) {
	SetFlags(false, false, false)
	defer SetFlags(false, false, false)

	report := engine.NewProcessReport(1)
	report.AppendReport(engine.MemPageScan{Base: 0x1000, ScanStatus: engine.StatusNotSuspicious})

	buf := new(bytes.Buffer)
	require.NoError(t, PrintReport(buf, report))
	assert.NotContains(t, buf.String(), "0x1000")

	SetFlags(false, false, true)
	buf.Reset()
	require.NoError(t, PrintReport(buf, report))
	assert.Contains(t, buf.String(), "0x1000")
}

func TestPrintReportTextQuietSkipsFindings(t *testing.T) {
	SetFlags(false, true, false)
	defer SetFlags(false, false, false)

	report := engine.NewProcessReport(1)
	report.AppendReport(engine.MemPageScan{Base: 0x2000, ScanStatus: engine.StatusSuspicious})

	buf := new(bytes.Buffer)
	require.NoError(t, PrintReport(buf, report))
	assert.NotContains(t, buf.String(), "0x2000")
	assert.Contains(t, buf.String(), "pid 1")
}
