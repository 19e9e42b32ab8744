// Package output is the process-scanner's presentation layer: it holds
// the global --json/--quiet/--verbose mode set by the root command's
// PersistentPreRunE, and renders a ProcessReport either as a JSON
// envelope or as a human-readable summary.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/memsieve/pescan/internal/engine"
)

// Exit codes returned by the scan command.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitSuspicious   = 2
	ExitBadArguments = 3
)

var (
	flagJSON    bool
	flagQuiet   bool
	flagVerbose bool
)

// SetFlags is called by the root command's PersistentPreRunE to
// propagate flag values set on the command line.
func SetFlags(jsonMode, quiet, verbose bool) {
	flagJSON = jsonMode
	flagQuiet = quiet
	flagVerbose = verbose
}

// IsJSON returns true when --json mode is active.
func IsJSON() bool { return flagJSON }

// IsQuiet returns true when --quiet mode is active.
func IsQuiet() bool { return flagQuiet }

// IsVerbose returns true when --verbose mode is active.
func IsVerbose() bool { return flagVerbose }

// PrintJSON marshals v as JSON and writes it to w.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintError writes a JSON error envelope to w.
func PrintError(w io.Writer, code string, message string) error {
	return PrintJSON(w, map[string]string{
		"error":   code,
		"message": message,
	})
}

// reportEnvelope is the JSON shape of a finished scan.
type reportEnvelope struct {
	PID       uint32            `json:"pid"`
	SessionID string            `json:"session_id"`
	Summary   engine.Summary    `json:"summary"`
	Findings  []findingEnvelope `json:"findings"`
}

type findingEnvelope struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Detail any    `json:"detail"`
}

// PrintReport writes report to w, as a JSON envelope when IsJSON is set
// or as a human-readable summary otherwise.
func PrintReport(w io.Writer, report *engine.ProcessReport) error {
	if IsJSON() {
		return PrintJSON(w, toEnvelope(report))
	}
	return printText(w, report)
}

func toEnvelope(report *engine.ProcessReport) reportEnvelope {
	findings := report.Findings()
	out := reportEnvelope{
		PID:       report.PID,
		SessionID: report.SessionID,
		Summary:   report.Summary,
		Findings:  make([]findingEnvelope, 0, len(findings)),
	}
	for _, f := range findings {
		out.Findings = append(out.Findings, findingEnvelope{
			Type:   findingType(f),
			Status: f.Status().String(),
			Detail: f,
		})
	}
	return out
}

func findingType(f engine.Finding) string {
	switch f.(type) {
	case engine.HeadersScan:
		return "headers_scan"
	case engine.CodeScan:
		return "code_scan"
	case engine.MemPageScan:
		return "mem_page_scan"
	case engine.UnreachableModule:
		return "unreachable_module"
	default:
		return "unknown"
	}
}

func printText(w io.Writer, report *engine.ProcessReport) error {
	s := report.Summary
	fmt.Fprintf(w, "pid %d (session %s): scanned=%d errors=%d skipped=%d detached=%d replaced=%d hooked=%d implanted=%d\n",
		report.PID, report.SessionID, s.Scanned, s.Errors, s.Skipped, s.Detached, s.Replaced, s.Hooked, s.Implanted)

	if IsQuiet() {
		return nil
	}

	for _, f := range report.Findings() {
		if f.Status() == engine.StatusNotSuspicious && !IsVerbose() {
			continue
		}
		switch v := f.(type) {
		case engine.HeadersScan:
			fmt.Fprintf(w, "  [%s] headers %s (arch_mismatch=%v)\n", v.Status(), v.ModulePath, v.ArchMismatch)
		case engine.CodeScan:
			fmt.Fprintf(w, "  [%s] code %s (%d modifications)\n", v.Status(), v.ModulePath, len(v.Modifications))
		case engine.MemPageScan:
			fmt.Fprintf(w, "  [%s] page 0x%x (executable=%v manual=%v)\n", v.Status(), v.Base, v.IsExecutable, v.IsManuallyLoaded)
		case engine.UnreachableModule:
			fmt.Fprintf(w, "  [%s] unreachable %s\n", v.Status(), v.ModulePath)
		}
	}
	return nil
}
