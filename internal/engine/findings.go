package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/memsieve/pescan/internal/hollow"
	"github.com/memsieve/pescan/internal/hook"
	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
)

// Status is the categorical finding status (§1: no heuristic scoring).
type Status int

const (
	StatusNotSuspicious Status = iota
	StatusSuspicious
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotSuspicious:
		return "not_suspicious"
	case StatusSuspicious:
		return "suspicious"
	default:
		return "error"
	}
}

// Finding is the tagged-variant interface every report type satisfies
// (§9: "represent as a tagged variant with a common status() accessor").
type Finding interface {
	Status() Status
}

// HeadersScan is produced by the hollowing scanner for one listed module.
type HeadersScan struct {
	Module       winapi.Handle
	ModulePath   string
	ScanStatus   Status
	ArchMismatch bool
}

func (f HeadersScan) Status() Status { return f.ScanStatus }

// CodeScan is produced by the hook scanner for one listed module.
type CodeScan struct {
	Module        winapi.Handle
	ModulePath    string
	ScanStatus    Status
	Modifications []hook.Modification
}

func (f CodeScan) Status() Status { return f.ScanStatus }

// MemPageScan is produced by the memory-page scanner for one anonymous or
// mapped region.
type MemPageScan struct {
	Base            uintptr
	ScanStatus      Status
	IsExecutable    bool
	IsManuallyLoaded bool
	Protection      winapi.Protection
}

func (f MemPageScan) Status() Status { return f.ScanStatus }

// UnreachableModule is produced when a listed module's on-disk file could
// not be loaded.
type UnreachableModule struct {
	Module     winapi.Handle
	ModulePath string
}

func (f UnreachableModule) Status() Status { return StatusError }

// Summary is the monotonically-increasing tally of a scan in progress.
type Summary struct {
	Scanned   int
	Errors    int
	Skipped   int
	Detached  int
	Replaced  int
	Hooked    int
	Implanted int
}

// ProcessReport owns the append-only list of findings for one scan plus
// the running Summary and an optional exports map (§3).
type ProcessReport struct {
	PID       uint32
	SessionID string
	Summary   Summary

	mu         sync.Mutex
	findings   []Finding
	moduleBase map[uintptr]winapi.Handle

	ExportsMap *peformat.ExportsMap
}

// NewProcessReport returns an empty report for pid, tagged with a fresh
// session ID (§3's ScanSession) so repeated scans of the same pid can be
// told apart in stored or streamed output.
func NewProcessReport(pid uint32) *ProcessReport {
	return &ProcessReport{
		PID:        pid,
		SessionID:  uuid.NewString(),
		moduleBase: make(map[uintptr]winapi.Handle),
	}
}

// AppendReport adds f to the findings list and, if f concerns a module
// handle at a known base address, records that base as covered so the
// working-set scanner can recognize it (the invariant in §3 that a memory
// page at a listed module's base address never duplicates a finding).
func (r *ProcessReport) AppendReport(f Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, f)
	switch v := f.(type) {
	case HeadersScan:
		r.moduleBase[uintptr(v.Module)] = v.Module
	case UnreachableModule:
		r.moduleBase[uintptr(v.Module)] = v.Module
	}
}

// HasModule reports whether base is the base address of a module already
// recorded in this report (via a HeadersScan or UnreachableModule
// finding).
func (r *ProcessReport) HasModule(base uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.moduleBase[base]
	return ok
}

// Findings returns the findings recorded so far, in append order.
func (r *ProcessReport) Findings() []Finding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	return out
}

func hollowStatus(s hollow.Status) Status {
	switch s {
	case hollow.Suspicious:
		return StatusSuspicious
	case hollow.Error:
		return StatusError
	default:
		return StatusNotSuspicious
	}
}

func hookStatus(s hook.Status) Status {
	switch s {
	case hook.Suspicious:
		return StatusSuspicious
	case hook.Error:
		return StatusError
	default:
		return StatusNotSuspicious
	}
}
