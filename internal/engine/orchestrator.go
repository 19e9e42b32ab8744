package engine

import (
	"context"
	"fmt"

	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
)

// scanState is the orchestrator's state machine (§4.8).
type scanState int

const (
	stateInit scanState = iota
	stateModules
	stateWorkingSet
	stateDone
)

// Outcome is the engine's exception-to-result boundary (§9): ScanRemote
// never panics across this boundary, it returns either a completed report
// or a fatal message explaining why no report could be produced at all. A
// partial failure during either phase is recorded as Summary.Errors on an
// otherwise-returned report, not as a fatal Outcome. The Outcome is fatal
// only for a zero PID, a target process that cannot be opened, or when
// neither phase ran to completion.
type Outcome struct {
	Report *ProcessReport
	Fatal  string
}

// Ok reports whether the scan produced a report at all.
func (o Outcome) Ok() bool { return o.Fatal == "" }

// Engine is the orchestrator (component J): it owns the OS and
// executable-format collaborators and drives the module scanner and the
// working-set scanner over one target process.
type Engine struct {
	q      winapi.Querier
	parser peformat.Parser
	log    Logger
}

// New builds an Engine. log may be nil, in which case NopLogger is used.
func New(q winapi.Querier, parser peformat.Parser, log Logger) *Engine {
	if log == nil {
		log = NopLogger{}
	}
	return &Engine{q: q, parser: parser, log: log}
}

// ScanRemote runs both scan phases against args.PID and returns the
// resulting Outcome (§4.8).
//
// The module phase and the working-set phase are independent failure
// domains: a failure in one (its module list can't be enumerated, a panic
// is recovered) does not prevent the other from running. The scan is
// wholly fatal when the target process handle can't be obtained, or when
// neither phase completes (each was cut short by a panic or a cancelled
// ctx) — every other failure degrades to Summary.Errors on a returned
// report instead (the bug this orchestration
// fixes: an earlier design let a working-set failure mask findings the
// module scan had already produced, and vice versa).
func (e *Engine) ScanRemote(ctx context.Context, args ScanArgs) Outcome {
	if args.PID == 0 {
		return Outcome{Fatal: "pid must be nonzero"}
	}
	handle, err := e.q.OpenProcess(args.PID)
	if err != nil {
		return Outcome{Fatal: fmt.Sprintf("open process %d: %v", args.PID, err)}
	}
	defer e.q.CloseHandle(handle)

	report := NewProcessReport(args.PID)
	reader := NewRemoteReader(e.q)

	state := stateInit
	var modulesScanned, workingSetScanned bool

	state = stateModules
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Warnf("module scan panicked: %v", r)
				report.Summary.Errors++
			}
		}()
		handles := EnumModules(e.q, handle, args.ModulesFilter, report)
		if ctx.Err() != nil {
			return
		}
		scanner := NewModuleScanner(e.q, e.parser, reader, e.log)
		scanner.ScanModules(handle, handles, args, report)
		modulesScanned = true
	}()

	state = stateWorkingSet
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Warnf("working set scan panicked: %v", r)
				report.Summary.Errors++
			}
		}()
		if ctx.Err() != nil {
			return
		}
		pages := NewMemPageScanner(e.q, e.parser, reader, args.DeepScan, e.log)
		ws := NewWorkingSetScanner(e.q, pages, e.log)
		ws.ScanWorkingSet(handle, report)
		workingSetScanned = true
	}()
	state = stateDone

	if !modulesScanned && !workingSetScanned {
		return Outcome{Fatal: fmt.Sprintf("both scan phases failed for pid %d (state=%d)", args.PID, state)}
	}

	return Outcome{Report: report}
}
