package engine

import (
	"github.com/memsieve/pescan/internal/hollow"
	"github.com/memsieve/pescan/internal/hook"
	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
)

// maxModules bounds EnumModules results the same way the original scanner
// bounds its module-handle buffer.
const maxModules = 1024

// EnumModules lists the modules loaded in target matching filter,
// counting a query failure as one Errors increment rather than aborting
// the whole scan — a single failed enumeration call should not prevent
// the working-set phase from running (§4.8 independent-failure-domain
// design).
func EnumModules(q winapi.Querier, target winapi.Handle, filter winapi.ModulesFilter, report *ProcessReport) []winapi.Handle {
	handles, err := q.EnumModules(target, filter)
	if err != nil {
		report.Summary.Errors++
		return nil
	}
	if len(handles) > maxModules {
		handles = handles[:maxModules]
	}
	return handles
}

// ModuleScanner is the module scanner (component H): walks every listed
// module, compares it against its on-disk original for process hollowing,
// and — unless suppressed — for inline code hooks.
type ModuleScanner struct {
	q      winapi.Querier
	parser peformat.Parser
	reader *RemoteReader
	log    Logger
}

// NewModuleScanner builds a ModuleScanner.
func NewModuleScanner(q winapi.Querier, parser peformat.Parser, reader *RemoteReader, log Logger) *ModuleScanner {
	return &ModuleScanner{q: q, parser: parser, reader: reader, log: log}
}

// ScanModules implements the §4.6 eight-step sequence for every handle in
// handles, appending findings to report.
func (s *ModuleScanner) ScanModules(target winapi.Handle, handles []winapi.Handle, args ScanArgs, report *ProcessReport) {
	var exports *peformat.ExportsMap
	if args.ImpRec {
		exports = peformat.NewExportsMap()
		report.ExportsMap = exports
	}

	for _, handle := range handles {
		s.scanOne(target, handle, args, report, exports)
	}
}

func (s *ModuleScanner) scanOne(target, handle winapi.Handle, args ScanArgs, report *ProcessReport, exports *peformat.ExportsMap) {
	// Step 1: every enumerated handle counts toward scanned, unconditionally
	// — mirroring the reference scanner's `for (...; counter++,
	// report.scanned++)`, whose increment clause runs regardless of any
	// `continue` taken in the loop body.
	report.Summary.Scanned++

	mod, err := NewModuleDescriptor(s.q, target, handle)
	if err != nil {
		report.Summary.Errors++
		return
	}
	s.log.Infof("scanning module %s", mod.ModulePath)

	// Step 2: load the on-disk original. An unreachable file is reported
	// distinctly, not as a scan error — the module may legitimately no
	// longer be on disk (deleted installer, network share gone away).
	if !mod.LoadOriginal(s.parser) {
		report.AppendReport(UnreachableModule{Module: handle, ModulePath: mod.ModulePath})
		report.Summary.Detached++
		return
	}

	// Step 3: managed modules are not native PE layouts; skip them.
	if mod.IsDotNet {
		report.Summary.Skipped++
		return
	}

	// Step 4: build the remote view of the module's headers.
	remote, ok := NewRemoteModuleDescriptor(s.q, target, mod, s.reader)
	if !ok {
		report.Summary.Errors++
		return
	}

	// Step 5 + hollowing: compare headers, with at most one retry after
	// ReloadAlternateView on an architecture mismatch.
	hollowed := s.scanForHollows(mod, remote, report)

	// Step 6: exports map registration, when import reconstruction was
	// requested.
	if exports != nil {
		exports.Add(mod.ModulePath, mod.BaseAddress, mod.BaseAddress)
	}

	// Step 7 + 8: hook scan, skipped when the module was already flagged
	// hollowed (its headers don't match its original at all, so a code
	// diff adds no information) or when hooks were explicitly suppressed.
	if hollowed || args.NoHooks {
		return
	}
	s.scanForHooks(mod, remote, report)
}

func (s *ModuleScanner) scanForHollows(mod *ModuleDescriptor, remote *RemoteModuleDescriptor, report *ProcessReport) (hollowed bool) {
	result := hollow.Scan(remote.Headers(), mod.LoadedOriginal)
	if result.ArchMismatch && mod.ReloadAlternateView(s.parser) {
		result = hollow.Scan(remote.Headers(), mod.LoadedOriginal)
	}

	report.AppendReport(HeadersScan{
		Module:       mod.Handle,
		ModulePath:   mod.ModulePath,
		ScanStatus:   hollowStatus(result.Status),
		ArchMismatch: result.ArchMismatch,
	})

	switch result.Status {
	case hollow.Suspicious:
		report.Summary.Replaced++
		return true
	case hollow.Error:
		report.Summary.Errors++
		return false
	default:
		return false
	}
}

func (s *ModuleScanner) scanForHooks(mod *ModuleDescriptor, remote *RemoteModuleDescriptor, report *ProcessReport) {
	if !remote.HasExecutableSection(s.parser) {
		return
	}

	n := len(remote.Headers())
	if len(mod.LoadedOriginal) < n {
		n = len(mod.LoadedOriginal)
	}
	result := hook.Scan(remote.Headers()[:n], mod.LoadedOriginal[:n])

	report.AppendReport(CodeScan{
		Module:        mod.Handle,
		ModulePath:    mod.ModulePath,
		ScanStatus:    hookStatus(result.Status),
		Modifications: result.Modifications,
	})

	switch result.Status {
	case hook.Suspicious:
		report.Summary.Hooked++
	case hook.Error:
		report.Summary.Errors++
	}
}
