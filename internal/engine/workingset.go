package engine

import "github.com/memsieve/pescan/internal/winapi"

// WorkingSetScanner is the working-set scanner (component I): walks every
// resident page of the target process and runs the memory-page scanner
// (component E) over the ones not already attributed to a listed module.
type WorkingSetScanner struct {
	q       winapi.Querier
	pages   *MemPageScanner
	log     Logger
}

// NewWorkingSetScanner builds a WorkingSetScanner.
func NewWorkingSetScanner(q winapi.Querier, pages *MemPageScanner, log Logger) *WorkingSetScanner {
	return &WorkingSetScanner{q: q, pages: pages, log: log}
}

// ScanWorkingSet implements the §4.7 sequence:
//  1. a target that is the caller's own process is skipped outright —
//     scanning your own working set while the scan is running would
//     observe the scanner's own transient allocations;
//  2. call QueryWorkingSet once as a probe; ErrBadLength is accepted as
//     the expected "buffer too small" response, any other error is
//     counted in Summary.Errors and ends the phase;
//  3. call QueryWorkingSet again for the entries (the Querier sizes its
//     own buffer; the Windows implementation doubles its probed count to
//     tolerate growth), counting a failure in Summary.Errors and ending
//     the phase;
//  4. build a PageDescriptor per resident page with the entry's protection
//     bits recorded as BasicProtection, recognizing pages already covered
//     by a listed module via report.HasModule;
//  5. run the memory-page scanner over every page;
//  6. append a finding only when the scanner returns one (it returns none
//     for image-mapped pages and pages with nothing interesting to report,
//     §4.5 steps 2/4/6); tally Implanted when a reported finding is
//     suspicious and manually loaded.
func (s *WorkingSetScanner) ScanWorkingSet(target winapi.Handle, report *ProcessReport) {
	if pid, err := s.q.PIDOf(target); err == nil && pid == s.q.CurrentPID() {
		return
	}

	if _, err := s.q.QueryWorkingSet(target); err != nil && err != winapi.ErrBadLength {
		report.Summary.Errors++
		return
	}

	entries, err := s.q.QueryWorkingSet(target)
	if err != nil {
		report.Summary.Errors++
		return
	}

	for _, entry := range entries {
		page := &PageDescriptor{
			StartVA:         entry.VirtualPage,
			BasicProtection: entry.Protection,
			IsListedModule:  report.HasModule(entry.VirtualPage),
		}

		result, ok := s.pages.Scan(target, page)
		if !ok {
			continue
		}
		report.AppendReport(result)
		if result.ScanStatus == StatusSuspicious && result.IsManuallyLoaded {
			report.Summary.Implanted++
		}
	}
}
