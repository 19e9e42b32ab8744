package engine

import (
	"testing"

	"github.com/memsieve/pescan/internal/winapi"
)

func TestWorkingSetScanner_SkipsSelf(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 42
	q.pidOf = 42
	q.workingSet = []winapi.WorkingSetEntry{{VirtualPage: 0x1000}}

	report := NewProcessReport(42)
	pages := NewMemPageScanner(q, newFakeParser(), NewRemoteReader(q), false, &fakeLogger{})
	ws := NewWorkingSetScanner(q, pages, &fakeLogger{})
	ws.ScanWorkingSet(winapi.Handle(42), report)

	if len(report.Findings()) != 0 {
		t.Fatal("expected no findings when scanning the caller's own process")
	}
}

func TestWorkingSetScanner_SkipsListedModulePages(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 1
	q.pidOf = 7
	q.workingSet = []winapi.WorkingSetEntry{{VirtualPage: 0x5000}}
	q.pages[0x5000] = winapi.PageInfo{
		InitialProtect: winapi.ProtR | winapi.ProtX,
		CurrentProtect: winapi.ProtR | winapi.ProtX,
		MappingType:    winapi.MappingImage,
		RegionStart:    0x5000,
		RegionEnd:      0x6000,
	}

	report := NewProcessReport(7)
	report.AppendReport(HeadersScan{Module: winapi.Handle(0x5000), ScanStatus: StatusNotSuspicious})

	pages := NewMemPageScanner(q, newFakeParser(), NewRemoteReader(q), false, &fakeLogger{})
	ws := NewWorkingSetScanner(q, pages, &fakeLogger{})
	ws.ScanWorkingSet(winapi.Handle(7), report)

	findings := report.Findings()
	if len(findings) != 1 {
		t.Fatalf("expected only the original HeadersScan finding, got %d", len(findings))
	}
}

// TestWorkingSetScanner_NoHeaderExecutablePageIsNotImplanted is Scenario D:
// a bare MappingPrivate RX page with no PE header and no shellcode
// signature backing it must produce neither a MemPageScan finding nor an
// Implanted count — the page scanner's step 6 returns none for it
// regardless of its execute bit.
func TestWorkingSetScanner_NoHeaderExecutablePageIsNotImplanted(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 1
	q.pidOf = 7
	q.workingSet = []winapi.WorkingSetEntry{{VirtualPage: 0x6000, Protection: winapi.ProtR | winapi.ProtX}}
	q.pages[0x6000] = winapi.PageInfo{
		InitialProtect: winapi.ProtR | winapi.ProtW,
		CurrentProtect: winapi.ProtR | winapi.ProtX,
		MappingType:    winapi.MappingPrivate,
		RegionStart:    0x6000,
		RegionEnd:      0x7000,
	}

	report := NewProcessReport(7)
	pages := NewMemPageScanner(q, newFakeParser(), NewRemoteReader(q), false, &fakeLogger{})
	ws := NewWorkingSetScanner(q, pages, &fakeLogger{})
	ws.ScanWorkingSet(winapi.Handle(7), report)

	if report.Summary.Implanted != 0 {
		t.Fatalf("expected Implanted=0 for a page with no located PE header, got %d", report.Summary.Implanted)
	}
	if len(report.Findings()) != 0 {
		t.Fatalf("expected no MemPageScan finding for a page with no located PE header, got %d", len(report.Findings()))
	}
}

// TestWorkingSetScanner_ImplantedCounterIncrementsOnPlantedModule covers the
// genuine Scenario C case: a private executable page whose start carries a
// located PE header whose module has an executable section is a planted
// module and increments Implanted.
func TestWorkingSetScanner_ImplantedCounterIncrementsOnPlantedModule(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 1
	q.pidOf = 7
	q.workingSet = []winapi.WorkingSetEntry{{VirtualPage: 0x6000, Protection: winapi.ProtR | winapi.ProtX}}
	q.pages[0x6000] = winapi.PageInfo{
		InitialProtect: winapi.ProtR | winapi.ProtW,
		CurrentProtect: winapi.ProtR | winapi.ProtX,
		MappingType:    winapi.MappingPrivate,
		RegionStart:    0x6000,
		RegionEnd:      0x7000,
	}
	q.remote[0x6000] = append([]byte{'M', 'Z'}, make([]byte, 0x1000-2)...)

	report := NewProcessReport(7)
	parser := newFakeParser()
	parser.hasExecSection = true
	pages := NewMemPageScanner(q, parser, NewRemoteReader(q), false, &fakeLogger{})
	ws := NewWorkingSetScanner(q, pages, &fakeLogger{})
	ws.ScanWorkingSet(winapi.Handle(7), report)

	if report.Summary.Implanted != 1 {
		t.Fatalf("expected Implanted=1, got %d", report.Summary.Implanted)
	}
}
