package engine

import (
	"context"
	"testing"

	"github.com/memsieve/pescan/internal/winapi"
)

func TestEngine_ScanRemote_ZeroPIDIsFatal(t *testing.T) {
	q := newFakeQuerier()
	e := New(q, newFakeParser(), nil)

	outcome := e.ScanRemote(context.Background(), ScanArgs{PID: 0})
	if outcome.Ok() {
		t.Fatal("expected a zero PID to be fatal")
	}
}

func TestEngine_ScanRemote_OpenFailureIsFatal(t *testing.T) {
	q := newFakeQuerier()
	q.openErr = winapi.ErrInvalidParameter
	e := New(q, newFakeParser(), nil)

	outcome := e.ScanRemote(context.Background(), ScanArgs{PID: 123})
	if outcome.Ok() {
		t.Fatal("expected an OpenProcess failure to be fatal")
	}
}

func TestEngine_ScanRemote_EmptyTargetProducesEmptyReport(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 999
	q.pidOf = 123
	e := New(q, newFakeParser(), nil)

	outcome := e.ScanRemote(context.Background(), ScanArgs{PID: 123})
	if !outcome.Ok() {
		t.Fatalf("expected success, got fatal: %s", outcome.Fatal)
	}
	if outcome.Report == nil {
		t.Fatal("expected a non-nil report")
	}
	if outcome.Report.PID != 123 {
		t.Fatalf("expected report for pid 123, got %d", outcome.Report.PID)
	}
}

func TestEngine_ScanRemote_ModulePhaseFindingsSurface(t *testing.T) {
	q := newFakeQuerier()
	q.currentPID = 999
	q.pidOf = 123
	q.moduleOrder = []winapi.Handle{0x70000}
	q.modules[0x70000] = winapi.ModuleInfo{Path: `C:\app.exe`, SizeOfImage: 256}
	header := buildHeader(0x8664, 256, 0x22)
	q.remote[0x70000] = header

	parser := newFakeParser()
	parser.originals[`C:\app.exe`] = header

	e := New(q, parser, nil)
	outcome := e.ScanRemote(context.Background(), ScanArgs{PID: 123})
	if !outcome.Ok() {
		t.Fatalf("expected success, got fatal: %s", outcome.Fatal)
	}

	foundHeaders := false
	for _, f := range outcome.Report.Findings() {
		if _, ok := f.(HeadersScan); ok {
			foundHeaders = true
		}
	}
	if !foundHeaders {
		t.Fatal("expected a HeadersScan finding from the module phase")
	}
}
