package hollow

import "testing"

func buildHeader(machine uint16, fill byte) []byte {
	buf := make([]byte, 0x80)
	for i := range buf {
		buf[i] = fill
	}
	// e_lfanew at 0x3C points at the NT header.
	buf[0x3C], buf[0x3D], buf[0x3E], buf[0x3F] = 0x40, 0, 0, 0
	nt := buf[0x40:]
	nt[0], nt[1], nt[2], nt[3] = 'P', 'E', 0, 0
	nt[machineOffset] = byte(machine)
	nt[machineOffset+1] = byte(machine >> 8)
	return buf
}

func TestScan_TooShortIsError(t *testing.T) {
	report := Scan([]byte{1, 2, 3}, buildHeader(0x8664, 0xAA))
	if report.Status != Error {
		t.Fatalf("expected Error, got %v", report.Status)
	}
}

func TestScan_ArchMismatchIsSuspicious(t *testing.T) {
	remote := buildHeader(0x014C, 0xAA)
	original := buildHeader(0x8664, 0xAA)
	report := Scan(remote, original)
	if report.Status != Suspicious || !report.ArchMismatch {
		t.Fatalf("expected suspicious arch mismatch, got %+v", report)
	}
}

func TestScan_IdenticalHeadersAreNotSuspicious(t *testing.T) {
	header := buildHeader(0x8664, 0xAA)
	report := Scan(header, append([]byte(nil), header...))
	if report.Status != NotSuspicious {
		t.Fatalf("expected NotSuspicious, got %+v", report)
	}
}

func TestScan_HeavilyModifiedHeaderIsSuspicious(t *testing.T) {
	remote := buildHeader(0x8664, 0xAA)
	original := buildHeader(0x8664, 0xBB)
	report := Scan(remote, original)
	if report.Status != Suspicious {
		t.Fatalf("expected Suspicious for a heavily differing header, got %+v", report)
	}
}

func TestScan_FewDifferingBytesIsNotSuspicious(t *testing.T) {
	remote := buildHeader(0x8664, 0xAA)
	original := append([]byte(nil), remote...)
	original[0x50] ^= 0xFF
	report := Scan(remote, original)
	if report.Status != NotSuspicious {
		t.Fatalf("expected a single differing byte to stay NotSuspicious, got %+v", report)
	}
}
