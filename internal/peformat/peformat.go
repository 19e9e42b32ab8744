// Package peformat is the executable-format collaborator the engine is
// built against (§6 of the spec): locating a valid native executable header
// inside an arbitrary byte buffer, asking whether a module has at least one
// executable section, and loading an on-disk module image into a buffer
// shaped like its remote counterpart.
//
// The byte-level header/section-table walk is explicitly out of scope for
// the core per the spec's §1 — this package is the "external collaborator"
// whose interface contract the core depends on. A real implementation lives
// in peformat_windows.go; non-Windows builds get a stub so the engine and
// its tests build everywhere.
package peformat

import "errors"

// MaxHeaderSize bounds how much of a region the shellcode heuristic will
// read (the header locator reads up to twice this), mirroring peconv::MAX_HEADER_SIZE in the
// reference scanner this package's contract is modeled on.
const MaxHeaderSize = 0x1000

// ErrUnsupportedPlatform is returned by the stub parser used on non-Windows
// hosts for any operation that would require parsing a real PE image.
var ErrUnsupportedPlatform = errors.New("peformat: not supported on this platform")

// Parser is the executable-format collaborator contract. It operates on
// plain byte buffers so it can be exercised by engine tests without any OS
// dependency; the buffers themselves are produced by the engine's
// remote-memory reader (component A).
type Parser interface {
	// LocateNTHeader reports whether buf contains a valid native
	// executable header at offset 0. When deep is true, every offset
	// 0 <= i < MaxHeaderSize is tried in turn and the first hit wins.
	LocateNTHeader(buf []byte, deep bool) (offset int, ok bool)

	// HasExecutableSection reports whether the module whose headers and
	// section table are present in buf has at least one section marked
	// executable.
	HasExecutableSection(buf []byte) bool

	// LoadOriginalFile reads the on-disk module at path and lays it out
	// in a buffer shaped like the image the loader would produce at
	// base: sections placed at their virtual offsets. Relocation and
	// import fixups are not performed — they are out of scope for a
	// byte-level hollowing comparison, which only needs matching layout.
	LoadOriginalFile(path string, base uintptr) ([]byte, error)

	// IsDotNet reports whether the headers in buf describe a managed
	// (.NET) module, identified by a populated COM descriptor data
	// directory. Managed modules are skipped by the module scanner —
	// their in-memory layout is not a native PE and is out of scope.
	IsDotNet(buf []byte) bool
}

// ExportEntry records one resolved export: its address in the on-disk
// original and its address as loaded into the target.
type ExportEntry struct {
	OriginalBase uintptr
	RemoteBase   uintptr
}

// ExportsMap accumulates module exports by name, built only when a scan
// requests import reconstruction (ScanArgs.ImpRec).
type ExportsMap struct {
	entries map[string]ExportEntry
}

// NewExportsMap returns an empty map ready for Add.
func NewExportsMap() *ExportsMap {
	return &ExportsMap{entries: make(map[string]ExportEntry)}
}

// Add registers module as having been loaded at remoteBase, with its
// on-disk original mapped at originalBase.
func (m *ExportsMap) Add(module string, originalBase, remoteBase uintptr) {
	m.entries[module] = ExportEntry{OriginalBase: originalBase, RemoteBase: remoteBase}
}

// Lookup returns the recorded entry for module, if any.
func (m *ExportsMap) Lookup(module string) (ExportEntry, bool) {
	e, ok := m.entries[module]
	return e, ok
}

// Len returns the number of modules registered.
func (m *ExportsMap) Len() int {
	return len(m.entries)
}
