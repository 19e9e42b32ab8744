// Package winapi is the OS collaborator the process-scan engine is built
// against: a small abstraction over the Windows calls needed to inspect a
// foreign address space (VirtualQueryEx, ReadProcessMemory,
// EnumProcessModulesEx, QueryWorkingSet) plus the handful of process-identity
// calls the engine needs to decide whether it is about to scan itself.
//
// The engine never imports golang.org/x/sys/windows directly; it only sees
// the Querier interface and the portable types below. That keeps
// internal/engine buildable and testable on any host, with the real
// implementation living in winapi_windows.go behind a build tag.
package winapi

import "errors"

// ErrInvalidParameter is returned by VirtualQuery when addr falls outside
// the target's address space — an expected outcome when probing near the
// edges of memory, not a fault.
var ErrInvalidParameter = errors.New("winapi: address not present in target process")

// ErrUnsupportedPlatform is returned by every error-returning method of the
// stub implementation used on non-Windows hosts.
var ErrUnsupportedPlatform = errors.New("winapi: not supported on this platform")

// ErrBadLength mirrors ERROR_BAD_LENGTH, the expected outcome of probing
// QueryWorkingSet with a too-small buffer.
var ErrBadLength = errors.New("winapi: buffer too small for working set query")

// Handle is an opaque OS handle: a process handle or a module handle,
// depending on context. It is never dereferenced by the engine.
type Handle uintptr

// Protection is a bitset of access rights reported for a memory region.
// Named per §6 of the spec: the abstraction exposes R, W, X and the
// composites RWX/RX; callers never need the raw Windows PAGE_* constants.
type Protection uint32

const (
	ProtR Protection = 1 << iota
	ProtW
	ProtX
)

const (
	ProtRWX = ProtR | ProtW | ProtX
	ProtRX  = ProtR | ProtX
)

// HasExec reports whether p carries any form of execute permission.
func (p Protection) HasExec() bool {
	return p&ProtX != 0
}

// MappingType classifies the kind of allocation backing a region.
type MappingType int

const (
	MappingUnknown MappingType = iota
	MappingImage               // backed by a mapped PE image (a listed module)
	MappingMapped              // backed by a non-image file mapping
	MappingPrivate             // anonymous private memory
)

func (m MappingType) String() string {
	switch m {
	case MappingImage:
		return "image"
	case MappingMapped:
		return "mapped"
	case MappingPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// ModulesFilter selects which architecture of module EnumModules should
// return, mirroring EnumProcessModulesEx's LIST_MODULES_* flags.
type ModulesFilter int

const (
	FilterAll ModulesFilter = iota
	FilterX86Only
	FilterX64Only
)

// PageInfo is the OS-reported metadata for one virtual-memory region,
// as returned by VirtualQueryEx.
type PageInfo struct {
	InitialProtect Protection
	CurrentProtect Protection
	MappingType    MappingType
	RegionStart    uintptr
	RegionEnd      uintptr
}

// WorkingSetEntry is one resident page as reported by QueryWorkingSet.
type WorkingSetEntry struct {
	VirtualPage uintptr
	Protection  Protection
}

// ModuleInfo is the subset of a listed module's OS-reported identity the
// engine needs: where its on-disk file lives and how large its image is.
type ModuleInfo struct {
	Path        string
	SizeOfImage uint32
}

// Querier is the OS collaborator contract (§6). A real implementation is
// provided per-platform; tests use an in-package fake.
type Querier interface {
	// VirtualQuery returns the region containing addr. It returns
	// ErrInvalidParameter when addr lies outside the target's address
	// space — callers must treat that distinctly from other errors.
	VirtualQuery(handle Handle, addr uintptr) (PageInfo, error)

	// ReadRemote attempts a single, all-or-nothing read of exactly size
	// bytes starting at addr. It never returns a short buffer: either it
	// returns size bytes with a nil error, or it returns an error.
	ReadRemote(handle Handle, addr uintptr, size int) ([]byte, error)

	// EnumModules lists the module handles loaded in the target process
	// matching filter.
	EnumModules(handle Handle, filter ModulesFilter) ([]Handle, error)

	// QueryWorkingSet returns every resident page in the target process.
	QueryWorkingSet(handle Handle) ([]WorkingSetEntry, error)

	// PageSize returns the OS page size.
	PageSize() uintptr

	// CurrentPID returns the calling process's PID.
	CurrentPID() uint32

	// PIDOf returns the PID owning handle.
	PIDOf(handle Handle) (uint32, error)

	// ModuleInfo returns the on-disk path and image size for the module
	// handle mod within the target process handle.
	ModuleInfo(handle Handle, mod Handle) (ModuleInfo, error)

	// OpenProcess resolves pid to a live process handle with the rights
	// the engine needs (query information, read and operate on its
	// virtual memory). The caller owns the returned handle and must pass
	// it to CloseHandle when done.
	OpenProcess(pid uint32) (Handle, error)

	// CloseHandle releases a handle obtained from OpenProcess.
	CloseHandle(handle Handle) error
}
