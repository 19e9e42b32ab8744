package engine

import (
	"fmt"

	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
)

// ScanArgs configures one invocation of the engine (§3).
type ScanArgs struct {
	PID           uint32
	ModulesFilter winapi.ModulesFilter
	Quiet         bool
	NoHooks       bool
	ImpRec        bool
	DeepScan      bool
}

// PageDescriptor holds one virtual-memory region's OS-reported metadata.
// It is created with only StartVA known; FillInfo populates the rest via a
// single OS query and is idempotent (§4.2). Once filled, a descriptor is
// read-only — there is no mutation path back to "unfilled".
type PageDescriptor struct {
	StartVA         uintptr
	RequestedSize   int
	BasicProtection winapi.Protection
	IsListedModule  bool

	InitialProtect winapi.Protection
	CurrentProtect winapi.Protection
	MappingType    winapi.MappingType
	RegionStart    uintptr
	RegionEnd      uintptr

	infoFilled bool
}

// IsInfoFilled reports whether FillInfo has already succeeded.
func (p *PageDescriptor) IsInfoFilled() bool {
	return p.infoFilled
}

// FillInfo queries the OS for the region containing StartVA (§4.2). It is a
// no-op returning true if info was already filled. ErrInvalidParameter (the
// address lies outside the target's address space) is swallowed — it is an
// expected outcome of probing near the edges of memory, not a fault.
func (p *PageDescriptor) FillInfo(q winapi.Querier, handle winapi.Handle, log Logger) bool {
	if p.infoFilled {
		return true
	}
	info, err := q.VirtualQuery(handle, p.StartVA)
	if err != nil {
		if err != winapi.ErrInvalidParameter {
			log.Warnf("could not query page 0x%x: %v", p.StartVA, err)
		}
		return false
	}
	p.InitialProtect = info.InitialProtect
	p.CurrentProtect = info.CurrentProtect
	p.MappingType = info.MappingType
	p.RegionStart = info.RegionStart
	p.RegionEnd = info.RegionEnd
	p.infoFilled = true
	return true
}

// Arch identifies a module's processor architecture, as read from its
// headers.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86
	ArchX64
)

const (
	machineI386  = 0x014c
	machineAMD64 = 0x8664
)

func archFromMachine(machine uint16) Arch {
	switch machine {
	case machineI386:
		return ArchX86
	case machineAMD64:
		return ArchX64
	default:
		return ArchUnknown
	}
}

// ModuleDescriptor is one module listed in the target process (§3).
// LoadOriginal may fail — the file backing the module may no longer be
// reachable — and that failure becomes an UnreachableModule finding rather
// than an aborting error.
type ModuleDescriptor struct {
	Handle         winapi.Handle
	BaseAddress    uintptr
	SizeOfImage    uint32
	ModulePath     string
	LoadedOriginal []byte
	Arch           Arch
	IsDotNet       bool

	reloadedOnce bool
}

// NewModuleDescriptor resolves the path and image size for handle within
// the target process.
func NewModuleDescriptor(q winapi.Querier, target winapi.Handle, handle winapi.Handle) (*ModuleDescriptor, error) {
	info, err := q.ModuleInfo(target, handle)
	if err != nil {
		return nil, fmt.Errorf("module info for handle 0x%x: %w", handle, err)
	}
	return &ModuleDescriptor{
		Handle:      handle,
		BaseAddress: uintptr(handle),
		SizeOfImage: info.SizeOfImage,
		ModulePath:  info.Path,
	}, nil
}

// LoadOriginal maps the on-disk file backing the module into
// LoadedOriginal, shaped like the image at BaseAddress, and records the
// module's architecture and whether it is a managed (.NET) assembly.
func (m *ModuleDescriptor) LoadOriginal(parser peformat.Parser) bool {
	image, err := parser.LoadOriginalFile(m.ModulePath, m.BaseAddress)
	if err != nil || len(image) == 0 {
		return false
	}
	m.LoadedOriginal = image
	m.IsDotNet = parser.IsDotNet(image)
	if off, ok := parser.LocateNTHeader(image, false); ok {
		m.Arch = archFromHeader(image, off)
	}
	return true
}

func archFromHeader(buf []byte, off int) Arch {
	if off < 0 || off+0x40 > len(buf) {
		return ArchUnknown
	}
	header := buf[off:]
	ntOffset := int(le32(header[0x3C:]))
	if ntOffset < 0 || ntOffset+6 > len(header) {
		return ArchUnknown
	}
	machine := le16(header[ntOffset+4:])
	return archFromMachine(machine)
}

// ReloadAlternateView reloads the module's on-disk original once more
// (§3, §4.6 step 5). It calls LoadOriginal again through the same parser;
// no architecture is passed to the parser, so the reloaded image is laid
// out the same way as the first one. It runs at most once per module and
// returns false on any later call.
func (m *ModuleDescriptor) ReloadAlternateView(parser peformat.Parser) bool {
	if m.reloadedOnce {
		return false
	}
	m.reloadedOnce = true
	return m.LoadOriginal(parser)
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// RemoteModuleDescriptor is the in-memory counterpart of a ModuleDescriptor:
// on-demand reads of the live module's headers and section table, used to
// answer HasExecutableSection without re-reading on every call.
type RemoteModuleDescriptor struct {
	Handle      winapi.Handle
	BaseAddress uintptr
	SizeOfImage uint32

	headerCache []byte
}

// NewRemoteModuleDescriptor reads the live module's image — SizeOfImage
// bytes, or MaxHeaderSize bytes when SizeOfImage is 0 or above 4 MiB — so
// later queries (HasExecutableSection, Headers) are served from cache.
func NewRemoteModuleDescriptor(q winapi.Querier, target winapi.Handle, mod *ModuleDescriptor, reader *RemoteReader) (*RemoteModuleDescriptor, bool) {
	size := int(mod.SizeOfImage)
	if size == 0 || size > 4*1024*1024 {
		size = peformat.MaxHeaderSize
	}
	buf, ok := reader.Read(target, mod.BaseAddress, size)
	if !ok {
		return nil, false
	}
	return &RemoteModuleDescriptor{
		Handle:      mod.Handle,
		BaseAddress: mod.BaseAddress,
		SizeOfImage: mod.SizeOfImage,
		headerCache: buf,
	}, true
}

// Headers returns the cached header/section bytes read from the live
// module.
func (r *RemoteModuleDescriptor) Headers() []byte {
	return r.headerCache
}

// HasExecutableSection reports whether the live module has at least one
// section marked executable.
func (r *RemoteModuleDescriptor) HasExecutableSection(parser peformat.Parser) bool {
	return parser.HasExecutableSection(r.headerCache)
}
