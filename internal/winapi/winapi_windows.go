//go:build windows

package winapi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modpsapi                 = windows.NewLazySystemDLL("psapi.dll")
	procEnumProcessModulesEx = modpsapi.NewProc("EnumProcessModulesEx")
	procQueryWorkingSet      = modpsapi.NewProc("QueryWorkingSet")
)

// Live implements Querier against the real Windows syscalls. It holds no
// state of its own — every method takes the target handle explicitly — so
// a single Live value may be shared across concurrently-scanned targets.
type Live struct{}

var _ Querier = Live{}

// New returns the platform's real Querier.
func New() Querier { return Live{} }

func (Live) VirtualQuery(handle Handle, addr uintptr) (PageInfo, error) {
	var mbi windows.MemoryBasicInformation
	err := windows.VirtualQueryEx(windows.Handle(handle), addr, &mbi, unsafe.Sizeof(mbi))
	if err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return PageInfo{}, ErrInvalidParameter
		}
		return PageInfo{}, fmt.Errorf("VirtualQueryEx(0x%x): %w", addr, err)
	}
	return PageInfo{
		InitialProtect: protectionFromWin(mbi.AllocationProtect),
		CurrentProtect: protectionFromWin(mbi.Protect),
		MappingType:    mappingFromWin(mbi.Type),
		RegionStart:    mbi.BaseAddress,
		RegionEnd:      mbi.BaseAddress + uintptr(mbi.RegionSize),
	}, nil
}

func (Live) ReadRemote(handle Handle, addr uintptr, size int) ([]byte, error) {
	buf := make([]byte, size)
	var read uintptr
	err := windows.ReadProcessMemory(windows.Handle(handle), addr, &buf[0], uintptr(size), &read)
	if err != nil {
		return nil, fmt.Errorf("ReadProcessMemory(0x%x, %d): %w", addr, size, err)
	}
	if int(read) != size {
		return nil, fmt.Errorf("ReadProcessMemory(0x%x, %d): short read (%d)", addr, size, read)
	}
	return buf, nil
}

func (Live) EnumModules(handle Handle, filter ModulesFilter) ([]Handle, error) {
	const maxModules = 1024
	var raw [maxModules]windows.Handle
	var needed uint32
	flags := winFilterFlag(filter)
	ret, _, err := procEnumProcessModulesEx.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&raw[0])),
		uintptr(len(raw))*unsafe.Sizeof(raw[0]),
		uintptr(unsafe.Pointer(&needed)),
		uintptr(flags),
	)
	if ret == 0 {
		return nil, fmt.Errorf("EnumProcessModulesEx: %w", err)
	}
	count := int(needed) / int(unsafe.Sizeof(raw[0]))
	if count > maxModules {
		count = maxModules
	}
	out := make([]Handle, count)
	for i := 0; i < count; i++ {
		out[i] = Handle(raw[i])
	}
	return out, nil
}

func (Live) QueryWorkingSet(handle Handle) ([]WorkingSetEntry, error) {
	// First call with a too-small buffer to learn NumberOfEntries; Windows
	// reports ERROR_BAD_LENGTH, which is the expected, non-fatal outcome.
	var probe [2]uintptr // {NumberOfEntries, first block slot}
	ret, _, err := procQueryWorkingSet.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&probe[0])),
		unsafe.Sizeof(probe),
	)
	if ret == 0 && err != windows.ERROR_BAD_LENGTH {
		return nil, fmt.Errorf("QueryWorkingSet (probe): %w", err)
	}
	entries := probe[0]
	if entries == 0 {
		entries = 4096
	}

	// Double the estimate to tolerate growth between the probe and the
	// full query (§4.7 step 3).
	count := entries * 2
	size := unsafe.Sizeof(uintptr(0)) + count*unsafe.Sizeof(uintptr(0))
	buf := make([]uintptr, 1+count)
	ret, _, err = procQueryWorkingSet.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&buf[0])),
		size,
	)
	if ret == 0 {
		return nil, fmt.Errorf("QueryWorkingSet: %w", err)
	}

	n := buf[0]
	out := make([]WorkingSetEntry, 0, n)
	for i := uintptr(0); i < n && int(1+i) < len(buf); i++ {
		block := buf[1+i]
		out = append(out, WorkingSetEntry{
			VirtualPage: block &^ 0xFFF,
			Protection:  protectionFromWorkingSetBlock(uint32(block & 0xFFF)),
		})
	}
	return out, nil
}

func (Live) ModuleInfo(handle Handle, mod Handle) (ModuleInfo, error) {
	var modInfo windows.ModuleInfo
	if err := windows.GetModuleInformation(windows.Handle(handle), windows.Handle(mod), &modInfo, uint32(unsafe.Sizeof(modInfo))); err != nil {
		return ModuleInfo{}, fmt.Errorf("GetModuleInformation: %w", err)
	}

	var buf [windows.MAX_PATH]uint16
	n, err := windows.GetModuleFileNameEx(windows.Handle(handle), windows.Handle(mod), &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return ModuleInfo{}, fmt.Errorf("GetModuleFileNameEx: %w", err)
	}

	return ModuleInfo{
		Path:        windows.UTF16ToString(buf[:n]),
		SizeOfImage: modInfo.SizeOfImage,
	}, nil
}

func (Live) OpenProcess(pid uint32) (Handle, error) {
	const access = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ | windows.PROCESS_VM_OPERATION
	h, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		return 0, fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	return Handle(h), nil
}

func (Live) CloseHandle(handle Handle) error {
	return windows.CloseHandle(windows.Handle(handle))
}

func (Live) PageSize() uintptr {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	return uintptr(si.PageSize)
}

func (Live) CurrentPID() uint32 {
	return windows.GetCurrentProcessId()
}

func (Live) PIDOf(handle Handle) (uint32, error) {
	pid, err := windows.GetProcessId(windows.Handle(handle))
	if err != nil {
		return 0, fmt.Errorf("GetProcessId: %w", err)
	}
	return pid, nil
}

func protectionFromWin(p uint32) Protection {
	const (
		pageNoAccess         = 0x01
		pageReadonly         = 0x02
		pageReadwrite        = 0x04
		pageWritecopy        = 0x08
		pageExecute          = 0x10
		pageExecuteRead      = 0x20
		pageExecuteReadwrite = 0x40
		pageExecuteWritecopy = 0x80
	)
	var out Protection
	switch p & 0xFF {
	case pageReadonly:
		out = ProtR
	case pageReadwrite, pageWritecopy:
		out = ProtR | ProtW
	case pageExecute:
		out = ProtX
	case pageExecuteRead:
		out = ProtR | ProtX
	case pageExecuteReadwrite, pageExecuteWritecopy:
		out = ProtR | ProtW | ProtX
	case pageNoAccess:
		out = 0
	}
	return out
}

func protectionFromWorkingSetBlock(bits uint32) Protection {
	// The low 5 bits of a PSAPI_WORKING_SET_BLOCK mirror the standard
	// MM protection encoding; bit 2 (0x4) is execute, bits 0-1 are R/W.
	var out Protection
	if bits&0x1 != 0 || bits&0x3 != 0 {
		out |= ProtR
	}
	if bits&0x2 != 0 {
		out |= ProtW
	}
	if bits&0x4 != 0 {
		out |= ProtX
	}
	return out
}

func mappingFromWin(t uint32) MappingType {
	const (
		memImage  = 0x1000000
		memMapped = 0x40000
		memPriv   = 0x20000
	)
	switch t {
	case memImage:
		return MappingImage
	case memMapped:
		return MappingMapped
	case memPriv:
		return MappingPrivate
	default:
		return MappingUnknown
	}
}

func winFilterFlag(f ModulesFilter) uint32 {
	const (
		listModules32Bit = 0x01
		listModules64Bit = 0x02
		listModulesAll    = 0x03
	)
	switch f {
	case FilterX86Only:
		return listModules32Bit
	case FilterX64Only:
		return listModules64Bit
	default:
		return listModulesAll
	}
}
