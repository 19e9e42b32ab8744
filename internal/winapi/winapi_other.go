//go:build !windows

package winapi

// Stub is the non-Windows implementation of Querier: every method that
// returns an error fails with ErrUnsupportedPlatform, PageSize reports
// 4096 and CurrentPID reports 0. It exists so the engine package, the CLI,
// and `go vet`/tests build on any host; only a Windows target can actually
// be scanned.
type Stub struct{}

var _ Querier = Stub{}

// New returns the platform's Querier — a Stub everywhere but Windows.
func New() Querier { return Stub{} }

func (Stub) VirtualQuery(Handle, uintptr) (PageInfo, error) {
	return PageInfo{}, ErrUnsupportedPlatform
}

func (Stub) ReadRemote(Handle, uintptr, int) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func (Stub) EnumModules(Handle, ModulesFilter) ([]Handle, error) {
	return nil, ErrUnsupportedPlatform
}

func (Stub) QueryWorkingSet(Handle) ([]WorkingSetEntry, error) {
	return nil, ErrUnsupportedPlatform
}

func (Stub) PageSize() uintptr { return 4096 }

func (Stub) CurrentPID() uint32 { return 0 }

func (Stub) PIDOf(Handle) (uint32, error) {
	return 0, ErrUnsupportedPlatform
}

func (Stub) ModuleInfo(Handle, Handle) (ModuleInfo, error) {
	return ModuleInfo{}, ErrUnsupportedPlatform
}

func (Stub) OpenProcess(uint32) (Handle, error) {
	return 0, ErrUnsupportedPlatform
}

func (Stub) CloseHandle(Handle) error {
	return ErrUnsupportedPlatform
}
