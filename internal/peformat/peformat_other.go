//go:build !windows

package peformat

// Stub is the non-Windows Parser: every operation fails or reports
// "nothing found", matching winapi.Stub's story for the OS collaborator.
type Stub struct{}

var _ Parser = Stub{}

// New returns the platform's Parser — a Stub everywhere but Windows.
func New() Parser { return Stub{} }

func (Stub) LocateNTHeader([]byte, bool) (int, bool) { return 0, false }

func (Stub) HasExecutableSection([]byte) bool { return false }

func (Stub) LoadOriginalFile(string, uintptr) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func (Stub) IsDotNet([]byte) bool { return false }
