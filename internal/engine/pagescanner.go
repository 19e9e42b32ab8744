package engine

import (
	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
)

// FindPEHeader is the PE-header locator (component C). It reads up to two
// header-sized chunks starting at addr and asks the executable-format
// collaborator to locate a valid NT header within them. Without deep only
// offset 0 is checked; with deep (ScanArgs.DeepScan, applied to every page
// scanned) the collaborator also tries each byte offset in turn, which
// costs more time per page.
func FindPEHeader(reader *RemoteReader, parser peformat.Parser, handle winapi.Handle, addr uintptr, deep bool) (offset int, ok bool) {
	size := 2 * peformat.MaxHeaderSize
	buf, read := reader.Read(handle, addr, size)
	if !read {
		return 0, false
	}
	return parser.LocateNTHeader(buf, deep)
}

// shellcodeSignatures are common x86/x64 function-prolog byte sequences.
// A region containing one of these is consistent with hand-assembled
// shellcode rather than compiler-emitted padding or data.
var shellcodeSignatures = []struct {
	width string
	sig   []byte
}{
	{"32-bit", []byte{0x55, 0x8B, 0xEC}},                   // push ebp; mov ebp, esp
	{"64-bit", []byte{0x40, 0x53, 0x48, 0x83, 0xEC, 0x20}}, // push rbx; sub rsp, 0x20  (msvc x64 prolog)
}

// IsShellcode is the shellcode heuristic (component D). It only applies to
// privately-allocated memory — image-backed and mapped-file regions have a
// legitimate PE or file header explaining their bytes, so they are never
// candidates.
//
// Unlike the other scanners, a heuristic match here is recorded purely as a
// log line, not a Finding: a function prolog inside an anonymous page is
// common in perfectly legitimate JIT'd and thunked code, so it is
// logged for an operator to notice, never counted in the Summary (§4.4,
// §9 open question — the heuristic always reports success so the caller's
// control flow is unaffected either way; its only observable effect is
// the log line).
func IsShellcode(reader *RemoteReader, handle winapi.Handle, page *PageDescriptor, log Logger) bool {
	if page.MappingType != winapi.MappingPrivate {
		return true
	}
	buf, ok := reader.Read(handle, page.StartVA, peformat.MaxHeaderSize)
	if !ok || len(buf) == 0 {
		return true
	}
	for _, s := range shellcodeSignatures {
		for i := 0; i+len(s.sig) <= len(buf); i++ {
			if bytesEqual(buf[i:i+len(s.sig)], s.sig) {
				log.Infof("page 0x%x: recognized %s function prolog at +0x%x, possible %s shellcode", page.StartVA, s.width, i, s.width)
				return true
			}
		}
	}
	log.Debugf("page 0x%x: no recognized function prolog", page.StartVA)
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MemPageScanner is the memory-page scanner (component E): distinguishes a
// manually-mapped module hiding in private memory (a planted PE image, §4.3)
// from an executable private page that merely opens with a function prolog
// (shellcode, log-only per §4.4).
type MemPageScanner struct {
	q      winapi.Querier
	parser peformat.Parser
	reader *RemoteReader
	log    Logger
	deep   bool
}

// NewMemPageScanner builds a MemPageScanner. deep mirrors ScanArgs.DeepScan
// and is forwarded to the PE-header locator (§4.3).
func NewMemPageScanner(q winapi.Querier, parser peformat.Parser, reader *RemoteReader, deep bool, log Logger) *MemPageScanner {
	return &MemPageScanner{q: q, parser: parser, reader: reader, log: log, deep: deep}
}

// Scan implements the §4.5 six-step sequence. It returns ok=false for every
// "return none" outcome the spec lists — callers must not append a finding
// when ok is false.
//  1. fill the page's OS-reported info if not already filled; failure is
//     none, not an error finding;
//  2. image-mapped pages belong to a listed module, handled by the module
//     scanner — none;
//  3. compute is_any_exec from the initial protection, the current
//     protection (a region may have been allocated RW and later
//     reprotected to RX, or vice versa — either state alone would miss a
//     real implant, the bug this predicate fixes, §9) OR the caller-supplied
//     basic_protection;
//  4. a non-executable page already attributed to a listed module is none
//     (already accounted for elsewhere);
//  5. try the PE-header locator; if a header is found, the page is a
//     suspected manually-mapped module — status is suspicious iff the
//     module found there has an executable section;
//  6. no header: run the shellcode heuristic for its log-only side effect
//     when the page is executable, then return none regardless.
func (s *MemPageScanner) Scan(handle winapi.Handle, page *PageDescriptor) (MemPageScan, bool) {
	if !page.IsInfoFilled() {
		if !page.FillInfo(s.q, handle, s.log) {
			return MemPageScan{}, false
		}
	}

	if page.MappingType == winapi.MappingImage {
		return MemPageScan{}, false
	}

	isAnyExec := page.InitialProtect.HasExec() || page.CurrentProtect.HasExec() || page.BasicProtection.HasExec()

	if !isAnyExec && page.IsListedModule {
		return MemPageScan{}, false
	}

	if offset, found := FindPEHeader(s.reader, s.parser, handle, page.StartVA, s.deep); found {
		base := page.StartVA + uintptr(offset)
		planted := &ModuleDescriptor{Handle: handle, BaseAddress: base}
		remote, ok := NewRemoteModuleDescriptor(s.q, handle, planted, s.reader)
		status := StatusNotSuspicious
		if ok && remote.HasExecutableSection(s.parser) {
			status = StatusSuspicious
		}
		return MemPageScan{
			Base:             base,
			ScanStatus:       status,
			IsExecutable:     isAnyExec,
			IsManuallyLoaded: !page.IsListedModule,
			Protection:       page.CurrentProtect,
		}, true
	}

	if isAnyExec {
		IsShellcode(s.reader, handle, page, s.log)
	}
	return MemPageScan{}, false
}
