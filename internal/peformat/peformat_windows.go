//go:build windows

package peformat

import (
	"bytes"
	debugpe "debug/pe"
	"fmt"
	"os"
	"unsafe"

	"github.com/dblohm7/wingoes/pe"
)

// WingoesParser implements Parser against github.com/dblohm7/wingoes/pe,
// the same library this project's reference pool reaches for when it needs
// to validate a PE header without hand-rolling an NT-header walker.
//
// wingoes' exported surface in the version this project is built against
// does not expose a section-table accessor, so HasExecutableSection reads
// the section characteristics through debug/pe directly — the very stdlib
// package wingoes itself wraps — rather than duplicating wingoes' private
// struct-decoding helpers.
type WingoesParser struct{}

var _ Parser = WingoesParser{}

// New returns the platform's real Parser.
func New() Parser { return WingoesParser{} }

func (WingoesParser) LocateNTHeader(buf []byte, deep bool) (int, bool) {
	if !deep {
		if validHeaderAt(buf, 0) {
			return 0, true
		}
		return 0, false
	}
	limit := len(buf)
	if limit > MaxHeaderSize {
		limit = MaxHeaderSize
	}
	for i := 0; i < limit; i++ {
		if validHeaderAt(buf, i) {
			return i, true
		}
	}
	return 0, false
}

// validHeaderAt asks wingoes to parse buf[off:] as a PE image in place.
// The buffer is already resident local memory (copied out of the target by
// the remote-memory reader), so this is a safe, bounded, read-only parse —
// it never touches the target process.
func validHeaderAt(buf []byte, off int) (ok bool) {
	if off >= len(buf) {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	region := buf[off:]
	if len(region) < 64 {
		return false
	}
	base := uintptr(unsafe.Pointer(&region[0]))
	info, err := pe.NewPEFromBaseAddressAndSize(base, uintptr(len(region)))
	if err != nil || info == nil {
		return false
	}
	return true
}

func (WingoesParser) HasExecutableSection(buf []byte) bool {
	pef, err := debugpe.NewFile(bytes.NewReader(buf))
	if err != nil {
		return false
	}
	defer pef.Close()
	const imageSCNMemExecute = 0x20000000
	for _, sec := range pef.Sections {
		if sec.Characteristics&imageSCNMemExecute != 0 {
			return true
		}
	}
	return false
}

func (WingoesParser) LoadOriginalFile(path string, base uintptr) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pef, err := debugpe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer pef.Close()

	sizeOfImage, err := sizeOfImage(pef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	image := make([]byte, sizeOfImage)
	headerLen := len(data)
	if len(pef.Sections) > 0 {
		if first := pef.Sections[0].Offset; int(first) < headerLen {
			headerLen = int(first)
		}
	}
	if headerLen > len(data) {
		headerLen = len(data)
	}
	copy(image, data[:headerLen])

	for _, sec := range pef.Sections {
		raw, err := sec.Data()
		if err != nil {
			continue
		}
		dst := int(sec.VirtualAddress)
		if dst < 0 || dst >= len(image) {
			continue
		}
		end := dst + len(raw)
		if end > len(image) {
			end = len(image)
		}
		copy(image[dst:end], raw[:end-dst])
	}
	return image, nil
}

func (WingoesParser) IsDotNet(buf []byte) bool {
	pef, err := debugpe.NewFile(bytes.NewReader(buf))
	if err != nil {
		return false
	}
	defer pef.Close()

	const imageDirectoryEntryComDescriptor = 14
	switch oh := pef.OptionalHeader.(type) {
	case *debugpe.OptionalHeader32:
		if imageDirectoryEntryComDescriptor >= len(oh.DataDirectory) {
			return false
		}
		return oh.DataDirectory[imageDirectoryEntryComDescriptor].VirtualAddress != 0
	case *debugpe.OptionalHeader64:
		if imageDirectoryEntryComDescriptor >= len(oh.DataDirectory) {
			return false
		}
		return oh.DataDirectory[imageDirectoryEntryComDescriptor].VirtualAddress != 0
	default:
		return false
	}
}

func sizeOfImage(pef *debugpe.File) (uint32, error) {
	switch oh := pef.OptionalHeader.(type) {
	case *debugpe.OptionalHeader32:
		return oh.SizeOfImage, nil
	case *debugpe.OptionalHeader64:
		return oh.SizeOfImage, nil
	default:
		return 0, fmt.Errorf("unrecognized optional header type")
	}
}
