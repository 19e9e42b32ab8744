package engine

import "github.com/memsieve/pescan/internal/winapi"

// readStep is the amount the requested size shrinks by on each failed
// attempt (§4.1).
const readStep = 256

// RemoteReader is the remote-memory reader (component A): a tolerant copy
// of a byte range out of the target's address space. It shrinks the
// request on failure so a caller probing near the end of a region still
// gets whatever prefix is readable, rather than nothing at all.
//
// RemoteReader holds no buffers of its own between calls — every Read
// allocates fresh — so a single instance may be shared across concurrent
// scans without the static-scratch-buffer hazard called out in §5/§9.
type RemoteReader struct {
	q winapi.Querier
}

// NewRemoteReader wraps q for tolerant remote reads.
func NewRemoteReader(q winapi.Querier) *RemoteReader {
	return &RemoteReader{q: q}
}

// Read attempts to copy size bytes from addr in the target process into a
// freshly allocated, zero-filled buffer. On a failed attempt it retries
// with size reduced by readStep, until size drops below readStep. It
// returns the buffer and true on the first successful read, or a
// zero-filled buffer of the originally requested size and false if every
// attempt failed.
func (r *RemoteReader) Read(handle winapi.Handle, addr uintptr, size int) ([]byte, bool) {
	out := make([]byte, size)
	if size < readStep {
		return out, false
	}
	for toRead := size; toRead >= readStep; toRead -= readStep {
		buf, err := r.q.ReadRemote(handle, addr, toRead)
		if err != nil {
			continue
		}
		copy(out, buf)
		return out, true
	}
	return out, false
}
