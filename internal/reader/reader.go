// Package reader implements the bounds-checked byte-level primitives that
// every other decoding package in swiftreflect is built on: endian-aware
// integer reads and Swift's self-relative pointer convention.
package reader

import "encoding/binary"

// Segment is the minimal view the reader needs of a Mach-O segment: a
// virtual-address range and the file offset it is mapped from. Real
// segment data (protection, section lists, ...) lives entirely in the
// external collaborator that builds an Image; the reader only needs
// enough to translate addresses.
type Segment struct {
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
}

// Contains reports whether vmAddr falls inside this segment's mapped range.
func (s Segment) Contains(vmAddr uint64) bool {
	return vmAddr >= s.VMAddr && vmAddr < s.VMAddr+s.VMSize
}

// FileOffset translates a vmAddr known to be inside this segment to a file
// offset.
func (s Segment) FileOffset(vmAddr uint64) int64 {
	return int64(s.FileOff) + int64(vmAddr-s.VMAddr)
}

// Reader is an immutable, bounds-checked view over an in-memory image.
// No method ever reads outside buf; every read that would run off the end
// returns the type's zero/absence value instead of panicking or erroring.
type Reader struct {
	buf      []byte
	segments []Segment
	order    binary.ByteOrder
}

// New builds a Reader over buf. order defaults to little-endian (Apple
// platforms) when nil.
func New(buf []byte, segments []Segment, order binary.ByteOrder) *Reader {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{buf: buf, segments: segments, order: order}
}

// Len reports the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// inBounds reports whether [off, off+n) lies entirely within buf.
func (r *Reader) inBounds(off int64, n int) bool {
	if off < 0 || n < 0 {
		return false
	}
	end := off + int64(n)
	return end >= off && end <= int64(len(r.buf))
}

// U16 reads a little/big-endian uint16 at off. Returns 0 when out of range.
func (r *Reader) U16(off int64) uint16 {
	if !r.inBounds(off, 2) {
		return 0
	}
	return r.order.Uint16(r.buf[off : off+2])
}

// U32 reads a uint32 at off. Returns 0 when out of range.
func (r *Reader) U32(off int64) uint32 {
	if !r.inBounds(off, 4) {
		return 0
	}
	return r.order.Uint32(r.buf[off : off+4])
}

// U64 reads a uint64 at off. Returns 0 when out of range.
func (r *Reader) U64(off int64) uint64 {
	if !r.inBounds(off, 8) {
		return 0
	}
	return r.order.Uint64(r.buf[off : off+8])
}

// I32 reads a signed 32-bit integer at off. Returns 0 when out of range.
func (r *Reader) I32(off int64) int32 {
	return int32(r.U32(off))
}

// Byte reads a single byte at off. ok is false when out of range.
func (r *Reader) Byte(off int64) (b byte, ok bool) {
	if !r.inBounds(off, 1) {
		return 0, false
	}
	return r.buf[off], true
}

// RelPtrOK reads a signed 32-bit self-relative pointer at off and resolves
// its target: target = off + value. ok is false when off is out of range
// or the computed target is negative.
func (r *Reader) RelPtrOK(off int64) (target int64, ok bool) {
	if !r.inBounds(off, 4) {
		return 0, false
	}
	v := int64(r.I32(off))
	target = off + v
	if target < 0 {
		return 0, false
	}
	return target, true
}

// RelPtr is RelPtrOK without the ok flag; failure yields 0.
func (r *Reader) RelPtr(off int64) int64 {
	t, ok := r.RelPtrOK(off)
	if !ok {
		return 0
	}
	return t
}

// CString reads a NUL-terminated UTF-8 string starting at off. ok is false
// when no NUL terminator is found within the buffer.
func (r *Reader) CString(off int64) (s string, ok bool) {
	if off < 0 || off >= int64(len(r.buf)) {
		return "", false
	}
	end := off
	for end < int64(len(r.buf)) && r.buf[end] != 0 {
		end++
	}
	if end >= int64(len(r.buf)) {
		return "", false
	}
	return string(r.buf[off:end]), true
}

// RelString reads RelPtr(off) followed by a NUL-terminated string at the
// target. ok mirrors CString's.
func (r *Reader) RelString(off int64) (s string, ok bool) {
	target, ok := r.RelPtrOK(off)
	if !ok {
		return "", false
	}
	return r.CString(target)
}

// Data returns a read-only slice of n bytes starting at off, or nil when
// out of range.
func (r *Reader) Data(off int64, n int) []byte {
	if !r.inBounds(off, n) {
		return nil
	}
	return r.buf[off : off+int64(n)]
}

// RelData resolves the relative pointer at off and returns n bytes at the
// target, preserving the exact window for later symbolic resolution.
func (r *Reader) RelData(off int64, n int) (data []byte, target int64, ok bool) {
	target, ok = r.RelPtrOK(off)
	if !ok {
		return nil, 0, false
	}
	d := r.Data(target, n)
	if d == nil {
		return nil, target, false
	}
	return d, target, true
}

// NULTerminatedData returns the raw bytes from off up to (excluding) the
// next NUL, or nil if none is found before the buffer ends.
func (r *Reader) NULTerminatedData(off int64) []byte {
	if off < 0 || off >= int64(len(r.buf)) {
		return nil
	}
	end := off
	for end < int64(len(r.buf)) && r.buf[end] != 0 {
		end++
	}
	if end >= int64(len(r.buf)) {
		return nil
	}
	return r.buf[off:end]
}

// AddrToFileOffset linearly scans segments for the first one containing
// vmAddr and returns its translated file offset. ok is false if no segment
// contains the address.
func (r *Reader) AddrToFileOffset(vmAddr uint64) (off int64, ok bool) {
	for _, seg := range r.segments {
		if seg.Contains(vmAddr) {
			return seg.FileOffset(vmAddr), true
		}
	}
	return 0, false
}
