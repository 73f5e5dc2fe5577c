// Package types holds the core's data model — the immutable records the
// Descriptor Walker produces and the Metadata Index collates — plus the
// Image/ChainedFixups contract the core consumes from its external
// collaborator (§6 of the spec: "An Image interface providing..."). This
// package has no dependency on the walking or demangling machinery, so
// both the Descriptor Walker and the tool-layer Mach-O adapter can depend
// on it without an import cycle.
package types

import (
	"encoding/binary"

	"github.com/swiftreflect/swiftreflect/internal/reader"
)

// Image is the upstream collaborator contract: everything the core needs
// from a Mach-O (or Mach-O-like) binary, never more. All Mach-O parsing —
// load commands, segment/section tables, chained-fixup chain walking —
// lives on the other side of this interface.
type Image interface {
	// Bytes returns the raw, read-only backing buffer.
	Bytes() []byte
	// ByteOrder reports the image's numeric byte order.
	ByteOrder() binary.ByteOrder
	// Segments returns the ordered list of mapped segments, used for
	// vmAddr -> file-offset translation.
	Segments() []reader.Segment
	// FindSection looks up a (segment, section) pair and returns its file
	// offset and size. ok is false if the section is absent.
	FindSection(segment, section string) (offset uint32, size uint32, ok bool)
	// ChainedFixups returns the image's resolved chained-fixups view, or
	// nil if the image carries none.
	ChainedFixups() ChainedFixups
}

// FixupKind discriminates the result of decoding a chained-fixup pointer.
type FixupKind int

const (
	// FixupNone means the raw value is not a recognised fixup at all.
	FixupNone FixupKind = iota
	// FixupBind means the pointer binds to an imported symbol by ordinal.
	FixupBind
	// FixupRebase means the pointer rebases to an address within the image.
	FixupRebase
)

// FixupResult is the decoded form of one chained-fixup pointer.
type FixupResult struct {
	Kind      FixupKind
	Ordinal   uint32
	Addend    int64
	VMAddress uint64
}

// ChainedFixups is the upstream collaborator's resolved view over DYLD
// chained fixups: the core never walks a fixup chain itself, it only asks
// "what does this pointer mean" and "what is this bind ordinal called".
type ChainedFixups interface {
	// DecodePointer interprets a raw pointer-sized value as a chained
	// fixup. ok is false when raw is not a recognised fixup encoding.
	DecodePointer(raw uint64) (FixupResult, bool)
	// SymbolName returns the imported symbol name for a bind ordinal.
	SymbolName(ordinal uint32) (string, bool)
}

// Section is a resolved (offset, size) pair for one named reflection
// section.
type Section struct {
	Offset uint32
	Size   uint32
}

// FindSwiftSection looks up a reflection section by exact name pair,
// trying __TEXT first and __DATA_CONST as fallback —
// the section-contract rule from spec §6.
func FindSwiftSection(img Image, name string) (Section, bool) {
	if off, size, ok := img.FindSection("__TEXT", name); ok {
		return Section{Offset: off, Size: size}, true
	}
	if off, size, ok := img.FindSection("__DATA_CONST", name); ok {
		return Section{Offset: off, Size: size}, true
	}
	return Section{}, false
}
