// Package ctxheader reads the common prefix shared by every Swift context
// descriptor — "(flags, parent, name, ...)" per the glossary — the one
// piece of descriptor-layout knowledge both the Descriptor Walker and the
// Symbolic Resolver need. It is split out into its own package so the two
// can share it without an import cycle (the resolver recursively reads
// context-descriptor headers; the walker resolves symbolic references).
package ctxheader

import "github.com/swiftreflect/swiftreflect/internal/reader"

// Offsets within a context-descriptor header, relative to its start.
const (
	OffFlags  = 0
	OffParent = 4
	OffName   = 8
)

// Kind returns the low 5 bits of the flags word at a descriptor's start —
// the descriptor-kind discriminator shared by every context descriptor.
func Kind(r *reader.Reader, at int64) uint8 {
	return uint8(r.U32(at+OffFlags) & 0x1F)
}

// Name reads the descriptor's own name field (a relative string at +8).
func Name(r *reader.Reader, at int64) (string, bool) {
	return r.RelString(at + OffName)
}

// Header is the (kind, name) pair read from a context-descriptor header.
type Header struct {
	Kind uint8
	Name string
}

// Read reads the (kind, name) pair at a descriptor's start. ok is false
// only when the name field itself can't be read (flags/kind always
// resolve to something, even 0, under the Byte Reader's silent-failure
// rule).
func Read(r *reader.Reader, at int64) (Header, bool) {
	name, ok := Name(r, at)
	if !ok {
		return Header{}, false
	}
	return Header{Kind: Kind(r, at), Name: name}, true
}

// Parent reads the header's parent pointer (a relative pointer at +4) and,
// if it resolves, the parent descriptor's own (kind, name). Per the
// cycle-breaking rule in the design notes, this climbs exactly one level —
// it never follows the parent's own parent.
func Parent(r *reader.Reader, at int64) (Header, bool) {
	target, ok := r.RelPtrOK(at + OffParent)
	if !ok {
		return Header{}, false
	}
	return Read(r, target)
}
