// Package symbolic implements the Symbolic Resolver: decoding the 5-byte
// symbolic-reference tokens ("marker byte, little-endian i32 offset") that
// Swift's compiler inlines into otherwise mangled-text byte strings instead
// of spelling a context out in full, and dispatching the handful of marker
// kinds the core understands to a human-readable name.
//
// A Resolver is stateful (it memoizes descriptor names it has already
// walked) and is not safe for concurrent use — callers that parse multiple
// images concurrently should use one Resolver per image.
package symbolic

import (
	"strconv"
	"strings"

	"github.com/swiftreflect/swiftreflect/internal/ctxheader"
	"github.com/swiftreflect/swiftreflect/internal/mangle"
	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/internal/shortcuts"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// Symbolic reference marker bytes this resolver recognises.
const (
	markerDirectContext     = 0x01
	markerIndirectContext   = 0x02
	markerDirectObjCProtocol = 0x09
)

// maxDepth bounds the parent-chain climb, guarding against a cyclic or
// self-referential descriptor chain.
const maxDepth = 10

// Placeholders returned when a symbolic reference can't be resolved to a
// name, per the "never panic, never error out" rule: absence is always
// expressed as one of these fixed strings, never a Go error.
const (
	placeholderUnknownRef    = "/* unknown ref */"
	placeholderInvalidOffset = "/* invalid offset */"
	placeholderExternalType  = "/* external type */"
	placeholderIncompleteRef = "/* incomplete ref */"
)

// Resolver decodes symbolic references and mangled-name byte strings found
// in a single image's reflection sections.
type Resolver struct {
	r      *reader.Reader
	fixups types.ChainedFixups

	descNames map[int64]string
}

// New returns a Resolver reading from r, optionally consulting fixups to
// decode indirect-context pointers. fixups may be nil.
func New(r *reader.Reader, fixups types.ChainedFixups) *Resolver {
	return &Resolver{
		r:         r,
		fixups:    fixups,
		descNames: make(map[int64]string),
	}
}

// ResolveName decodes a mangled-name field read from file offset at: either
// a symbolic-reference token (possibly followed by a generic-suffix
// fragment) or a plain mangled-text byte string. It never fails — an
// unresolvable reference renders as one of the fixed placeholder comments.
func (res *Resolver) ResolveName(data []byte, at int64) string {
	if len(data) == 0 {
		return ""
	}
	if isMarker(data[0]) {
		return res.resolveToken(data, at)
	}
	if hasEmbeddedMarker(data) {
		if out, ok := res.resolveMixed(data, at); ok {
			return out
		}
		return tolerantConcat(data)
	}
	return mangle.Demangle(string(data))
}

func isMarker(b byte) bool { return b >= 0x01 && b <= 0x17 }

// hasEmbeddedMarker reports whether a symbolic-reference marker byte occurs
// anywhere past the first byte of data — the signal that this is a
// mixed-binary name (plain mangled-text grammar bytes interleaved with
// inline symbolic tokens) rather than either a leading token or plain text.
func hasEmbeddedMarker(data []byte) bool {
	for i := 1; i < len(data); i++ {
		if data[i] == markerDirectContext || data[i] == markerIndirectContext {
			return true
		}
	}
	return false
}

// tolerantConcat is the fallback for a mixed-binary name the recursive
// parser couldn't fully consume: concatenate the printable bytes and drop
// the rest, rather than surface a control byte to the caller.
func tolerantConcat(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// resolveMixed parses data as a single mixed-binary type-argument fragment,
// requiring the whole byte string to be consumed.
func (res *Resolver) resolveMixed(data []byte, at int64) (string, bool) {
	mp := &mixedParser{res: res, data: data, at: at}
	out, ok := mp.parseArg(0)
	if !ok || mp.pos != len(mp.data) {
		return "", false
	}
	return out, true
}

// mixedParser is the Mixed parser of §4.4: a recursive-descent parser over
// raw bytes (not necessarily valid UTF-8) that can consume an inline 5-byte
// symbolic token mid-stream alongside the usual mangled-text grammar. at is
// the file offset data[0] was read from, so a token encountered at cursor
// position pos can compute its absolute target the same way resolveToken
// does for a leading token.
type mixedParser struct {
	res  *Resolver
	data []byte
	pos  int
	at   int64
}

func (p *mixedParser) remaining() []byte {
	if p.pos >= len(p.data) {
		return nil
	}
	return p.data[p.pos:]
}

func (p *mixedParser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.remaining()), s)
}

// parseArg tries each production in order, depth-capped against a cyclic
// or pathologically nested input.
func (p *mixedParser) parseArg(depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}
	if out, ok := p.tryContainer(depth); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.tryToken(); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.tryTwoChar(); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.trySingleChar(); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.tryEmptyTuple(); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.tryIdent(); ok {
		return p.wrapOptional(out), true
	}
	if out, ok := p.tryObjC(); ok {
		return p.wrapOptional(out), true
	}
	return "", false
}

func (p *mixedParser) wrapOptional(base string) string {
	for p.hasPrefix("Sg") {
		p.pos += 2
		base += "?"
	}
	return base
}

// tryContainer recognises the Say/SDy/Shy container openings, each of which
// may consume an embedded symbolic token while parsing its element type(s).
func (p *mixedParser) tryContainer(depth int) (string, bool) {
	switch {
	case p.hasPrefix("Say"):
		save := p.pos
		p.pos += 3
		elem, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "[" + elem + "]", true
	case p.hasPrefix("SDy"):
		save := p.pos
		p.pos += 3
		key, ok := p.parseArg(depth + 1)
		if !ok {
			p.pos = save
			return "", false
		}
		val, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "[" + key + ": " + val + "]", true
	case p.hasPrefix("Shy"):
		save := p.pos
		p.pos += 3
		elem, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "Set<" + elem + ">", true
	}
	return "", false
}

// tryToken consumes a direct 5-byte symbolic token at the cursor and
// resolves it the same way a leading token would.
func (p *mixedParser) tryToken() (string, bool) {
	rem := p.remaining()
	if len(rem) < 5 || !isMarker(rem[0]) {
		return "", false
	}
	marker := rem[0]
	fieldOff := p.at + int64(p.pos) + 1
	raw := int32(p.res.r.U32(fieldOff))
	target := fieldOff + int64(raw)
	name := p.res.decodeMarker(marker, target)
	p.pos += 5
	return name, true
}

func (p *mixedParser) tryTwoChar() (string, bool) {
	rem := p.remaining()
	if len(rem) >= 3 {
		if out, ok := shortcuts.TwoChar[string(rem[:3])]; ok {
			p.pos += 3
			return out, true
		}
	}
	if len(rem) < 2 {
		return "", false
	}
	key := string(rem[:2])
	if key == "Sg" {
		return "", false
	}
	if out, ok := shortcuts.TwoChar[key]; ok {
		p.pos += 2
		return out, true
	}
	return "", false
}

func (p *mixedParser) trySingleChar() (string, bool) {
	rem := p.remaining()
	if len(rem) < 1 || rem[0] == 'S' {
		return "", false
	}
	if out, ok := shortcuts.SingleChar[rem[0]]; ok {
		p.pos++
		return out, true
	}
	return "", false
}

// tryEmptyTuple recognises a bare "y", the empty-tuple spelling of Void.
func (p *mixedParser) tryEmptyTuple() (string, bool) {
	rem := p.remaining()
	if len(rem) >= 1 && rem[0] == 'y' {
		p.pos++
		return "Void", true
	}
	return "", false
}

// tryIdent reads a length-prefixed identifier and skips any trailing
// type-suffix markers, without module-qualifying it.
func (p *mixedParser) tryIdent() (string, bool) {
	save := p.pos
	name, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	p.skipTypeSuffixMarkers()
	return name, true
}

// tryObjC recognises "So<len-name>[_p]?", an imported Objective-C type.
func (p *mixedParser) tryObjC() (string, bool) {
	if !p.hasPrefix("So") {
		return "", false
	}
	save := p.pos
	p.pos += 2
	name, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	existential := p.skipTypeSuffixMarkers()
	out := name
	if mapped, ok := shortcuts.ObjCBridge[name]; ok {
		out = mapped
	}
	if existential {
		out = "any " + out
	}
	return out, true
}

func (p *mixedParser) readIdent() (string, bool) {
	start := p.pos
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	n, err := strconv.Atoi(string(p.data[start:p.pos]))
	if err != nil || n < 0 || p.pos+n > len(p.data) {
		p.pos = start
		return "", false
	}
	s := string(p.data[p.pos : p.pos+n])
	p.pos += n
	return s, true
}

// skipTypeSuffixMarkers consumes trailing {C,V,O,P,y} markers and an
// optional "_p"/"p" existential marker, reporting whether one was seen.
func (p *mixedParser) skipTypeSuffixMarkers() (existential bool) {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case 'C', 'V', 'O', 'P', 'y':
			p.pos++
			continue
		}
		break
	}
	if p.pos+1 < len(p.data) && p.data[p.pos] == '_' && p.data[p.pos+1] == 'p' {
		p.pos += 2
		return true
	}
	if p.pos < len(p.data) && p.data[p.pos] == 'p' {
		p.pos++
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// resolveToken decodes the 5-byte token at the start of data and appends
// any trailing "Sg" (Optional) suffix it recognises.
func (res *Resolver) resolveToken(data []byte, at int64) string {
	if len(data) < 5 {
		return placeholderIncompleteRef
	}
	marker := data[0]
	fieldOff := at + 1
	raw := int32(res.r.U32(fieldOff))
	target := fieldOff + int64(raw)

	name := res.decodeMarker(marker, target)

	rest := data[5:]
	for len(rest) >= 2 && rest[0] == 'S' && rest[1] == 'g' {
		name += "?"
		rest = rest[2:]
	}
	if len(rest) > 0 {
		if suffix, ok := mangle.DemangleFragment(string(rest)); ok {
			name += "<" + suffix + ">"
		}
	}
	return name
}

func (res *Resolver) decodeMarker(marker byte, target int64) string {
	if target < 0 || target >= int64(res.r.Len()) {
		return placeholderInvalidOffset
	}
	switch marker {
	case markerDirectContext:
		name, ok := res.fullyQualifiedName(target, 0)
		if !ok {
			return placeholderInvalidOffset
		}
		return name
	case markerIndirectContext:
		off, state := res.resolveIndirect(target)
		switch state {
		case indirectExternal:
			return placeholderExternalType
		case indirectInvalid:
			return placeholderInvalidOffset
		}
		name, ok := res.fullyQualifiedName(off, 0)
		if !ok {
			return placeholderInvalidOffset
		}
		return name
	case markerDirectObjCProtocol:
		name, ok := res.r.CString(target)
		if !ok {
			return placeholderInvalidOffset
		}
		return name
	default:
		return placeholderUnknownRef
	}
}

type indirectState int

const (
	indirectInvalid indirectState = iota
	indirectExternal
	indirectOK
)

// resolveIndirect reads the pointer slot at target and resolves it to a
// file offset, consulting the image's chained fixups first and falling
// back to treating the slot as a raw vmAddr (u64, then u32).
func (res *Resolver) resolveIndirect(target int64) (int64, indirectState) {
	raw := res.r.U64(target)

	if res.fixups != nil {
		if fr, ok := res.fixups.DecodePointer(raw); ok {
			switch fr.Kind {
			case types.FixupBind:
				return 0, indirectExternal
			case types.FixupRebase:
				if off, ok := res.r.AddrToFileOffset(fr.VMAddress); ok {
					return off, indirectOK
				}
				return 0, indirectInvalid
			}
		}
	}

	if off, ok := res.r.AddrToFileOffset(raw); ok {
		return off, indirectOK
	}
	raw32 := res.r.U32(target)
	if off, ok := res.r.AddrToFileOffset(uint64(raw32)); ok {
		return off, indirectOK
	}
	return 0, indirectInvalid
}

// DescriptorName resolves the fully-qualified dotted name of the context
// descriptor at file offset target, climbing its parent chain. The
// Descriptor Walker uses this directly for references that name a context
// descriptor without going through a mangled-text or token wrapper — a
// conformance record's protocol reference, for instance.
func (res *Resolver) DescriptorName(target int64) (string, bool) {
	return res.fullyQualifiedName(target, 0)
}

// fullyQualifiedName climbs a context descriptor's parent chain to build
// its dotted full name, memoizing each descriptor it visits. A module
// context (kind 0) named "Swift" contributes nothing to the chain — the
// standard library is never named in a fully-qualified type name.
func (res *Resolver) fullyQualifiedName(target int64, depth int) (string, bool) {
	if name, ok := res.descNames[target]; ok {
		return name, true
	}
	if depth > maxDepth {
		return "", false
	}

	hdr, ok := ctxheader.Read(res.r, target)
	if !ok {
		return "", false
	}

	const moduleKind = 0
	if hdr.Kind == moduleKind {
		name := hdr.Name
		if name == "Swift" {
			name = ""
		}
		res.descNames[target] = name
		return name, true
	}

	parentTarget, ok := res.r.RelPtrOK(target + ctxheader.OffParent)
	if !ok {
		res.descNames[target] = hdr.Name
		return hdr.Name, true
	}

	parentName, ok := res.fullyQualifiedName(parentTarget, depth+1)
	full := hdr.Name
	if ok && parentName != "" {
		full = parentName + "." + hdr.Name
	}
	res.descNames[target] = full
	return full, true
}

// IsPlaceholder reports whether s is one of the fixed unresolved-reference
// placeholders this package emits, rather than a resolved name.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, "/* ") && strings.HasSuffix(s, " */")
}
