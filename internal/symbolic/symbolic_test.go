package symbolic

import (
	"encoding/binary"
	"testing"

	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// buildModuleAndType lays out, in a fresh buffer:
//
//	off 0:  module descriptor   {flags=0 (module), parent=0 (none), name="MyModule"}
//	off 16: type descriptor     {flags=16 (class), parent=rel->0, name="Widget"}
//
// and returns the buffer plus the type descriptor's offset.
func buildModuleAndType() (buf []byte, typeOff int64) {
	buf = make([]byte, 256)
	order := binary.LittleEndian

	// module descriptor at 0
	order.PutUint32(buf[0:4], 0) // kind = module
	order.PutUint32(buf[4:8], 0) // parent relptr: target = 4+0 = 4, i.e. itself; treat as "no parent" via kind check first
	// name relptr at off 8 -> string at 100
	putRelPtr(buf, 8, 100)
	copy(buf[100:], "MyModule\x00")

	// type descriptor at 16
	const typeDescOff = 16
	order.PutUint32(buf[typeDescOff:typeDescOff+4], 16) // kind = class
	putRelPtr(buf, typeDescOff+4, 0)                     // parent -> module descriptor at 0
	putRelPtr(buf, typeDescOff+8, 120)
	copy(buf[120:], "Widget\x00")

	return buf, typeDescOff
}

func putRelPtr(buf []byte, at int64, target int64) {
	binary.LittleEndian.PutUint32(buf[at:at+4], uint32(int32(target-at)))
}

func TestResolveDirectContext(t *testing.T) {
	buf, typeOff := buildModuleAndType()
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	// Build a symbolic-reference token at offset 200: marker 0x01, then a
	// relative i32 such that (200+1)+delta == typeOff.
	tokOff := int64(200)
	buf[tokOff] = 0x01
	delta := int32(typeOff - (tokOff + 1))
	binary.LittleEndian.PutUint32(buf[tokOff+1:tokOff+5], uint32(delta))

	got := res.ResolveName(buf[tokOff:tokOff+5], tokOff)
	want := "MyModule.Widget"
	if got != want {
		t.Fatalf("ResolveName = %q, want %q", got, want)
	}
}

func TestResolveDirectContextMemoized(t *testing.T) {
	buf, typeOff := buildModuleAndType()
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	name1, ok1 := res.fullyQualifiedName(typeOff, 0)
	name2, ok2 := res.fullyQualifiedName(typeOff, 0)
	if !ok1 || !ok2 || name1 != name2 {
		t.Fatalf("expected stable memoized name, got (%q,%v) then (%q,%v)", name1, ok1, name2, ok2)
	}
	if _, cached := res.descNames[typeOff]; !cached {
		t.Fatalf("expected descriptor name to be cached")
	}
}

func TestResolveUnknownMarker(t *testing.T) {
	buf := make([]byte, 64)
	buf[0] = 0x15 // in range but unhandled
	binary.LittleEndian.PutUint32(buf[1:5], 0)
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	got := res.ResolveName(buf[0:5], 0)
	if got != placeholderUnknownRef {
		t.Fatalf("ResolveName = %q, want %q", got, placeholderUnknownRef)
	}
}

func TestResolveIncompleteToken(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00}
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	got := res.ResolveName(buf, 0)
	if got != placeholderIncompleteRef {
		t.Fatalf("ResolveName = %q, want %q", got, placeholderIncompleteRef)
	}
}

func TestResolveInvalidOffset(t *testing.T) {
	buf := make([]byte, 16)
	buf[0] = 0x01
	// delta pushes the target far outside the buffer.
	binary.LittleEndian.PutUint32(buf[1:5], uint32(int32(1_000_000)))
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	got := res.ResolveName(buf[0:5], 0)
	if got != placeholderInvalidOffset {
		t.Fatalf("ResolveName = %q, want %q", got, placeholderInvalidOffset)
	}
}

func TestResolvePlainTextDelegatesToDemangle(t *testing.T) {
	r := reader.New(make([]byte, 8), nil, nil)
	res := New(r, nil)

	got := res.ResolveName([]byte("SiSg"), 0)
	if got != "Int?" {
		t.Fatalf("ResolveName = %q, want %q", got, "Int?")
	}
}

func TestResolveOptionalSuffixAfterToken(t *testing.T) {
	buf, typeOff := buildModuleAndType()
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	tokOff := int64(200)
	buf[tokOff] = 0x01
	delta := int32(typeOff - (tokOff + 1))
	binary.LittleEndian.PutUint32(buf[tokOff+1:tokOff+5], uint32(delta))

	data := append(buf[tokOff:tokOff+5:tokOff+5], []byte("Sg")...)
	got := res.ResolveName(data, tokOff)
	if got != "MyModule.Widget?" {
		t.Fatalf("ResolveName = %q, want %q", got, "MyModule.Widget?")
	}
}

// stubFixups is a minimal types.ChainedFixups used to exercise the
// indirect-context bind/rebase paths.
type stubFixups struct {
	result types.FixupResult
	ok     bool
	names  map[uint32]string
}

func (s stubFixups) DecodePointer(raw uint64) (types.FixupResult, bool) {
	return s.result, s.ok
}

func (s stubFixups) SymbolName(ordinal uint32) (string, bool) {
	n, ok := s.names[ordinal]
	return n, ok
}

func TestResolveIndirectContextRebase(t *testing.T) {
	buf, typeOff := buildModuleAndType()
	const ptrSlot = 160
	binary.LittleEndian.PutUint64(buf[ptrSlot:ptrSlot+8], 0xdead)

	segs := []reader.Segment{{VMAddr: 0xdead, VMSize: 0x1000, FileOff: uint64(typeOff)}}
	r := reader.New(buf, segs, nil)
	fixups := stubFixups{ok: true, result: types.FixupResult{Kind: types.FixupRebase, VMAddress: 0xdead}}
	res := New(r, fixups)

	tokOff := int64(200)
	buf[tokOff] = 0x02
	delta := int32(ptrSlot - (tokOff + 1))
	binary.LittleEndian.PutUint32(buf[tokOff+1:tokOff+5], uint32(delta))

	got := res.ResolveName(buf[tokOff:tokOff+5], tokOff)
	if got != "MyModule.Widget" {
		t.Fatalf("ResolveName = %q, want %q", got, "MyModule.Widget")
	}
}

func TestResolveIndirectContextBindIsExternal(t *testing.T) {
	buf := make([]byte, 256)
	const ptrSlot = 160
	binary.LittleEndian.PutUint64(buf[ptrSlot:ptrSlot+8], 0x1234)

	r := reader.New(buf, nil, nil)
	fixups := stubFixups{ok: true, result: types.FixupResult{Kind: types.FixupBind, Ordinal: 3}}
	res := New(r, fixups)

	tokOff := int64(200)
	buf[tokOff] = 0x02
	delta := int32(ptrSlot - (tokOff + 1))
	binary.LittleEndian.PutUint32(buf[tokOff+1:tokOff+5], uint32(delta))

	got := res.ResolveName(buf[tokOff:tokOff+5], tokOff)
	if got != placeholderExternalType {
		t.Fatalf("ResolveName = %q, want %q", got, placeholderExternalType)
	}
}

func TestResolveDirectObjCProtocol(t *testing.T) {
	buf := make([]byte, 256)
	copy(buf[100:], "NSCoding\x00")

	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	tokOff := int64(200)
	buf[tokOff] = 0x09
	delta := int32(100 - (tokOff + 1))
	binary.LittleEndian.PutUint32(buf[tokOff+1:tokOff+5], uint32(delta))

	got := res.ResolveName(buf[tokOff:tokOff+5], tokOff)
	if got != "NSCoding" {
		t.Fatalf("ResolveName = %q, want %q", got, "NSCoding")
	}
}

// TestResolveMixedBinaryArray builds the "Say<symbolic-token>G" byte
// sequence from §8 scenario 5 — an array type whose element name is an
// embedded symbolic reference rather than plain mangled text — and checks
// it resolves through the Mixed parser to "[MyModule.Widget]".
func TestResolveMixedBinaryArray(t *testing.T) {
	buf, typeOff := buildModuleAndType()
	r := reader.New(buf, nil, nil)
	res := New(r, nil)

	const dataOff = 200
	buf[dataOff+0] = 'S'
	buf[dataOff+1] = 'a'
	buf[dataOff+2] = 'y'
	buf[dataOff+3] = 0x01
	delta := int32(typeOff - (dataOff + 4))
	binary.LittleEndian.PutUint32(buf[dataOff+4:dataOff+8], uint32(delta))
	buf[dataOff+8] = 'G'

	got := res.ResolveName(buf[dataOff:dataOff+9], dataOff)
	want := "[MyModule.Widget]"
	if got != want {
		t.Fatalf("ResolveName = %q, want %q", got, want)
	}
}

func TestResolveMixedBinaryFallsBackToTolerantConcat(t *testing.T) {
	buf := make([]byte, 64)
	buf[0] = 'X'
	buf[1] = 0x01 // embedded marker with no valid token framing follows
	r := reader.New(buf[:2], nil, nil)
	res := New(r, nil)

	got := res.ResolveName(buf[0:2], 0)
	if got != "X" {
		t.Fatalf("ResolveName = %q, want %q", got, "X")
	}
}

func TestIsPlaceholder(t *testing.T) {
	if !IsPlaceholder(placeholderUnknownRef) {
		t.Fatalf("expected placeholder to be recognised")
	}
	if IsPlaceholder("MyModule.Widget") {
		t.Fatalf("resolved name should not be reported as a placeholder")
	}
}
