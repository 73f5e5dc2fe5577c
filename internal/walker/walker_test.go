package walker

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/internal/symbolic"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// buf is a small growable byte-buffer builder for hand-crafting
// reflection-section fixtures at known offsets.
type buf struct {
	b []byte
}

func newBuf(size int) *buf { return &buf{b: make([]byte, size)} }

func (b *buf) putU32(off int64, v uint32) {
	b.grow(off + 4)
	binary.LittleEndian.PutUint32(b.b[off:], v)
}

func (b *buf) putU16(off int64, v uint16) {
	b.grow(off + 2)
	binary.LittleEndian.PutUint16(b.b[off:], v)
}

func (b *buf) putRelPtr(off, target int64) {
	b.putU32(off, uint32(int32(target-off)))
}

func (b *buf) putCString(off int64, s string) {
	b.grow(off + int64(len(s)) + 1)
	copy(b.b[off:], s)
	b.b[off+int64(len(s))] = 0
}

func (b *buf) grow(n int64) {
	if int64(len(b.b)) < n {
		grown := make([]byte, n)
		copy(grown, b.b)
		b.b = grown
	}
}

func TestWalkTypesDecodesAStruct(t *testing.T) {
	b := newBuf(256)

	// Module context descriptor at 0x40: kind=module(0), name -> "MyMod".
	const moduleAt = 0x40
	b.putU32(moduleAt+0, 0) // flags: kind=module
	b.putU32(moduleAt+4, 0) // parent
	b.putCString(0x80, "MyMod")
	b.putRelPtr(moduleAt+8, 0x80)

	// Struct context descriptor at 0x00: kind=17(struct), parent=module,
	// name -> "Point", not generic.
	const structAt = 0x00
	b.putU32(structAt+offFlags, 17) // kind=struct, not generic
	b.putRelPtr(structAt+offParent, moduleAt)
	b.putCString(0x90, "Point")
	b.putRelPtr(structAt+offName, 0x90)
	b.putU32(structAt+offAccessFunc, 0)
	b.putU32(structAt+offFields, 0)

	// Pointer array section pointing at the struct descriptor.
	const sectionOff = 0xA0
	b.putRelPtr(sectionOff, structAt)

	r := reader.New(b.b, nil, nil)
	res := symbolic.New(r, nil)
	sec := types.Section{Offset: sectionOff, Size: 4}

	got := WalkTypes(r, sec, res)
	want := []types.SwiftType{
		{
			Address:    structAt,
			Kind:       types.KindStruct,
			Name:       "Point",
			ParentName: "MyMod",
			ParentKind: types.KindModule,
			FullName:   "MyMod.Point",
			Flags:      17,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WalkTypes() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkFieldsDecodesOneStructWithTwoRecords(t *testing.T) {
	b := newBuf(256)

	const descAt = 0x00
	b.putU32(descAt+fieldHdrMangledName, 0) // no type name
	b.putU32(descAt+fieldHdrSuperclass, 0)  // no superclass
	b.putU16(descAt+fieldHdrKind, uint16(types.FieldDescStruct))
	b.putU16(descAt+fieldHdrRecordSize, 12)
	b.putU32(descAt+fieldHdrNumFields, 2)

	rec0 := descAt + fieldHdrSize
	b.putU32(rec0+0, uint32(types.FieldIsVar))
	b.putCString(0x50, "x")
	b.putRelPtr(rec0+8, 0x50)

	rec1 := rec0 + 12
	b.putU32(rec1+0, uint32(types.FieldIsVar))
	b.putCString(0x60, "y")
	b.putRelPtr(rec1+8, 0x60)

	r := reader.New(b.b, nil, nil)
	res := symbolic.New(r, nil)
	sec := types.Section{Offset: descAt, Size: fieldHdrSize + 2*12}

	got := WalkFields(r, sec, res)
	if len(got) != 1 {
		t.Fatalf("WalkFields() returned %d descriptors, want 1", len(got))
	}
	fd := got[0]
	if fd.Kind != types.FieldDescStruct {
		t.Errorf("Kind = %v, want struct", fd.Kind)
	}
	if len(fd.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(fd.Records))
	}
	if fd.Records[0].Name != "x" || fd.Records[1].Name != "y" {
		t.Errorf("Records = %+v, want names x, y", fd.Records)
	}
	if !fd.Records[0].Flags.IsVar() {
		t.Error("Records[0] should be flagged IsVar")
	}
}

func TestWalkProtocolDeclarations(t *testing.T) {
	b := newBuf(256)

	const moduleAt = 0x40
	b.putU32(moduleAt+0, 0)
	b.putCString(0x80, "MyMod")
	b.putRelPtr(moduleAt+8, 0x80)

	const protoAt = 0x00
	b.putU32(protoAt+offFlags, 3) // kind=protocol
	b.putRelPtr(protoAt+offParent, moduleAt)
	b.putCString(0x90, "Runnable")
	b.putRelPtr(protoAt+offName, 0x90)
	b.putU32(protoAt+16, 2) // numRequirements at +16

	const sectionOff = 0xA0
	b.putRelPtr(sectionOff, protoAt)

	r := reader.New(b.b, nil, nil)
	sec := types.Section{Offset: sectionOff, Size: 4}

	got := WalkProtocolDeclarations(r, sec)
	want := []types.ProtocolDeclaration{
		{Address: protoAt, Name: "Runnable", ParentName: "MyMod", NumRequirements: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WalkProtocolDeclarations() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkPointerArraySkipsUnresolvableEntries(t *testing.T) {
	b := newBuf(64)
	// A relptr whose target would be negative must be skipped, not panic.
	b.putU32(0, 0xFFFF0000)

	r := reader.New(b.b, nil, nil)
	sec := types.Section{Offset: 0, Size: 4}

	var calls int
	walkPointerArray(r, sec, func(int64) { calls++ })
	if calls != 0 {
		t.Errorf("walkPointerArray called fn %d times, want 0", calls)
	}
}

func TestParamNamesUsesLetterThenNumberedForm(t *testing.T) {
	got := paramNames(6)
	want := []string{"T", "U", "V", "W", "T4", "T5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paramNames(6) mismatch (-want +got):\n%s", diff)
	}
}
