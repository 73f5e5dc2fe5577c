package swift

import (
	"encoding/binary"
	"testing"

	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// fakeImage is a minimal types.Image backed by a plain byte slice, for
// exercising Build without a real Mach-O file.
type fakeImage struct {
	data     []byte
	sections map[string][2]uint32 // "segment/section" -> [offset, size]
}

func newFakeImage(size int) *fakeImage {
	return &fakeImage{data: make([]byte, size), sections: make(map[string][2]uint32)}
}

func (f *fakeImage) Bytes() []byte                { return f.data }
func (f *fakeImage) ByteOrder() binary.ByteOrder   { return binary.LittleEndian }
func (f *fakeImage) Segments() []reader.Segment    { return nil }
func (f *fakeImage) ChainedFixups() types.ChainedFixups { return nil }

func (f *fakeImage) FindSection(segment, section string) (uint32, uint32, bool) {
	v, ok := f.sections["__TEXT/"+section]
	if !ok {
		return 0, 0, false
	}
	return v[0], v[1], true
}

func (f *fakeImage) addSection(name string, offset, size uint32) {
	f.sections["__TEXT/"+name] = [2]uint32{offset, size}
}

func (f *fakeImage) putU32(off int64, v uint32) {
	binary.LittleEndian.PutUint32(f.data[off:], v)
}

func (f *fakeImage) putRelPtr(off, target int64) {
	f.putU32(off, uint32(int32(target-off)))
}

func (f *fakeImage) putCString(off int64, s string) {
	copy(f.data[off:], s)
	f.data[off+int64(len(s))] = 0
}

func TestBuildCollatesOneStructAndItsConformance(t *testing.T) {
	img := newFakeImage(1024)

	// Module descriptor.
	const moduleAt = 0x100
	img.putU32(moduleAt+0, 0)
	img.putCString(0x1A0, "Geometry")
	img.putRelPtr(moduleAt+8, 0x1A0)

	// Struct descriptor "Geometry.Point".
	const structAt = 0x000
	img.putU32(structAt+0, 17) // kind=struct
	img.putRelPtr(structAt+4, moduleAt)
	img.putCString(0x1C0, "Point")
	img.putRelPtr(structAt+8, 0x1C0)
	img.putU32(structAt+12, 0) // accessFunc
	img.putU32(structAt+16, 0) // fields

	img.addSection("__swift5_types", 0x40, 4)
	img.putRelPtr(0x40, structAt)

	// Protocol descriptor "Equatable"-like standalone protocol.
	const protoAt = 0x200
	img.putU32(protoAt+0, 3) // kind=protocol
	img.putRelPtr(protoAt+4, moduleAt)
	img.putCString(0x2A0, "Shape")
	img.putRelPtr(protoAt+8, 0x2A0)

	// Conformance record: Point conforms to Shape.
	const confAt = 0x300
	img.putRelPtr(confAt+0, protoAt)  // protocol descriptor relptr
	img.putRelPtr(confAt+4, structAt) // type reference (kind=direct, default 0)
	img.putU32(confAt+12, 0)          // flags: refKind=direct(0), no conditional reqs

	img.addSection("__swift5_proto", 0x48, 4)
	img.putRelPtr(0x48, confAt)

	inv := Build(img)

	if len(inv.Types) != 1 {
		t.Fatalf("Types = %d, want 1", len(inv.Types))
	}
	got := inv.Types[0]
	if got.FullName != "Geometry.Point" {
		t.Errorf("FullName = %q, want Geometry.Point", got.FullName)
	}

	if len(inv.Conformances) != 1 {
		t.Fatalf("Conformances = %d, want 1", len(inv.Conformances))
	}
	c := inv.Conformances[0]
	if c.ProtocolName != "Geometry.Shape" {
		t.Errorf("ProtocolName = %q, want Geometry.Shape", c.ProtocolName)
	}

	byProto := inv.ConformancesForProtocol("Geometry.Shape")
	if len(byProto) != 1 {
		t.Fatalf("ConformancesForProtocol(Geometry.Shape) = %d, want 1", len(byProto))
	}

	if _, ok := inv.TypeByFullName("Geometry.Point"); !ok {
		t.Error("TypeByFullName(Geometry.Point) should find the struct")
	}
	if _, ok := inv.TypeByFullName("Nonexistent.Type"); ok {
		t.Error("TypeByFullName should not find an unknown type")
	}
}

func TestBuildSkipsMissingSections(t *testing.T) {
	img := newFakeImage(64)
	inv := Build(img)

	if len(inv.Types) != 0 || len(inv.Conformances) != 0 || len(inv.FieldDescriptors) != 0 {
		t.Fatalf("expected empty Inventory for an image with no reflection sections, got %+v", inv)
	}
}
