package machoimage

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// putCString writes s into b, zero-padding the rest.
func putCString(b []byte, s string) {
	copy(b, s)
}

// buildMachO assembles a minimal 64-bit Mach-O buffer with one LC_SEGMENT_64
// load command carrying a single section, for parser tests.
func buildMachO(segName, secName string, secOff, secSize uint32) []byte {
	bo := binary.LittleEndian
	const ncmds = 1
	cmdSize := uint32(segment64Size + section64Size)

	buf := make([]byte, fileHeaderSize64+int(cmdSize))
	bo.PutUint32(buf[0:4], magic64)
	bo.PutUint32(buf[16:20], ncmds)
	bo.PutUint32(buf[20:24], cmdSize)

	off := fileHeaderSize64
	bo.PutUint32(buf[off:off+4], lcSegment64)
	bo.PutUint32(buf[off+4:off+8], cmdSize)
	putCString(buf[off+8:off+24], segName)
	bo.PutUint64(buf[off+24:off+32], 0x100000000) // vmaddr
	bo.PutUint64(buf[off+32:off+40], 0x1000)       // vmsize
	bo.PutUint64(buf[off+40:off+48], 0)            // fileoff
	bo.PutUint64(buf[off+48:off+56], 0x1000)       // filesize
	bo.PutUint32(buf[off+64:off+68], 1)            // nsects

	secOffset := off + segment64Size
	putCString(buf[secOffset:secOffset+16], secName)
	putCString(buf[secOffset+16:secOffset+32], segName)
	bo.PutUint64(buf[secOffset+32:secOffset+40], 0x100000100) // addr
	bo.PutUint64(buf[secOffset+40:secOffset+48], uint64(secSize))
	bo.PutUint32(buf[secOffset+48:secOffset+52], secOff)

	return buf
}

func TestOpenBytesParsesSegmentAndSection(t *testing.T) {
	buf := buildMachO("__TEXT", "__swift5_types", 0x200, 0x40)
	img, err := newFromBytes(buf)
	if err != nil {
		t.Fatalf("newFromBytes: %v", err)
	}

	wantSegs := []reader.Segment{{VMAddr: 0x100000000, VMSize: 0x1000, FileOff: 0, FileSize: 0x1000}}
	if diff := cmp.Diff(wantSegs, img.Segments()); diff != "" {
		t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
	}

	off, size, ok := img.FindSection("__TEXT", "__swift5_types")
	if !ok {
		t.Fatal("FindSection returned ok=false")
	}
	if off != 0x200 || size != 0x40 {
		t.Errorf("FindSection = (%#x, %#x); want (0x200, 0x40)", off, size)
	}

	if _, _, ok := img.FindSection("__TEXT", "__swift5_proto"); ok {
		t.Error("FindSection found a section that was never written")
	}
}

func TestOpenBytesRejectsBadMagic(t *testing.T) {
	buf := make([]byte, fileHeaderSize64)
	binary.LittleEndian.PutUint32(buf[0:4], 0xdeadbeef)
	if _, err := newFromBytes(buf); err == nil {
		t.Error("newFromBytes accepted a bad magic number")
	}
}

func TestOpenBytesRejectsTruncatedHeader(t *testing.T) {
	if _, err := newFromBytes([]byte{0x01, 0x02}); err == nil {
		t.Error("newFromBytes accepted a truncated header")
	}
}

func TestChainedFixupsArm64eRebaseAndBind(t *testing.T) {
	fx := &chainedFixups{format: dcPtrArm64e, baseAddr: 0x100000000, imports: []string{"_symbol_zero", "_symbol_one"}}

	// Rebase: bind bit (62) and auth bit (63) clear, target in the low 43 bits.
	rebaseRaw := uint64(0x10)
	got, ok := fx.DecodePointer(rebaseRaw)
	if !ok {
		t.Fatal("DecodePointer(rebase) ok=false")
	}
	want := types.FixupResult{Kind: types.FixupRebase, VMAddress: 0x100000010}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rebase mismatch (-want +got):\n%s", diff)
	}

	// Bind: bind bit (62) set, ordinal 1 in the low 16 bits.
	bindRaw := uint64(1) | (uint64(1) << arm64eBindBit)
	got, ok = fx.DecodePointer(bindRaw)
	if !ok {
		t.Fatal("DecodePointer(bind) ok=false")
	}
	if got.Kind != types.FixupBind || got.Ordinal != 1 {
		t.Errorf("bind mismatch: got %+v", got)
	}
	name, ok := fx.SymbolName(got.Ordinal)
	if !ok || name != "_symbol_one" {
		t.Errorf("SymbolName(1) = %q, %v; want _symbol_one, true", name, ok)
	}
}

func TestChainedFixupsArm64eAuthIsUndecodable(t *testing.T) {
	fx := &chainedFixups{format: dcPtrArm64e}
	authRaw := uint64(1) << arm64eAuthBit
	if _, ok := fx.DecodePointer(authRaw); ok {
		t.Error("DecodePointer accepted an authenticated pointer")
	}
}

func TestChainedFixupsGeneric64RebaseAndBind(t *testing.T) {
	fx := &chainedFixups{format: dcPtr64, imports: []string{"_only_import"}}

	rebaseRaw := uint64(0x42)
	got, ok := fx.DecodePointer(rebaseRaw)
	if !ok || got.Kind != types.FixupRebase || got.VMAddress != 0x42 {
		t.Errorf("rebase mismatch: got %+v, ok=%v", got, ok)
	}

	bindRaw := uint64(0) | (uint64(1) << generic64BindBit)
	got, ok = fx.DecodePointer(bindRaw)
	if !ok || got.Kind != types.FixupBind || got.Ordinal != 0 {
		t.Errorf("bind mismatch: got %+v, ok=%v", got, ok)
	}
}

func TestSymbolNameOutOfRange(t *testing.T) {
	fx := &chainedFixups{imports: []string{"_a"}}
	if _, ok := fx.SymbolName(5); ok {
		t.Error("SymbolName(5) ok=true for an empty import slot")
	}
}
