package machoimage

import (
	"encoding/binary"

	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// Chained-fixup pointer formats this package decodes. Mirrors the
// teacher's DCPtrKind enum, trimmed to the two formats arm64e and x86_64
// Swift binaries actually use.
const (
	dcPtrArm64e    = 1
	dcPtr64        = 2
	dcPtr64Offset  = 6
)

// Bit layouts for a single arm64e chained pointer (DYLD_CHAINED_PTR_ARM64E),
// unauthenticated rebase/bind forms only — authenticated pointers (pointer
// signing) are out of scope, the core only needs the VM target or bind
// ordinal a pointer resolves to, never its signing diversifier.
const (
	arm64eBindBit  = 62
	arm64eAuthBit  = 63
	arm64eOrdinalBits = 16
	arm64eAddendShift = 32
	arm64eAddendBits  = 19
	arm64eTargetBits  = 43
)

// Bit layout for DYLD_CHAINED_PTR_64 / DYLD_CHAINED_PTR_64_OFFSET.
const (
	generic64BindBit    = 63
	generic64OrdinalBits = 24
	generic64AddendShift = 24
	generic64AddendBits  = 8
	generic64TargetBits  = 36
)

const dcImportUncompressed = 1 // DC_IMPORT: 4-byte entries, plain names

// chainedFixups is a minimal, single-pointer-decode view over one image's
// LC_DYLD_CHAINED_FIXUPS payload: given a raw 8-byte pointer slot already
// read out of the image, it tells the caller whether that slot encodes a
// bind or a rebase and what it resolves to. It never walks a fixup chain
// itself — the core hands it one pointer value at a time via
// ChainedFixups.DecodePointer.
type chainedFixups struct {
	format   uint16 // DCPtrKind, sniffed from the first segment's starts record
	imports  []string
	baseAddr uint64 // preferred load address: the lowest segment vmaddr, added to a decoded rebase runtime-offset to recover the actual vmAddr
}

func extractBits(x uint64, start, nbits uint) uint64 {
	return (x >> start) & (1<<nbits - 1)
}

// parseChainedFixups reads the dyld_chained_fixups_header and its imports
// table from payload (the raw LC_DYLD_CHAINED_FIXUPS bytes), and sniffs the
// pointer format from the first dyld_chained_starts_in_segment record it
// can find. Only the DC_IMPORT (uncompressed, 4-byte) import format is
// supported; anything else yields an empty import table rather than an
// error, since bind-ordinal resolution is best-effort metadata, not core
// walking behaviour.
func parseChainedFixups(payload []byte, baseAddr uint64) (*chainedFixups, error) {
	if len(payload) < 24 {
		return &chainedFixups{format: dcPtrArm64e, baseAddr: baseAddr}, nil
	}
	bo := binary.LittleEndian
	startsOffset := bo.Uint32(payload[4:8])
	importsOffset := bo.Uint32(payload[8:12])
	symbolsOffset := bo.Uint32(payload[12:16])
	importsCount := bo.Uint32(payload[16:20])
	importsFormat := bo.Uint32(payload[20:24])

	fx := &chainedFixups{format: dcPtrArm64e, baseAddr: baseAddr}

	if startsOffset > 0 && int(startsOffset)+8 <= len(payload) {
		segCount := bo.Uint32(payload[startsOffset : startsOffset+4])
		for i := 0; i < int(segCount) && int(startsOffset)+8+4*i <= len(payload); i++ {
			segInfoOff := bo.Uint32(payload[int(startsOffset)+4+4*i:])
			if segInfoOff == 0 {
				continue // this segment has no fixups
			}
			rec := int(startsOffset) + int(segInfoOff)
			if rec+8 <= len(payload) {
				fx.format = bo.Uint16(payload[rec+6 : rec+8]) // pointer_format follows size(4) and page_size(2)
			}
			break
		}
	}

	if importsFormat == dcImportUncompressed && importsCount > 0 {
		fx.imports = make([]string, 0, importsCount)
		for i := uint32(0); i < importsCount; i++ {
			entryOff := int(importsOffset) + int(i)*4
			if entryOff+4 > len(payload) {
				break
			}
			raw := bo.Uint32(payload[entryOff : entryOff+4])
			nameOff := extractBits(uint64(raw), 9, 23)
			start := int(symbolsOffset) + int(nameOff)
			if start >= len(payload) {
				fx.imports = append(fx.imports, "")
				continue
			}
			fx.imports = append(fx.imports, cString(payload[start:]))
		}
	}

	return fx, nil
}

// DecodePointer interprets raw as a chained-fixup pointer in whatever
// format this image's chain starts declared, following §6's contract: the
// core is handed a resolved bind/rebase decision, it never inspects the
// raw bit pattern itself.
func (fx *chainedFixups) DecodePointer(raw uint64) (types.FixupResult, bool) {
	switch fx.format {
	case dcPtrArm64e:
		return fx.decodeArm64e(raw)
	case dcPtr64, dcPtr64Offset:
		return fx.decodeGeneric64(raw)
	default:
		return fx.decodeArm64e(raw)
	}
}

func (fx *chainedFixups) decodeArm64e(raw uint64) (types.FixupResult, bool) {
	isAuth := extractBits(raw, arm64eAuthBit, 1) != 0
	if isAuth {
		// Authenticated pointers carry a diversifier/key instead of a
		// plain target or ordinal; the core has no use for either, so
		// treat them as undecodable rather than approximate them.
		return types.FixupResult{}, false
	}
	isBind := extractBits(raw, arm64eBindBit, 1) != 0
	if isBind {
		ordinal := uint32(extractBits(raw, 0, arm64eOrdinalBits))
		addend := extractBits(raw, arm64eAddendShift, arm64eAddendBits)
		return types.FixupResult{
			Kind:    types.FixupBind,
			Ordinal: ordinal,
			Addend:  signExtend(addend, arm64eAddendBits),
		}, true
	}
	target := extractBits(raw, 0, arm64eTargetBits)
	return types.FixupResult{
		Kind:      types.FixupRebase,
		VMAddress: fx.baseAddr + target,
	}, true
}

func (fx *chainedFixups) decodeGeneric64(raw uint64) (types.FixupResult, bool) {
	isBind := extractBits(raw, generic64BindBit, 1) != 0
	if isBind {
		ordinal := uint32(extractBits(raw, 0, generic64OrdinalBits))
		addend := extractBits(raw, generic64AddendShift, generic64AddendBits)
		return types.FixupResult{
			Kind:    types.FixupBind,
			Ordinal: ordinal,
			Addend:  int64(addend),
		}, true
	}
	target := extractBits(raw, 0, generic64TargetBits)
	if fx.format == dcPtr64Offset {
		target += fx.baseAddr
	}
	return types.FixupResult{
		Kind:      types.FixupRebase,
		VMAddress: target,
	}, true
}

// signExtend sign-extends the low nbits of v as a two's-complement value,
// matching the teacher's SignExtendedAddend handling for arm64e's 19-bit
// addend field.
func signExtend(v uint64, nbits uint) int64 {
	signBit := uint64(1) << (nbits - 1)
	if v&signBit != 0 {
		return int64(v | (^uint64(0) << nbits))
	}
	return int64(v)
}

// SymbolName returns the imported symbol name for a bind ordinal.
func (fx *chainedFixups) SymbolName(ordinal uint32) (string, bool) {
	if int(ordinal) >= len(fx.imports) {
		return "", false
	}
	return fx.imports[ordinal], true
}
