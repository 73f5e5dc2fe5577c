// Package walker implements the Descriptor Walker: it drives the Byte
// Reader across each reflection section's records, decodes each record's
// fixed-layout fields, and routes every mangled-name or symbolic-reference
// field through the Symbolic Resolver and the Demangler to produce the
// data model's fully-resolved records.
package walker

import (
	"github.com/swiftreflect/swiftreflect/internal/ctxheader"
	"github.com/swiftreflect/swiftreflect/internal/mangle"
	"github.com/swiftreflect/swiftreflect/internal/reader"
	"github.com/swiftreflect/swiftreflect/internal/symbolic"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// Context-descriptor header layout, shared by every type/extension/
// protocol/opaque-type descriptor (§3/§4.5 of the core's design).
const (
	offFlags      = 0
	offParent     = 4
	offName       = 8
	offAccessFunc = 12
	offFields     = 16
	baseTypeDescSize = 20 // flags, parent, name, accessFunc, fields

	// Extension descriptors carry flags, parent, and a single relative
	// pointer to the mangled extended-type name in place of name/accessFunc/
	// fields — a shorter 12-byte base before any generic header follows.
	offExtendedContext = 8
	extensionBaseSize   = 12
)

const (
	flagIsGeneric = 0x80
	classFlagHasResilientSuperclass = 1 << 13 // bit 13 of the kind-specific half-word
)

// genericHeaderSize is the size of TargetTypeGenericContextDescriptorHeader:
// InstantiationCache(4) + DefaultInstantiationPattern(4) + the base
// TargetGenericContextDescriptorHeader's four uint16 counts (8).
const genericHeaderSize = 16

const requirementRecordSize = 12

// paramNames synthesizes the generic parameter names the model requires:
// T, U, V, W for the first four, then T4, T5, ... beyond that.
func paramNames(n int) []string {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	base := []string{"T", "U", "V", "W"}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(base) {
			out = append(out, base[i])
			continue
		}
		out = append(out, "T"+itoa(i))
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// genericInfo is what parsing a context descriptor's optional generic
// header yields.
type genericInfo struct {
	present      bool
	params       []string
	requirements []types.GenericRequirement
	headerEnd    int64 // offset immediately after generics (params+requirements)
}

// parseGenericHeader reads the generic header and its trailing parameter
// and requirement arrays, starting at off (immediately after the base
// context-descriptor fields). If !isGeneric, it returns a zero genericInfo
// with headerEnd == off.
func parseGenericHeader(r *reader.Reader, res *symbolic.Resolver, off int64, isGeneric bool) genericInfo {
	if !isGeneric {
		return genericInfo{headerEnd: off}
	}

	numParamsRaw := int(r.U16(off + 8))
	numReqsRaw := int(r.U16(off + 10))
	numParams := clamp(numParamsRaw, 1, 16)
	numReqs := clamp(numReqsRaw, 0, 32)

	paramsStart := off + genericHeaderSize
	// Requirement records are 4-byte aligned; the 1-byte-per-param array is
	// padded up to the next multiple of 4 before they begin.
	reqsStart := paramsStart + int64(numParamsRaw)
	if rem := reqsStart % 4; rem != 0 {
		reqsStart += 4 - rem
	}

	names := paramNames(numParams)

	reqs := make([]types.GenericRequirement, 0, numReqs)
	for i := 0; i < numReqs; i++ {
		recOff := reqsStart + int64(i)*requirementRecordSize
		flags := r.U32(recOff)
		kind := decodeRequirementKind(flags & 0x1F)
		hasKeyArg := flags&0x80 != 0

		subject := names[clamp(i, 0, len(names)-1)]
		constraint := resolveReqTarget(r, res, recOff+8)

		reqs = append(reqs, types.GenericRequirement{
			Kind:           kind,
			Subject:        subject,
			Constraint:     constraint,
			HasKeyArgument: hasKeyArg,
		})
	}

	return genericInfo{
		present:      true,
		params:       names,
		requirements: reqs,
		headerEnd:    reqsStart + int64(numReqsRaw)*requirementRecordSize,
	}
}

func decodeRequirementKind(raw uint32) types.GenericRequirementKind {
	switch raw {
	case 1:
		return types.RequirementSameType
	case 2:
		return types.RequirementBaseClass
	case 3:
		return types.RequirementSameConformance
	case 0x1F:
		return types.RequirementLayout
	default:
		return types.RequirementProtocol
	}
}

// resolveReqTarget reads the relative pointer at off and resolves whatever
// it names: a raw mangled-text byte string, a symbolic-reference token, or
// (most commonly, for a protocol requirement) a direct reference to
// another context descriptor.
func resolveReqTarget(r *reader.Reader, res *symbolic.Resolver, off int64) string {
	target, ok := r.RelPtrOK(off)
	if !ok {
		return ""
	}
	if name, ok := res.DescriptorName(target); ok && name != "" {
		return name
	}
	data := r.NULTerminatedData(target)
	if data == nil {
		return ""
	}
	return res.ResolveName(data, target)
}

// WalkTypes walks the __swift5_types section, parsing every entry whose
// descriptor kind is a type kind (class/struct/enum) into a SwiftType.
// Extension-kind entries in the same section are skipped — WalkExtensions
// handles those.
func WalkTypes(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.SwiftType {
	var out []types.SwiftType
	walkPointerArray(r, sec, func(at int64) {
		kind := ctxheader.Kind(r, at)
		if kind != uint8(types.KindClass) && kind != uint8(types.KindStruct) && kind != uint8(types.KindEnum) {
			return
		}
		t, ok := parseType(r, res, at, types.DescriptorKind(kind))
		if ok {
			out = append(out, t)
		}
	})
	return out
}

func parseType(r *reader.Reader, res *symbolic.Resolver, at int64, kind types.DescriptorKind) (types.SwiftType, bool) {
	hdr, ok := ctxheader.Read(r, at)
	if !ok {
		return types.SwiftType{}, false
	}
	flags := r.U32(at + offFlags)
	isGeneric := flags&flagIsGeneric != 0

	parentName := ""
	var parentKind types.DescriptorKind
	if parent, ok := ctxheader.Parent(r, at); ok {
		parentName = parent.Name
		parentKind = types.DescriptorKind(parent.Kind)
	}
	fullName := hdr.Name
	if parentName != "" && parentName != "Swift" {
		fullName = parentName + "." + hdr.Name
	}

	gi := parseGenericHeader(r, res, at+baseTypeDescSize, isGeneric)

	superclassName := ""
	if kind == types.KindClass {
		if target, ok := r.RelPtrOK(gi.headerEnd); ok {
			if full := r.NULTerminatedData(target); full != nil {
				superclassName = res.ResolveName(full, target)
			}
		}
	}

	return types.SwiftType{
		Address:        at,
		Kind:           kind,
		Name:           hdr.Name,
		ParentName:     parentName,
		ParentKind:     parentKind,
		FullName:       fullName,
		SuperclassName: superclassName,
		IsGeneric:      isGeneric,
		GenericParams:  gi.params,
		Requirements:   gi.requirements,
		Flags:          flags,
	}, true
}

// WalkExtensions walks the __swift5_types section's extension-kind
// entries into SwiftExtensions.
func WalkExtensions(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.SwiftExtension {
	var out []types.SwiftExtension
	walkPointerArray(r, sec, func(at int64) {
		if ctxheader.Kind(r, at) != uint8(types.KindExtension) {
			return
		}
		flags := r.U32(at + offFlags)
		isGeneric := flags&flagIsGeneric != 0

		extendedTypeName := ""
		if target, ok := r.RelPtrOK(at + offExtendedContext); ok {
			if full := r.NULTerminatedData(target); full != nil {
				extendedTypeName = res.ResolveName(full, target)
			}
		}

		moduleName := ""
		if parent, ok := ctxheader.Parent(r, at); ok {
			moduleName = parent.Name
		}

		gi := parseGenericHeader(r, res, at+extensionBaseSize, isGeneric)

		out = append(out, types.SwiftExtension{
			Address:          at,
			ExtendedTypeName: extendedTypeName,
			ModuleName:       moduleName,
			IsGeneric:        isGeneric,
			GenericParams:    gi.params,
			Requirements:     gi.requirements,
			Flags:            flags,
		})
	})
	return out
}

// WalkConformances walks the __swift5_proto section into SwiftConformances.
func WalkConformances(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.SwiftConformance {
	var out []types.SwiftConformance
	walkPointerArray(r, sec, func(at int64) {
		c, ok := parseConformance(r, res, at)
		if ok {
			out = append(out, c)
		}
	})
	return out
}

func parseConformance(r *reader.Reader, res *symbolic.Resolver, at int64) (types.SwiftConformance, bool) {
	protocolTarget, ok := r.RelPtrOK(at)
	if !ok {
		return types.SwiftConformance{}, false
	}
	protocolName, _ := res.DescriptorName(protocolTarget)

	flags := r.U32(at + 12)
	refKind := types.TypeReferenceKind(flags & 0x7)

	typeRefOff := at + 4
	typeName := resolveTypeReference(r, res, typeRefOff, refKind)

	numConditional := int((flags >> 8) & 0xFF)
	conditional := parseConditionalRequirements(r, res, at+16, numConditional)

	return types.SwiftConformance{
		Address:                 at,
		TypeName:                typeName,
		TypeReferenceKind:       refKind,
		ProtocolName:            protocolName,
		IsRetroactive:           flags&(1<<3) != 0,
		IsSynthesizedNonUnique:  flags&(1<<4) != 0,
		HasResilientWitnesses:   flags&(1<<5) != 0,
		HasGenericWitnessTable:  flags&(1<<6) != 0,
		ConditionalRequirements: conditional,
	}, true
}

func resolveTypeReference(r *reader.Reader, res *symbolic.Resolver, off int64, kind types.TypeReferenceKind) string {
	target, ok := r.RelPtrOK(off)
	if !ok {
		return ""
	}
	switch kind {
	case types.DirectTypeDescriptor, types.IndirectTypeDescriptor:
		name, _ := res.DescriptorName(target)
		return name
	case types.DirectObjCClass:
		name, _ := r.CString(target)
		return name
	case types.IndirectObjCClass:
		slot := r.U64(target)
		if off2, ok := r.AddrToFileOffset(slot); ok {
			name, _ := r.CString(off2)
			return name
		}
		return ""
	default:
		return ""
	}
}

// parseConditionalRequirements reads n generic-requirement records
// starting at off — the same fixed layout parseGenericHeader uses for a
// type's own requirement list.
func parseConditionalRequirements(r *reader.Reader, res *symbolic.Resolver, off int64, n int) []types.GenericRequirement {
	if n <= 0 {
		return nil
	}
	out := make([]types.GenericRequirement, 0, n)
	names := paramNames(n)
	for i := 0; i < n; i++ {
		recOff := off + int64(i)*requirementRecordSize
		flags := r.U32(recOff)
		out = append(out, types.GenericRequirement{
			Kind:           decodeRequirementKind(flags & 0x1F),
			Subject:        names[clamp(i, 0, len(names)-1)],
			Constraint:     resolveReqTarget(r, res, recOff+8),
			HasKeyArgument: flags&0x80 != 0,
		})
	}
	return out
}

// Field-descriptor layout constants (§4.5): a 16-byte header followed by
// NumFields records, each FieldRecordSize bytes.
const (
	fieldHdrMangledName = 0
	fieldHdrSuperclass  = 4
	fieldHdrKind        = 8
	fieldHdrRecordSize  = 10
	fieldHdrNumFields   = 12
	fieldHdrSize        = 16
)

// WalkFields walks the __swift5_fieldmd section. Unlike the other
// sections this one holds descriptors inline, back to back, rather than
// an array of pointers to them — each descriptor's declared record count
// and record size tells the walker exactly how far to advance even if a
// record fails to decode.
func WalkFields(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.SwiftFieldDescriptor {
	var out []types.SwiftFieldDescriptor
	end := int64(sec.Offset) + int64(sec.Size)
	cursor := int64(sec.Offset)

	for cursor < end {
		recordSize := int64(r.U16(cursor + fieldHdrRecordSize))
		numFields := int64(r.U32(cursor + fieldHdrNumFields))
		if recordSize <= 0 {
			recordSize = 12
		}
		if numFields < 0 || numFields > 100000 {
			numFields = 0
		}

		fd, ok := parseFieldDescriptor(r, res, cursor, recordSize, numFields)
		if ok {
			out = append(out, fd)
		}
		cursor += fieldHdrSize + numFields*recordSize
	}
	return out
}

func parseFieldDescriptor(r *reader.Reader, res *symbolic.Resolver, at, recordSize, numFields int64) (types.SwiftFieldDescriptor, bool) {
	kind := types.FieldDescriptorKind(r.U16(at + fieldHdrKind))

	typeName := ""
	if target, ok := r.RelPtrOK(at + fieldHdrMangledName); ok {
		if full := r.NULTerminatedData(target); full != nil {
			typeName = res.ResolveName(full, target)
		}
	}
	superName := ""
	if target, ok := r.RelPtrOK(at + fieldHdrSuperclass); ok && target != 0 {
		if full := r.NULTerminatedData(target); full != nil {
			superName = res.ResolveName(full, target)
		}
	}

	recordsStart := at + fieldHdrSize
	records := make([]types.SwiftFieldRecord, 0, numFields)
	for i := int64(0); i < numFields; i++ {
		recOff := recordsStart + i*recordSize
		rec, ok := parseFieldRecord(r, res, recOff)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return types.SwiftFieldDescriptor{
		Address:               at,
		Kind:                  kind,
		TypeName:              typeName,
		SuperclassMangledName: superName,
		Records:               records,
	}, true
}

func parseFieldRecord(r *reader.Reader, res *symbolic.Resolver, at int64) (types.SwiftFieldRecord, bool) {
	flags := types.FieldRecordFlags(r.U32(at))
	name, ok := r.RelString(at + 8)
	if !ok {
		return types.SwiftFieldRecord{}, false
	}

	mangledOff := at + 4
	target, hasTarget := r.RelPtrOK(mangledOff)
	mangledName := ""
	var raw []byte
	if hasTarget {
		raw = r.NULTerminatedData(target)
		if raw != nil {
			mangledName = res.ResolveName(raw, target)
		}
	}

	return types.SwiftFieldRecord{
		Flags:               flags,
		Name:                name,
		MangledTypeName:      mangledName,
		MangledTypeRawBytes: raw,
		MangledTypeOffset:   target,
	}, true
}

// WalkBuiltins walks the __swift5_builtin section.
func WalkBuiltins(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.BuiltinType {
	const recordSize = 20 // mangled-name relptr(4) + size(4) + alignment(4) + stride(4) + numExtraInhabitants-and-flags(4)
	var out []types.BuiltinType
	end := int64(sec.Offset) + int64(sec.Size)
	for at := int64(sec.Offset); at+recordSize <= end; at += recordSize {
		name := ""
		if target, ok := r.RelPtrOK(at); ok {
			if full := r.NULTerminatedData(target); full != nil {
				name = res.ResolveName(full, target)
			}
		}
		sizeAlignStrideFlags := r.U32(at + 16)
		out = append(out, types.BuiltinType{
			Address:             at,
			TypeName:            name,
			Size:                r.U32(at + 4),
			Alignment:           r.U32(at + 8) & 0xFFFF,
			Stride:              r.U32(at + 12),
			NumExtraInhabitants: sizeAlignStrideFlags & 0x7FFFFFFF,
			IsBitwiseTakable:    sizeAlignStrideFlags&0x80000000 != 0,
		})
	}
	return out
}

// WalkProtocolDeclarations walks the __swift5_protos section into
// standalone ProtocolDeclarations.
func WalkProtocolDeclarations(r *reader.Reader, sec types.Section) []types.ProtocolDeclaration {
	var out []types.ProtocolDeclaration
	walkPointerArray(r, sec, func(at int64) {
		if ctxheader.Kind(r, at) != uint8(types.KindProtocol) {
			return
		}
		hdr, ok := ctxheader.Read(r, at)
		if !ok {
			return
		}
		parentName := ""
		if parent, ok := ctxheader.Parent(r, at); ok {
			parentName = parent.Name
		}
		numReqs := int(r.U32(at + 16))
		out = append(out, types.ProtocolDeclaration{
			Address:         at,
			Name:            hdr.Name,
			ParentName:      parentName,
			NumRequirements: clamp(numReqs, 0, 32),
		})
	})
	return out
}

// WalkCaptures walks the __swift5_capture section into CaptureDescriptors.
func WalkCaptures(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.CaptureDescriptor {
	const hdrSize = 12 // numCaptureTypes(4) + numMetadataSources(4) + numBindings(4)
	var out []types.CaptureDescriptor
	end := int64(sec.Offset) + int64(sec.Size)
	cursor := int64(sec.Offset)

	for cursor < end {
		numCaptures := int64(r.U32(cursor))
		numSources := int64(r.U32(cursor + 4))
		if numCaptures < 0 || numCaptures > 10000 || numSources < 0 || numSources > 10000 {
			break
		}

		var captures []types.CaptureTypeRecord
		capOff := cursor + hdrSize
		for i := int64(0); i < numCaptures; i++ {
			off := capOff + i*4
			if target, ok := r.RelPtrOK(off); ok {
				if full := r.NULTerminatedData(target); full != nil {
					captures = append(captures, types.CaptureTypeRecord{MangledTypeName: res.ResolveName(full, target)})
				}
			}
		}

		var sources []types.MetadataSourceRecord
		srcOff := capOff + numCaptures*4
		for i := int64(0); i < numSources; i++ {
			off := srcOff + i*8
			typeName := ""
			if target, ok := r.RelPtrOK(off); ok {
				if full := r.NULTerminatedData(target); full != nil {
					typeName = res.ResolveName(full, target)
				}
			}
			sourceText := ""
			if target, ok := r.RelPtrOK(off + 4); ok {
				if full := r.NULTerminatedData(target); full != nil {
					sourceText = mangle.Demangle(string(full))
				}
			}
			sources = append(sources, types.MetadataSourceRecord{
				MangledTypeName:       typeName,
				MangledMetadataSource: sourceText,
			})
		}

		out = append(out, types.CaptureDescriptor{
			Address:         cursor,
			CaptureTypes:    captures,
			MetadataSources: sources,
		})

		cursor = srcOff + numSources*8
	}
	return out
}

// WalkAssociatedTypes walks the __swift5_assocty section.
func WalkAssociatedTypes(r *reader.Reader, sec types.Section, res *symbolic.Resolver) []types.AssociatedType {
	const hdrSize = 12 // conformingTypeName relptr, protocolTypeName relptr, numAssociations u32
	var out []types.AssociatedType
	end := int64(sec.Offset) + int64(sec.Size)
	cursor := int64(sec.Offset)

	for cursor < end {
		numAssoc := int64(r.U32(cursor + 8))
		if numAssoc < 0 || numAssoc > 10000 {
			break
		}

		conforming := resolveMangledAt(r, res, cursor)
		protocol := resolveMangledAt(r, res, cursor+4)

		names := make(map[string]string, numAssoc)
		recOff := cursor + hdrSize
		for i := int64(0); i < numAssoc; i++ {
			at := recOff + i*8
			name, _ := r.RelString(at)
			sub := resolveMangledAt(r, res, at+4)
			if name != "" {
				names[name] = sub
			}
		}

		out = append(out, types.AssociatedType{
			Address:            cursor,
			ConformingTypeName: conforming,
			ProtocolTypeName:   protocol,
			AssociatedTypeNames: names,
		})

		cursor = recOff + numAssoc*8
	}
	return out
}

func resolveMangledAt(r *reader.Reader, res *symbolic.Resolver, off int64) string {
	target, ok := r.RelPtrOK(off)
	if !ok {
		return ""
	}
	full := r.NULTerminatedData(target)
	if full == nil {
		return ""
	}
	return res.ResolveName(full, target)
}

// walkPointerArray iterates a section laid out as an array of 4-byte
// self-relative pointers, invoking fn with each pointer's resolved target
// file offset.
func walkPointerArray(r *reader.Reader, sec types.Section, fn func(target int64)) {
	end := int64(sec.Offset) + int64(sec.Size)
	for off := int64(sec.Offset); off+4 <= end; off += 4 {
		target, ok := r.RelPtrOK(off)
		if !ok {
			continue
		}
		fn(target)
	}
}
