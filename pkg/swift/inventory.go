// Package swift is the core's public entry point: it drives the
// Descriptor Walker across an Image's reflection sections, collates the
// results into an Inventory with its lookup indices, and exposes the
// read-only Analyzer queries built on top of it.
package swift

import (
	"github.com/swiftreflect/swiftreflect/internal/symbolic"
	"github.com/swiftreflect/swiftreflect/internal/walker"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// Section names for the three core reflection sections plus the four
// supplemented ones.
const (
	sectionTypes    = "__swift5_types"
	sectionProto    = "__swift5_proto"
	sectionProtos   = "__swift5_protos"
	sectionFieldMD  = "__swift5_fieldmd"
	sectionBuiltin  = "__swift5_builtin"
	sectionCapture  = "__swift5_capture"
	sectionAssocTy  = "__swift5_assocty"
)

// Inventory is the terminal record of one image's reflection metadata:
// the flat lists the Descriptor Walker produced, plus the lookup indices
// built over them.
type Inventory struct {
	Types            []types.SwiftType
	Protocols        []string
	Conformances     []types.SwiftConformance
	Extensions       []types.SwiftExtension
	FieldDescriptors []types.SwiftFieldDescriptor

	Builtins             []types.BuiltinType
	Captures             []types.CaptureDescriptor
	AssociatedTypes      []types.AssociatedType
	ProtocolDeclarations []types.ProtocolDeclaration

	byName                  map[string]*types.SwiftType
	byFullName              map[string]*types.SwiftType
	byAddress               map[int64]*types.SwiftType
	conformancesByType      map[string][]types.SwiftConformance
	conformancesByProtocol  map[string][]types.SwiftConformance
	extensionsByType        map[string][]types.SwiftExtension
}

// Build walks every reflection section in img and returns the collated
// Inventory. Missing sections are simply skipped — not every image carries
// every section.
func Build(img types.Image) *Inventory {
	r := newReader(img)
	res := symbolic.New(r, img.ChainedFixups())

	inv := &Inventory{
		byName:                 make(map[string]*types.SwiftType),
		byFullName:             make(map[string]*types.SwiftType),
		byAddress:              make(map[int64]*types.SwiftType),
		conformancesByType:     make(map[string][]types.SwiftConformance),
		conformancesByProtocol: make(map[string][]types.SwiftConformance),
		extensionsByType:       make(map[string][]types.SwiftExtension),
	}

	if sec, ok := types.FindSwiftSection(img, sectionTypes); ok {
		inv.Types = walker.WalkTypes(r, sec, res)
		inv.Extensions = walker.WalkExtensions(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionProto); ok {
		inv.Conformances = walker.WalkConformances(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionFieldMD); ok {
		inv.FieldDescriptors = walker.WalkFields(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionBuiltin); ok {
		inv.Builtins = walker.WalkBuiltins(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionCapture); ok {
		inv.Captures = walker.WalkCaptures(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionAssocTy); ok {
		inv.AssociatedTypes = walker.WalkAssociatedTypes(r, sec, res)
	}
	if sec, ok := types.FindSwiftSection(img, sectionProtos); ok {
		inv.ProtocolDeclarations = walker.WalkProtocolDeclarations(r, sec)
	}

	inv.buildIndices()
	return inv
}

func (inv *Inventory) buildIndices() {
	seenProtocols := make(map[string]bool)

	for i := range inv.Types {
		t := &inv.Types[i]
		inv.byName[t.Name] = t         // last writer wins on duplicate simple names
		inv.byFullName[t.FullName] = t // full names are expected to be unique
		inv.byAddress[t.Address] = t
	}
	for _, c := range inv.Conformances {
		inv.conformancesByType[c.TypeName] = append(inv.conformancesByType[c.TypeName], c)
		inv.conformancesByProtocol[c.ProtocolName] = append(inv.conformancesByProtocol[c.ProtocolName], c)
		if c.ProtocolName != "" && !seenProtocols[c.ProtocolName] {
			seenProtocols[c.ProtocolName] = true
			inv.Protocols = append(inv.Protocols, c.ProtocolName)
		}
	}
	for i := range inv.Extensions {
		e := &inv.Extensions[i]
		inv.extensionsByType[e.ExtendedTypeName] = append(inv.extensionsByType[e.ExtendedTypeName], *e)
	}
}

// TypeByName looks up a type by its simple (undotted) name.
func (inv *Inventory) TypeByName(name string) (types.SwiftType, bool) {
	t, ok := inv.byName[name]
	if !ok {
		return types.SwiftType{}, false
	}
	return *t, true
}

// TypeByFullName looks up a type by its fully-qualified "Module.Type" name.
func (inv *Inventory) TypeByFullName(name string) (types.SwiftType, bool) {
	t, ok := inv.byFullName[name]
	if !ok {
		return types.SwiftType{}, false
	}
	return *t, true
}

// TypeByAddress looks up a type by the file offset of its descriptor.
func (inv *Inventory) TypeByAddress(addr int64) (types.SwiftType, bool) {
	t, ok := inv.byAddress[addr]
	if !ok {
		return types.SwiftType{}, false
	}
	return *t, true
}

// ConformancesForType returns every conformance whose conforming type name
// matches typeName.
func (inv *Inventory) ConformancesForType(typeName string) []types.SwiftConformance {
	return inv.conformancesByType[typeName]
}

// ConformancesForProtocol returns every conformance to protocolName.
func (inv *Inventory) ConformancesForProtocol(protocolName string) []types.SwiftConformance {
	return inv.conformancesByProtocol[protocolName]
}

// ExtensionsForType returns every extension of typeName.
func (inv *Inventory) ExtensionsForType(typeName string) []types.SwiftExtension {
	return inv.extensionsByType[typeName]
}
