package types

// DescriptorKind identifies what kind of context descriptor a record was
// read from. Values match the low-5-bits encoding Swift's runtime uses in
// every context descriptor's flags word.
type DescriptorKind uint8

const (
	KindModule      DescriptorKind = 0
	KindExtension   DescriptorKind = 1
	KindAnonymous   DescriptorKind = 2
	KindProtocol    DescriptorKind = 3
	KindOpaqueType  DescriptorKind = 4
	KindClass       DescriptorKind = 16
	KindStruct      DescriptorKind = 17
	KindEnum        DescriptorKind = 18
)

// IsTypeKind reports whether k falls in the "type" range (16-31) that the
// Descriptor Walker treats as a nominal type rather than a module,
// extension, or other non-type context.
func (k DescriptorKind) IsTypeKind() bool { return k >= 16 && k <= 31 }

func (k DescriptorKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindExtension:
		return "extension"
	case KindAnonymous:
		return "anonymous"
	case KindProtocol:
		return "protocol"
	case KindOpaqueType:
		return "opaqueType"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// GenericRequirementKind discriminates a single generic requirement entry.
type GenericRequirementKind uint8

const (
	RequirementProtocol        GenericRequirementKind = 0
	RequirementSameType        GenericRequirementKind = 1
	RequirementBaseClass       GenericRequirementKind = 2
	RequirementSameConformance GenericRequirementKind = 3
	RequirementLayout          GenericRequirementKind = 4
)

// GenericRequirement is one constraint in a generic context's requirement
// list, already demangled/resolved to display names.
type GenericRequirement struct {
	Kind           GenericRequirementKind `json:"kind"`
	Subject        string                 `json:"subject"`
	Constraint     string                 `json:"constraint,omitempty"`
	HasKeyArgument bool                   `json:"hasKeyArgument"`
}

// SwiftType is one nominal type (class, struct, or enum) read from the
// __swift5_types section.
type SwiftType struct {
	Address        int64                `json:"address"`
	Kind           DescriptorKind       `json:"kind"`
	Name           string               `json:"name"`
	ParentName     string               `json:"parentName,omitempty"`
	ParentKind     DescriptorKind       `json:"parentKind,omitempty"`
	FullName       string               `json:"fullName"`
	SuperclassName string               `json:"superclassName,omitempty"`
	IsGeneric      bool                 `json:"isGeneric"`
	GenericParams  []string             `json:"genericParams,omitempty"`
	Requirements   []GenericRequirement `json:"requirements,omitempty"`
	Flags          uint32               `json:"flags"`
}

// SwiftExtension is one extension descriptor read from the
// __swift5_types section's extension-kind entries.
type SwiftExtension struct {
	Address          int64                `json:"address"`
	ExtendedTypeName string               `json:"extendedTypeName"`
	ModuleName       string               `json:"moduleName,omitempty"`
	IsGeneric        bool                 `json:"isGeneric"`
	GenericParams    []string             `json:"genericParams,omitempty"`
	Requirements     []GenericRequirement `json:"requirements,omitempty"`
	Flags            uint32               `json:"flags"`
}

// TypeReferenceKind discriminates how a conformance record names its
// conforming type.
type TypeReferenceKind uint8

const (
	DirectTypeDescriptor   TypeReferenceKind = 0
	IndirectTypeDescriptor TypeReferenceKind = 1
	DirectObjCClass        TypeReferenceKind = 2
	IndirectObjCClass      TypeReferenceKind = 3
)

// SwiftConformance is one protocol-conformance record read from the
// __swift5_proto section.
type SwiftConformance struct {
	Address                 int64             `json:"address"`
	TypeName                string            `json:"typeName"`
	TypeReferenceKind       TypeReferenceKind `json:"typeReferenceKind"`
	ProtocolName            string            `json:"protocolName"`
	IsRetroactive           bool              `json:"isRetroactive"`
	IsSynthesizedNonUnique  bool              `json:"isSynthesizedNonUnique"`
	HasResilientWitnesses   bool              `json:"hasResilientWitnesses"`
	HasGenericWitnessTable  bool              `json:"hasGenericWitnessTable"`
	ConditionalRequirements []GenericRequirement `json:"conditionalRequirements,omitempty"`
}

// FieldRecordFlags are the per-record bits in a field descriptor's record
// list.
type FieldRecordFlags uint32

const (
	FieldIsIndirectCase FieldRecordFlags = 0x1
	FieldIsVar          FieldRecordFlags = 0x2
	FieldIsArtificial   FieldRecordFlags = 0x4
)

func (f FieldRecordFlags) IsIndirectCase() bool { return f&FieldIsIndirectCase != 0 }
func (f FieldRecordFlags) IsVar() bool          { return f&FieldIsVar != 0 }
func (f FieldRecordFlags) IsArtificial() bool   { return f&FieldIsArtificial != 0 }

// SwiftFieldRecord is one stored-property or enum-case entry within a
// field descriptor.
type SwiftFieldRecord struct {
	Flags              FieldRecordFlags `json:"flags"`
	Name               string           `json:"name"`
	MangledTypeName    string           `json:"mangledTypeName,omitempty"`
	MangledTypeRawBytes []byte          `json:"-"`
	MangledTypeOffset  int64            `json:"mangledTypeOffset,omitempty"`
}

// FieldDescriptorKind discriminates what a field descriptor describes.
type FieldDescriptorKind uint16

const (
	FieldDescStruct         FieldDescriptorKind = 0
	FieldDescClass          FieldDescriptorKind = 1
	FieldDescEnum           FieldDescriptorKind = 2
	FieldDescMultiPayloadEnum FieldDescriptorKind = 3
	FieldDescProtocol       FieldDescriptorKind = 4
	FieldDescClassProtocol  FieldDescriptorKind = 5
	FieldDescObjCProtocol   FieldDescriptorKind = 6
	FieldDescObjCClass      FieldDescriptorKind = 7
)

func (k FieldDescriptorKind) String() string {
	switch k {
	case FieldDescStruct:
		return "struct"
	case FieldDescClass:
		return "class"
	case FieldDescEnum:
		return "enum"
	case FieldDescMultiPayloadEnum:
		return "multiPayloadEnum"
	case FieldDescProtocol:
		return "protocol"
	case FieldDescClassProtocol:
		return "classProtocol"
	case FieldDescObjCProtocol:
		return "objcProtocol"
	case FieldDescObjCClass:
		return "objcClass"
	default:
		return "unknown"
	}
}

// SwiftFieldDescriptor is one entry in the __swift5_fieldmd section,
// describing the stored fields of a type.
type SwiftFieldDescriptor struct {
	Address               int64               `json:"address"`
	Kind                  FieldDescriptorKind `json:"kind"`
	TypeName              string              `json:"typeName,omitempty"`
	SuperclassMangledName string              `json:"superclassMangledName,omitempty"`
	Records               []SwiftFieldRecord  `json:"records"`
}

// BuiltinType is a __swift5_builtin entry: the layout facts the runtime
// records for a builtin (non-nominal) type.
type BuiltinType struct {
	Address      int64  `json:"address"`
	TypeName     string `json:"typeName"`
	Size         uint32 `json:"size"`
	Alignment    uint32 `json:"alignment"`
	Stride       uint32 `json:"stride"`
	NumExtraInhabitants uint32 `json:"numExtraInhabitants"`
	IsBitwiseTakable    bool   `json:"isBitwiseTakable"`
}

// CaptureTypeRecord is one captured-variable type within a closure's
// capture descriptor.
type CaptureTypeRecord struct {
	MangledTypeName string `json:"mangledTypeName"`
}

// MetadataSourceRecord is one generic-metadata-source entry within a
// closure's capture descriptor.
type MetadataSourceRecord struct {
	MangledTypeName   string `json:"mangledTypeName"`
	MangledMetadataSource string `json:"mangledMetadataSource"`
}

// CaptureDescriptor is a __swift5_capture entry describing one closure's
// captured environment.
type CaptureDescriptor struct {
	Address         int64                  `json:"address"`
	CaptureTypes    []CaptureTypeRecord    `json:"captureTypes,omitempty"`
	MetadataSources []MetadataSourceRecord `json:"metadataSources,omitempty"`
}

// AssociatedType is one __swift5_assocty entry: a protocol's associated-type
// witness list for a single conforming type.
type AssociatedType struct {
	Address           int64    `json:"address"`
	ConformingTypeName string  `json:"conformingTypeName"`
	ProtocolTypeName   string  `json:"protocolTypeName"`
	AssociatedTypeNames map[string]string `json:"associatedTypeNames,omitempty"`
}

// ProtocolDeclaration is one standalone __swift5_protos entry: a protocol
// defined in the image, independent of any conformance to it.
type ProtocolDeclaration struct {
	Address       int64    `json:"address"`
	Name          string   `json:"name"`
	ParentName    string   `json:"parentName,omitempty"`
	NumRequirements int    `json:"numRequirements"`
	InheritedProtocols []string `json:"inheritedProtocols,omitempty"`
}
