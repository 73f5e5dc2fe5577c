package swift

import (
	"sort"
	"strings"

	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// InheritanceStats maps every class's full name to its inheritance depth.
// Depth is literal, not a climbed chain length: 1 if the class has a
// non-empty superclass name (an unresolved-reference placeholder counts),
// 0 if its superclass name is empty.
func (inv *Inventory) InheritanceStats() map[string]int {
	out := make(map[string]int)
	for _, t := range inv.Types {
		if t.Kind != types.KindClass {
			continue
		}
		depth := 0
		if t.SuperclassName != "" {
			depth = 1
		}
		out[t.FullName] = depth
	}
	return out
}

// TypesByKind returns every type of the given descriptor kind, in the
// order the walker produced them.
func (inv *Inventory) TypesByKind(kind types.DescriptorKind) []types.SwiftType {
	var out []types.SwiftType
	for _, t := range inv.Types {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// GenericTypes returns every type with a non-empty generic parameter list.
func (inv *Inventory) GenericTypes() []types.SwiftType {
	var out []types.SwiftType
	for _, t := range inv.Types {
		if t.IsGeneric {
			out = append(out, t)
		}
	}
	return out
}

// RetroactiveConformances returns every conformance flagged retroactive.
func (inv *Inventory) RetroactiveConformances() []types.SwiftConformance {
	var out []types.SwiftConformance
	for _, c := range inv.Conformances {
		if c.IsRetroactive {
			out = append(out, c)
		}
	}
	return out
}

// ConditionalConformances returns every conformance with at least one
// conditional requirement.
func (inv *Inventory) ConditionalConformances() []types.SwiftConformance {
	var out []types.SwiftConformance
	for _, c := range inv.Conformances {
		if len(c.ConditionalRequirements) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// ModuleNames returns the distinct immediate parent names of every type
// (or, for a type with no parent name, the part of its FullName before
// the first dot), sorted. The parent chain is not climbed, so a nested
// type contributes its enclosing type's name rather than its module's.
func (inv *Inventory) ModuleNames() []string {
	seen := make(map[string]bool)
	for _, t := range inv.Types {
		mod := t.ParentName
		if mod == "" {
			if i := strings.IndexByte(t.FullName, '.'); i > 0 {
				mod = t.FullName[:i]
			}
		}
		if mod != "" {
			seen[mod] = true
		}
	}
	out := make([]string, 0, len(seen))
	for mod := range seen {
		out = append(out, mod)
	}
	sort.Strings(out)
	return out
}
