package main

import (
	"fmt"
	"strings"

	"github.com/swiftreflect/swiftreflect/pkg/swift"
	"github.com/swiftreflect/swiftreflect/pkg/swift/types"
)

// printType renders one SwiftType as a Swift-source-like pseudocode block,
// in the teacher's dump(verbose) style: "class Module.Name: Super { ... }"
// with stored fields indented inside, falling back to "{}" when empty.
func printType(t types.SwiftType, inv *swift.Inventory) string {
	var super string
	if t.SuperclassName != "" {
		super = ": " + t.SuperclassName
	}
	if t.IsGeneric {
		super = "<" + strings.Join(t.GenericParams, ", ") + ">" + super
	}

	header := fmt.Sprintf("%s %s%s", t.Kind, t.FullName, super)

	var lines []string
	for _, fd := range inv.FieldDescriptors {
		if fd.TypeName != t.FullName && fd.TypeName != t.Name {
			continue
		}
		for _, r := range fd.Records {
			lines = append(lines, printFieldRecord(r))
		}
	}
	for _, req := range t.Requirements {
		lines = append(lines, fmt.Sprintf("    where %s", printRequirement(req)))
	}

	if len(lines) == 0 {
		return fmt.Sprintf("%s {}", header)
	}
	return fmt.Sprintf("%s {\n%s\n}", header, strings.Join(lines, "\n"))
}

func printFieldRecord(r types.SwiftFieldRecord) string {
	kw := "let"
	if r.Flags.IsVar() {
		kw = "var"
	}
	if r.Flags.IsIndirectCase() {
		return fmt.Sprintf("    indirect case %s", r.Name)
	}
	typ := r.MangledTypeName
	if typ == "" {
		return fmt.Sprintf("    case %s", r.Name)
	}
	return fmt.Sprintf("    %s %s: %s", kw, r.Name, typ)
}

func printRequirement(req types.GenericRequirement) string {
	switch req.Kind {
	case types.RequirementSameType:
		return fmt.Sprintf("%s == %s", req.Subject, req.Constraint)
	case types.RequirementBaseClass:
		return fmt.Sprintf("%s: %s", req.Subject, req.Constraint)
	case types.RequirementLayout:
		return fmt.Sprintf("%s: AnyObject", req.Subject)
	default:
		return fmt.Sprintf("%s: %s", req.Subject, req.Constraint)
	}
}

func printExtension(e types.SwiftExtension) string {
	var generic string
	if e.IsGeneric {
		generic = "<" + strings.Join(e.GenericParams, ", ") + ">"
	}
	header := fmt.Sprintf("extension%s %s", generic, e.ExtendedTypeName)
	if e.ModuleName != "" {
		header = fmt.Sprintf("// module %s\n%s", e.ModuleName, header)
	}
	var lines []string
	for _, req := range e.Requirements {
		lines = append(lines, fmt.Sprintf("    where %s", printRequirement(req)))
	}
	if len(lines) == 0 {
		return fmt.Sprintf("%s {}", header)
	}
	return fmt.Sprintf("%s {\n%s\n}", header, strings.Join(lines, "\n"))
}

func printConformance(c types.SwiftConformance) string {
	var tags []string
	if c.IsRetroactive {
		tags = append(tags, "retroactive")
	}
	if c.IsSynthesizedNonUnique {
		tags = append(tags, "synthesized")
	}
	suffix := ""
	if len(tags) > 0 {
		suffix = " // " + strings.Join(tags, ", ")
	}
	header := fmt.Sprintf("extension %s: %s%s", c.TypeName, c.ProtocolName, suffix)
	var lines []string
	for _, req := range c.ConditionalRequirements {
		lines = append(lines, fmt.Sprintf("    where %s", printRequirement(req)))
	}
	if len(lines) == 0 {
		return fmt.Sprintf("%s {}", header)
	}
	return fmt.Sprintf("%s {\n%s\n}", header, strings.Join(lines, "\n"))
}
