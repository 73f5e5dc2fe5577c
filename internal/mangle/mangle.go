// Package mangle implements the pure-text half of the name resolver: a
// decoder for Swift's legacy ("_Tt...") and Swift-5 ("$s...", "_$s...")
// mangled name grammars, plus the recursive type-argument fragment parser
// that the legacy generic form and the Symbolic Resolver's token-suffix
// decoding delegate to.
package mangle

import (
	"strconv"
	"strings"

	"github.com/swiftreflect/swiftreflect/internal/shortcuts"
)

// maxDepth bounds recursion for the type-argument parser. (The Symbolic
// Resolver's mixed-binary parser has its own cap of the same value.)
// Inputs that would need more than this many nested productions resolve to
// absence rather than risk runaway recursion — the spec's "no call exceeds
// depth 10" guarantee.
const maxDepth = 10

// Demangle decodes a mangled Swift name into a human-readable Swift type
// expression. It recognises the legacy "_Tt" family, the Swift-5 "$s"/"_$s"
// family, and otherwise falls back to treating the input as a raw type
// fragment. On any failure to make progress it returns the input
// unchanged, per §7's "undemangleable name" regime.
func Demangle(s string) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "_Tt") || strings.HasPrefix(s, "Tt") {
		if out, ok := demangleLegacy(s); ok {
			return out
		}
	}
	if strings.HasPrefix(s, "_$s") || strings.HasPrefix(s, "$s") {
		if out, ok := demangleSwift5(s); ok {
			return out
		}
	}
	if out, ok := DemangleFragment(s); ok {
		return out
	}
	return s
}

// DemangleFragment parses s as a single recursive type-argument fragment
// (§4.3's "recursive type-argument parser" entry point) and reports
// whether the entire input was consumed.
func DemangleFragment(s string) (string, bool) {
	p := &parser{data: []byte(s)}
	out, ok := p.parseArg(0)
	if !ok || p.pos != len(p.data) {
		return "", false
	}
	return out, true
}

// ---- legacy "_Tt" family ----

func demangleLegacy(s string) (string, bool) {
	body := strings.TrimPrefix(s, "_")
	body = strings.TrimPrefix(body, "Tt")

	switch {
	case strings.HasPrefix(body, "CC"):
		return demangleNestedClass(body[2:])
	case strings.HasPrefix(body, "G"):
		return demangleGenericComposite(body[1:])
	case strings.HasPrefix(body, "C"):
		return demangleSimpleNominal(body[1:])
	case strings.HasPrefix(body, "V"):
		return demangleSimpleNominal(body[1:])
	case strings.HasPrefix(body, "O"):
		return demangleSimpleNominal(body[1:])
	case strings.HasPrefix(body, "P"):
		return demangleSimpleNominal(body[1:])
	}
	return "", false
}

// demangleSimpleNominal decodes "<mod><name>" — the body shared by
// _TtC/_TtV/_TtO/_TtP after their kind letter.
func demangleSimpleNominal(rest string) (string, bool) {
	p := &parser{data: []byte(rest)}
	mod, ok := p.readIdent()
	if !ok {
		return "", false
	}
	name, ok := p.readIdent()
	if !ok {
		return "", false
	}
	if p.pos != len(p.data) {
		return "", false
	}
	return joinModule(mod, name), true
}

// demangleNestedClass decodes "_TtCC<mod><outer><inner>".
func demangleNestedClass(rest string) (string, bool) {
	p := &parser{data: []byte(rest)}
	mod, ok := p.readIdent()
	if !ok {
		return "", false
	}
	var parts []string
	for p.pos < len(p.data) {
		ident, ok := p.readIdent()
		if !ok {
			break
		}
		parts = append(parts, ident)
	}
	if len(parts) == 0 || p.pos != len(p.data) {
		return "", false
	}
	full := append([]string{mod}, parts...)
	return strings.Join(full, "."), true
}

// demangleGenericComposite decodes "_TtG[CVO]<mod><name><arg>*_".
func demangleGenericComposite(rest string) (string, bool) {
	if rest == "" {
		return "", false
	}
	switch rest[0] {
	case 'C', 'V', 'O':
		rest = rest[1:]
	default:
		return "", false
	}
	if !strings.HasSuffix(rest, "_") {
		return "", false
	}
	rest = rest[:len(rest)-1]

	p := &parser{data: []byte(rest)}
	mod, ok := p.readIdent()
	if !ok {
		return "", false
	}
	name, ok := p.readIdent()
	if !ok {
		return "", false
	}
	var args []string
	for p.pos < len(p.data) {
		arg, ok := p.parseArg(0)
		if !ok {
			return "", false
		}
		args = append(args, arg)
	}
	base := joinModule(mod, name)
	if len(args) == 0 {
		return base, true
	}
	return base + "<" + strings.Join(args, ", ") + ">", true
}

func joinModule(mod, name string) string {
	if mod == "Swift" {
		return name
	}
	return mod + "." + name
}

// ---- parser: shared cursor state for type-argument / mixed parsing ----

type parser struct {
	data []byte
	pos  int
}

func (p *parser) remaining() []byte {
	if p.pos >= len(p.data) {
		return nil
	}
	return p.data[p.pos:]
}

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.remaining()), s)
}

// readIdent reads a length-prefixed identifier: digits, then that many
// bytes.
func (p *parser) readIdent() (string, bool) {
	start := p.pos
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	n, err := strconv.Atoi(string(p.data[start:p.pos]))
	if err != nil || n < 0 || p.pos+n > len(p.data) {
		p.pos = start
		return "", false
	}
	s := string(p.data[p.pos : p.pos+n])
	p.pos += n
	return s, true
}

// skipTypeSuffixMarkers consumes trailing {C,V,O,P,p,y} markers and an
// optional "_p" existential marker, reporting whether an existential
// marker was seen.
func (p *parser) skipTypeSuffixMarkers() (existential bool) {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case 'C', 'V', 'O', 'P', 'p', 'y':
			p.pos++
			continue
		}
		break
	}
	if p.pos+1 < len(p.data) && p.data[p.pos] == '_' && p.data[p.pos+1] == 'p' {
		p.pos += 2
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseArg implements the recursive type-argument parser of §4.3: given
// the cursor and a recursion depth, try each production in order and
// return the first that succeeds.
func (p *parser) parseArg(depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}

	// 1. Container shortcuts.
	if out, ok := p.tryContainer(depth); ok {
		return p.wrapOptional(out), true
	}
	// 2. ObjC-imported argument.
	if out, ok := p.tryObjC(); ok {
		return p.wrapOptional(out), true
	}
	// 3. Concurrency.
	if out, ok := p.tryConcurrency(depth); ok {
		return p.wrapOptional(out), true
	}
	// 4. Two-char pattern table.
	if out, ok := p.tryTwoChar(); ok {
		return p.wrapOptional(out), true
	}
	// 5. Single-char shortcut (never bare 'S').
	if out, ok := p.trySingleChar(); ok {
		return p.wrapOptional(out), true
	}
	// 6. Swift-module type.
	if out, ok := p.trySwiftModuleType(); ok {
		return p.wrapOptional(out), true
	}
	// 7. Module-qualified.
	if out, ok := p.tryModuleQualified(); ok {
		return p.wrapOptional(out), true
	}
	return "", false
}

// wrapOptional consumes a trailing "Sg" and wraps the already-produced
// type as an Optional.
func (p *parser) wrapOptional(base string) string {
	for p.hasPrefix("Sg") {
		p.pos += 2
		base += "?"
	}
	return base
}

func (p *parser) tryContainer(depth int) (string, bool) {
	switch {
	case p.hasPrefix("Say"):
		save := p.pos
		p.pos += 3
		elem, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "[" + elem + "]", true
	case p.hasPrefix("SDy"):
		save := p.pos
		p.pos += 3
		key, ok := p.parseArg(depth + 1)
		if !ok {
			p.pos = save
			return "", false
		}
		val, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "[" + key + ": " + val + "]", true
	case p.hasPrefix("Shy"):
		save := p.pos
		p.pos += 3
		elem, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "Set<" + elem + ">", true
	}
	return "", false
}

func (p *parser) tryObjC() (string, bool) {
	if !p.hasPrefix("So") {
		return "", false
	}
	save := p.pos
	p.pos += 2
	name, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	existential := p.skipTypeSuffixMarkers()
	out := name
	if mapped, ok := shortcuts.ObjCBridge[name]; ok {
		out = mapped
	}
	if existential {
		out = "any " + out
	}
	return out, true
}

func (p *parser) tryConcurrency(depth int) (string, bool) {
	switch {
	case p.hasPrefix("ScTy"):
		save := p.pos
		p.pos += 4
		success, ok := p.parseArg(depth + 1)
		if !ok {
			p.pos = save
			return "", false
		}
		failure, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "Task<" + success + ", " + failure + ">", true
	case p.hasPrefix("ScSy"):
		save := p.pos
		p.pos += 4
		elem, ok := p.parseArg(depth + 1)
		if !ok || !p.hasPrefix("G") {
			p.pos = save
			return "", false
		}
		p.pos++
		return "AsyncStream<" + elem + ">", true
	}
	return "", false
}

func (p *parser) tryTwoChar() (string, bool) {
	rem := p.remaining()
	if len(rem) >= 3 {
		if out, ok := shortcuts.TwoChar[string(rem[:3])]; ok {
			p.pos += 3
			return out, true
		}
	}
	if len(rem) < 2 {
		return "", false
	}
	key := string(rem[:2])
	if key == "Sg" {
		// Sg is only a suffix, never a standalone production.
		return "", false
	}
	if out, ok := shortcuts.TwoChar[key]; ok {
		p.pos += 2
		return out, true
	}
	return "", false
}

func (p *parser) trySingleChar() (string, bool) {
	rem := p.remaining()
	if len(rem) < 1 || rem[0] == 'S' {
		return "", false
	}
	// "s<digit>..." belongs to the Swift-module-type production (#6), not
	// the bare single-char shortcut for Substring.
	if rem[0] == 's' && len(rem) > 1 && isDigit(rem[1]) {
		return "", false
	}
	if out, ok := shortcuts.SingleChar[rem[0]]; ok {
		p.pos++
		return out, true
	}
	return "", false
}

// trySwiftModuleType decodes "s<digits><name>[CVOPpy]*[_p]?".
func (p *parser) trySwiftModuleType() (string, bool) {
	if !p.hasPrefix("s") {
		return "", false
	}
	save := p.pos
	p.pos++
	if p.pos >= len(p.data) || !isDigit(p.data[p.pos]) {
		p.pos = save
		return "", false
	}
	name, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	existential := p.skipTypeSuffixMarkers()
	if existential {
		return "any " + name, true
	}
	return name, true
}

// tryModuleQualified decodes "<digits><modName><digits><typeName>[_p]?".
func (p *parser) tryModuleQualified() (string, bool) {
	save := p.pos
	mod, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	name, ok := p.readIdent()
	if !ok {
		p.pos = save
		return "", false
	}
	existential := p.skipTypeSuffixMarkers()
	out := joinModule(mod, name)
	if existential {
		out = "any " + out
	}
	return out, true
}

// ---- Swift-5 "$s" family ----

func demangleSwift5(s string) (string, bool) {
	body := strings.TrimPrefix(s, "_")
	body = strings.TrimPrefix(body, "$s")
	if body == "" {
		return "", false
	}

	if strings.HasPrefix(body, "So") {
		p := &parser{data: []byte(body[2:])}
		name, ok := p.readIdent()
		if !ok {
			return "", false
		}
		out := "__C." + name
		if mapped, ok := shortcuts.ObjCBridge[name]; ok {
			out = mapped
		}
		return out, true
	}

	var module string
	p := &parser{data: []byte(body)}
	if p.pos < len(p.data) && !isDigit(p.data[p.pos]) {
		module = "Swift"
	} else {
		m, ok := p.readIdent()
		if !ok {
			return "", false
		}
		module = m
	}

	name, words, ok := p.readWordSubstitutedIdent(nil)
	if !ok {
		return "", false
	}
	_ = words

	base := joinModule(module, name)

	// Trailing suffix: parse generics the same way the recursive parser
	// does, when present.
	if p.pos < len(p.data) {
		if out, ok := p.parseArg(0); ok {
			return base + "<" + out + ">", true
		}
	}
	return base, true
}

// readWordSubstitutedIdent reads one identifier, honouring Swift 5's
// word-substitution compression: a literal leading digit is a plain
// length-prefixed identifier; a leading '0' switches into substitution
// mode where each letter references or appends a word slot.
func (p *parser) readWordSubstitutedIdent(words []string) (string, []string, bool) {
	if p.pos < len(p.data) && isDigit(p.data[p.pos]) && p.data[p.pos] != '0' {
		ident, ok := p.readIdent()
		if !ok {
			return "", words, false
		}
		return ident, append(words, ident), true
	}
	if p.pos >= len(p.data) || p.data[p.pos] != '0' {
		return "", words, false
	}
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c >= 'a' && c <= 'z':
			idx := int(c - 'a')
			if idx < len(words) {
				sb.WriteString(words[idx])
			}
			p.pos++
		case c >= 'A' && c <= 'Z':
			idx := int(c - 'A')
			if idx < len(words) {
				sb.WriteString(words[idx])
			}
			p.pos++
			return sb.String(), words, true
		case isDigit(c):
			start := p.pos
			for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
				p.pos++
			}
			n, err := strconv.Atoi(string(p.data[start:p.pos]))
			if err != nil || p.pos+n > len(p.data) {
				p.pos = start
				return sb.String(), words, sb.Len() > 0
			}
			lit := string(p.data[p.pos : p.pos+n])
			p.pos += n
			sb.WriteString(lit)
			words = append(words, lit)
		default:
			return sb.String(), words, sb.Len() > 0
		}
	}
	return sb.String(), words, sb.Len() > 0
}
