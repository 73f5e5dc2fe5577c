// Package shortcuts holds the constant lookup tables for Swift mangled
// names: single- and two-char type shortcuts, protocol shortcuts, ObjC
// bridges, and builtins. The mangled-name demangler and symbolic-reference
// decoder consult the type-shortcut and ObjC-bridge tables; the protocol
// and builtin tables are not consulted by either. Every
// map here is immutable, pure data — the tables themselves are a testable
// contract (see the _test.go file in this package).
package shortcuts

// SingleChar maps a single mangling character to the Swift standard-library
// type it stands for. "S" is deliberately absent: bare "S" never matches on
// its own, it is always the prefix of a two-char pattern (see TwoChar).
var SingleChar = map[byte]string{
	'a': "Array",
	'b': "Bool",
	'D': "Dictionary",
	'd': "Double",
	'f': "Float",
	'h': "Set",
	'i': "Int",
	's': "Substring",
	'u': "UInt",
	'q': "Optional",
}

// TwoChar maps two-character "S*" patterns (and a handful of concurrency
// "Sc*" / bare "yt" patterns) to their Swift spelling.
var TwoChar = map[string]string{
	"SS": "String",
	"Si": "Int",
	"Sb": "Bool",
	"SD": "Dictionary",
	"Sa": "Array",
	"Sd": "Double",
	"Sf": "Float",
	"Sh": "Set",
	"Su": "UInt",
	"Sg": "Optional", // suffix form, handled specially by the demangler
	"Sq": "Optional",
	"yt": "Void",
	"ScT": "Task",
	"ScS": "AsyncStream",
	"ScA": "Actor",
	"ScM": "MainActor",
}

// Protocols maps protocol shortcut mangling to the protocol name, both the
// bare two-char forms and the qualified "s<N><name>P" forms used when a
// protocol name doesn't have a dedicated single-letter shortcut.
var Protocols = map[string]string{
	"SH":        "Hashable",
	"SE":        "Equatable",
	"Sl":        "Collection",
	"ST":        "Sequence",
	"SL":        "Comparable",
	"SY":        "RawRepresentable",
	"Se":        "Encodable",
	"SD":        "Decodable",
	"s5ErrorP":  "Error",
	"s8SendableP": "Sendable",
	"s8HashableP": "Hashable",
}

// ObjCBridge maps Objective-C type names to the Swift type they bridge to.
var ObjCBridge = map[string]string{
	"NSString":          "String",
	"NSArray":           "Array",
	"NSDictionary":      "Dictionary",
	"NSSet":             "Set",
	"NSURL":             "URL",
	"NSData":            "Data",
	"NSDate":            "Date",
	"OS_dispatch_queue": "DispatchQueue",
}

// Builtins maps "B*" builtin-type mangling prefixes to their Builtin.*
// spelling. The table only records the fixed two-char prefix; the
// demangler does not look builtin types up here.
var Builtins = map[string]string{
	"Bo": "Builtin.NativeObject",
	"Bp": "Builtin.RawPointer",
	"Bi": "Builtin.Int",
	"Bf": "Builtin.FPIEEE",
	"Bb": "Builtin.BridgeObject",
	"BB": "Builtin.UnsafeValueBuffer",
	"Bc": "Builtin.RawUnsafeContinuation",
	"BD": "Builtin.DefaultActorStorage",
	"Be": "Builtin.Executor",
	"Bd": "Builtin.NonDefaultDistributedActorStorage",
	"BI": "Builtin.IntLiteral",
	"Bj": "Builtin.Job",
	"BP": "Builtin.PackIndex",
	"BO": "Builtin.UnknownObject",
	"Bt": "Builtin.SILToken",
	"Bv": "Builtin.Vec",
	"Bw": "Builtin.Word",
}
