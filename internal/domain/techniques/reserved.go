package techniques

import "strings"

// reservedNames holds Python keywords, builtins, and common object attribute
// names that must never be renamed or reused as generated identifiers.
// Renaming any of these breaks behavior regardless of scope.
var reservedNames = map[string]struct{}{}

func init() {
	for _, group := range [][]string{reservedKeywords, reservedBuiltins, reservedAttrs} {
		for _, name := range group {
			reservedNames[name] = struct{}{}
		}
	}
}

var reservedKeywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
	"while", "with", "yield", "match", "case", "_",
}

var reservedBuiltins = []string{
	"abs", "all", "any", "ascii", "bin", "bool", "bytearray", "bytes",
	"callable", "chr", "classmethod", "compile", "complex", "delattr",
	"dict", "dir", "divmod", "enumerate", "eval", "exec", "filter",
	"float", "format", "frozenset", "getattr", "globals", "hasattr",
	"hash", "help", "hex", "id", "input", "int", "isinstance",
	"issubclass", "iter", "len", "list", "locals", "map", "max",
	"memoryview", "min", "next", "object", "oct", "open", "ord",
	"pow", "print", "property", "range", "repr", "reversed", "round",
	"set", "setattr", "slice", "sorted", "staticmethod", "str", "sum",
	"super", "tuple", "type", "vars", "zip", "self", "cls",
}

// Common attribute/method names on standard objects. Attribute positions are
// already skipped during replacement, but these names also show up as plain
// bindings in idiomatic code (e.g. `items = ...`), where renaming them is
// legal; keeping them reserved matches the conservative original behavior.
var reservedAttrs = []string{
	"items", "keys", "values", "get", "pop", "append", "extend", "insert",
	"remove", "clear", "copy", "update", "index", "count", "sort", "reverse",
	"join", "split", "strip", "replace", "upper", "lower", "startswith",
	"endswith", "find", "encode", "decode", "read", "write", "close",
	"seek", "tell", "flush", "readline", "readlines", "writelines",
}

// isReservedName reports whether the identifier must be preserved. Dunder
// names are always preserved.
func isReservedName(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}

	_, ok := reservedNames[name]

	return ok
}
