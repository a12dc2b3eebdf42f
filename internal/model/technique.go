package model

// TechniqueName identifies one independently specified source-to-source
// rewrite rule.
type TechniqueName string

const (
	// TechniqueImportIndirection rewrites static imports into dynamic
	// __import__ resolution preserving the bound names.
	TechniqueImportIndirection TechniqueName = "import_indirection"
	// TechniqueNumericObfuscation substitutes small integer literals with
	// value-equivalent expressions.
	TechniqueNumericObfuscation TechniqueName = "numeric_obfuscation"
	// TechniqueStringEncoding rewrites string literals into reconstruction
	// expressions.
	TechniqueStringEncoding TechniqueName = "string_encoding"
	// TechniqueIdentifierRenaming renames declared identifiers consistently.
	TechniqueIdentifierRenaming TechniqueName = "identifier_renaming"
	// TechniqueDeadCode inserts semantically inert statements.
	TechniqueDeadCode TechniqueName = "dead_code"
)

// TechniqueDescriptor is the static record for one technique: the levels it
// participates in, the order it runs in, and the techniques it cannot safely
// co-run with. Loaded once per process and read-only thereafter.
type TechniqueDescriptor struct {
	Name TechniqueName
	// MinLevel is the lowest obfuscation level that includes this technique.
	// Levels are cumulative: a level includes every technique whose MinLevel
	// is at or below it.
	MinLevel int
	// Priority orders pass execution, lowest first. It also decides which
	// member of a conflict set is dropped while reducing.
	Priority int
	// Conflicts lists techniques that cannot safely co-run with this one.
	Conflicts []TechniqueName
}

// ConflictsWith reports whether other appears in the descriptor's conflict set.
func (d TechniqueDescriptor) ConflictsWith(other TechniqueName) bool {
	for _, c := range d.Conflicts {
		if c == other {
			return true
		}
	}

	return false
}

// RenameMap is the per-run mapping from original identifier to generated
// identifier. Invariant: injective, and disjoint from the exclusion set.
type RenameMap map[string]string
