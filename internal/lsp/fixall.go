package lsp

// CodeFix is one TS-server code-fix action candidate for a diagnostic.
type CodeFix struct {
	DiagnosticCode int
	FixName string
	Preferred bool
}

// codeEquivalence groups diagnostic codes that should be fixed together
// under a single fix-all action: two diagnostic codes are equivalent for
// fix-all purposes iff they map to the same entry here.
var codeEquivalence = map[int]string{
	2304: "missing-import", // Cannot find name 'X'
	2552: "missing-import", // Cannot find name 'X'. Did you mean 'Y'?
	2307: "missing-module", // Cannot find module 'X'
	2305: "missing-export", // Module has no exported member 'X'
	7016: "missing-types", // Could not find a declaration file for module 'X'
}

// fixPriority ranks fix names; a higher number wins when multiple actions
// in the same fix-all bundle could be marked preferred.
var fixPriority = map[string]int{
	"import": 3,
	"addMissingImport": 3,
	"installTypesPackage": 2,
	"addMissingTypesDependency": 2,
	"fixMissingImport": 1,
}

// EquivalenceGroup returns the fix-all bucket a diagnostic code belongs to,
// and whether it belongs to any bucket at all.
func EquivalenceGroup(code int) (string, bool) {
	group, ok := codeEquivalence[code]
	return group, ok
}

// AreEquivalentForFixAll reports whether two diagnostic codes should be
// fixed together by a single fix-all action.
func AreEquivalentForFixAll(a, b int) bool {
	ga, oka := EquivalenceGroup(a)
	gb, okb := EquivalenceGroup(b)
	return oka && okb && ga == gb
}

// MarkPreferred sets Preferred on the single highest-priority fix in a
// fix-all bundle; a fix's Preferred flag is set only when no other action
// in the bundle has a strictly higher priority.
func MarkPreferred(fixes []CodeFix) []CodeFix {
	if len(fixes) == 0 {
		return fixes
	}
	bestIdx := 0
	bestPriority := fixPriority[fixes[0].FixName]
	for i, f := range fixes[1:] {
		p := fixPriority[f.FixName]
		if p > bestPriority {
			bestPriority = p
			bestIdx = i + 1
		}
	}
	out := make([]CodeFix, len(fixes))
	for i, f := range fixes {
		f.Preferred = i == bestIdx
		out[i] = f
	}
	return out
}
