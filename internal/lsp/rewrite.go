package lsp

import (
	"regexp"
	"strings"
)

// RewriteContext carries the layout knowledge needed to reverse-map a
// file:// specifier produced by the embedded TypeScript server back into
// the jsr:/npm:/bare form a user would actually write.
type RewriteContext struct {
	// JSRBaseURL is the root a jsr-backed module cache is rooted at
	// (e.g. "https://jsr.io/").
	JSRBaseURL string
	// ImportMapAliases maps a canonical "jsr:@scope/name@version/sub" (or
	// prefix thereof) to the shorter alias a user's import map declares
	// for it.
	ImportMapAliases map[string]string
	// NpmPackages indexes every managed-cache npm package by its root
	// directory (file:// prefix, no trailing slash) to its name and
	// parsed `exports` field.
	NpmPackages map[string]NpmPackage
	// TypesPackages maps "@types/<scope>__<name>" to the plain package
	// name it provides types for, when a non-types version is resolvable:
	// "@types/<scope>__<name>" reverse-maps to "@scope/<name>".
	TypesPackages map[string]string
}

// NpmPackage is the subset of a package's manifest needed for export-map
// reverse mapping.
type NpmPackage struct {
	Name string
	Version string
	Exports map[string]interface{} // subpath -> string | map[string]interface{} (conditions)
}

var reImportSpecifier = regexp.MustCompile(`(from\s+|import\s*\(\s*|require\s*\(\s*)(["'])([^"']*)(["'])`)

// RewriteImportEdits rewrites every import specifier found in a code-fix
// text edit. A file:// specifier that cannot be resolved to a known form is
// left unchanged in the text; the returned bool reports whether any
// specifier was rewritten, and the edit itself is not dropped here.
func RewriteImportEdits(ctx *RewriteContext, text string) (string, bool) {
	changed := false
	out := reImportSpecifier.ReplaceAllStringFunc(text, func(match string) string {
		m := reImportSpecifier.FindStringSubmatch(match)
		specifier := m[3]
		if !strings.HasPrefix(specifier, "file://") {
			return match
		}
		rewritten, ok := RewriteSpecifier(ctx, specifier)
		if !ok {
			return match // leave as-is; caller decides whether to drop the whole edit
		}
		changed = true
		return m[1] + m[2] + rewritten + m[4]
	})
	if !changed {
		return text, false
	}
	return out, true
}

// RewriteSpecifier reverse-maps one file:// specifier. Returns ok=false
// when nothing in ctx can resolve it, signalling the caller should drop the
// containing fix rather than suggest a broken import.
func RewriteSpecifier(ctx *RewriteContext, fileURL string) (string, bool) {
	if ctx.JSRBaseURL != "" && strings.HasPrefix(fileURL, ctx.JSRBaseURL) {
		if rewritten, ok := rewriteJSRSpecifier(ctx, fileURL); ok {
			return rewritten, true
		}
	}
	if rewritten, ok := rewriteNpmSpecifier(ctx, fileURL); ok {
		if renamed, ok := reverseMapTypesPackage(ctx, rewritten); ok {
			return renamed, true
		}
		return rewritten, true
	}
	return "", false
}

// rewriteJSRSpecifier implements the jsr branch: candidates are an existing
// import-map alias, a versioned canonical form, and a bare (unversioned)
// form; the shortest wins.
func rewriteJSRSpecifier(ctx *RewriteContext, fileURL string) (string, bool) {
	rest := strings.TrimPrefix(fileURL, ctx.JSRBaseURL)
	rest = strings.TrimPrefix(rest, "/")
	scope, name, version, sub, ok := parseJSRPath(rest)
	if !ok {
		return "", false
	}

	versioned := "jsr:@" + scope + "/" + name + "@" + version
	bare := "jsr:@" + scope + "/" + name
	if sub != "" {
		versioned += "/" + sub
		bare += "/" + sub
	}

	candidates := []string{versioned, bare}
	if alias, ok := ctx.ImportMapAliases[versioned]; ok {
		candidates = append(candidates, alias)
	}
	return shortest(candidates), true
}

// parseJSRPath splits "@scope/name@version/sub/path.ts" into its parts,
// correctly treating the scope+name as a 2-segment unit before the version.
func parseJSRPath(rest string) (scope, name, version, sub string, ok bool) {
	if !strings.HasPrefix(rest, "@") {
		return "", "", "", "", false
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return "", "", "", "", false
	}
	scope = strings.TrimPrefix(parts[0], "@")
	nameAndVersion := parts[1]
	at := strings.LastIndex(nameAndVersion, "@")
	if at <= 0 {
		return "", "", "", "", false
	}
	name = nameAndVersion[:at]
	version = nameAndVersion[at+1:]
	if len(parts) == 3 {
		sub = parts[2]
	}
	return scope, name, version, sub, true
}

// rewriteNpmSpecifier reverse-maps a file:// path under a managed npm
// package root through that package's own `exports` table.
func rewriteNpmSpecifier(ctx *RewriteContext, fileURL string) (string, bool) {
	for root, pkg := range ctx.NpmPackages {
		if !strings.HasPrefix(fileURL, root) {
			continue
		}
		relPath := strings.TrimPrefix(fileURL, root)
		relPath = strings.TrimPrefix(relPath, "/")

		if subpath, ok := reverseThroughExports(pkg.Exports, relPath); ok {
			return joinSpecifier(pkg.Name, subpath), true
		}
		for _, companion := range companionSuffixes(relPath) {
			if subpath, ok := reverseThroughExports(pkg.Exports, companion); ok {
				return joinSpecifier(pkg.Name, subpath), true
			}
		}
		return "", false
	}
	return "", false
}

func joinSpecifier(name, subpath string) string {
	if subpath == "." || subpath == "" {
		return name
	}
	return name + strings.TrimPrefix(subpath, ".")
}

// companionSuffixes implements the .js/.d.ts/.d.cts/.d.mts retry ladder.
func companionSuffixes(relPath string) []string {
	var base string
	switch {
	case strings.HasSuffix(relPath, ".d.mts"):
		base = strings.TrimSuffix(relPath, ".d.mts")
	case strings.HasSuffix(relPath, ".d.cts"):
		base = strings.TrimSuffix(relPath, ".d.cts")
	case strings.HasSuffix(relPath, ".d.ts"):
		base = strings.TrimSuffix(relPath, ".d.ts")
	case strings.HasSuffix(relPath, ".js"):
		base = strings.TrimSuffix(relPath, ".js")
	default:
		return nil
	}
	return []string{base + ".d.ts", base + ".cjs", base + ".mjs"}
}

// reverseThroughExports walks an exports tree collecting every subpath key
// whose value (directly, or via a nested condition map) equals relPath,
// preferring string-value matches and recursing into nested condition
// objects; among multiple matches the shortest literal key wins.
func reverseThroughExports(exports map[string]interface{}, relPath string) (string, bool) {
	target := "./" + strings.TrimPrefix(relPath, "./")
	var candidates, direct []string
	for subpath, node := range exports {
		if matchesExportNode(node, target) {
			candidates = append(candidates, subpath)
			if s, ok := node.(string); ok && s == target {
				direct = append(direct, subpath)
			}
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	if len(direct) > 0 {
		return shortest(direct), true
	}
	return shortest(candidates), true
}

func matchesExportNode(node interface{}, target string) bool {
	switch v := node.(type) {
	case string:
		return v == target
	case map[string]interface{}:
		for _, child := range v {
			if matchesExportNode(child, target) {
				return true
			}
		}
	}
	return false
}

// reverseMapTypesPackage implements "@types/<scope>__<name> reverse-maps to
// @scope/<name>".
func reverseMapTypesPackage(ctx *RewriteContext, specifier string) (string, bool) {
	for typesName, plainName := range ctx.TypesPackages {
		if strings.HasPrefix(specifier, typesName) {
			return plainName + strings.TrimPrefix(specifier, typesName), true
		}
	}
	return specifier, false
}

func shortest(candidates []string) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best
}
