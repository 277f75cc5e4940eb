package graph

import (
	"fmt"
	"strings"

	"github.com/scriptrt/runtime-core/internal/resolve"
)

// nodeBuiltins is checked when enhancing a bare-specifier error; kept as a
// small literal set here rather than importing internal/resolve's full set,
// since the enhancement message only needs membership, not resolution.
var nodeBuiltins = map[string]bool{
	"fs": true, "path": true, "os": true, "http": true, "https": true,
	"crypto": true, "stream": true, "events": true, "util": true, "url": true,
	"buffer": true, "child_process": true, "net": true, "tls": true, "zlib": true,
}

// EnhanceError enriches a build error with actionable hints: bare-specifier
// suggestions, sloppy-imports enrichment, and the referrer appended (its
// line and column are not included). It
// wraps err with an enriched message; callers surfacing the error to a user
// print the wrapped form, programmatic callers still use errors.As/errors.Is
// against the original via Unwrap.
func EnhanceError(err error, specifier, referrer string) error {
	var ipm *resolve.ImportPrefixMissingError
	if asImportPrefixMissing(err, &ipm) {
		if nodeBuiltins[ipm.Specifier] {
			return fmt.Errorf("%w\n  hint: If you want to use a built-in Node module, add a \"node:\" prefix (ex. \"node:%s\").", err, ipm.Specifier)
		}
		if !strings.ContainsAny(ipm.Specifier, ". ") {
			return fmt.Errorf("%w\n  hint: If you want to use a JSR or npm package, try running `deno add jsr:%s` or `deno add npm:%s`", err, ipm.Specifier, ipm.Specifier)
		}
		return err
	}

	var sloppy *resolve.SloppyImportCandidateError
	if asSloppyImportCandidate(err, &sloppy) {
		return fmt.Errorf("%w (hint: sloppy-imports resolved this to %s; pass --unstable-sloppy-imports to enable)",
			err, sloppy.ResolvedURL)
	}

	if specifier != "$deno$eval" && referrer != "" {
		return fmt.Errorf("%w (at %s)", err, referrer)
	}
	return err
}

func asImportPrefixMissing(err error, target **resolve.ImportPrefixMissingError) bool {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if ipm, ok := e.(*resolve.ImportPrefixMissingError); ok {
			*target = ipm
			return true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

func asSloppyImportCandidate(err error, target **resolve.SloppyImportCandidateError) bool {
	type unwrapper interface{ Unwrap() error }
	for e := err; e != nil; {
		if s, ok := e.(*resolve.SloppyImportCandidateError); ok {
			*target = s
			return true
		}
		u, ok := e.(unwrapper)
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}
