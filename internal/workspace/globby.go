package workspace

import (
	"errors"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/scriptrt/runtime-core/internal/setutil"
	"github.com/spf13/afero"
)

var aferoOsFs = afero.NewOsFs()
var aferoIOFS = afero.NewIOFS(aferoOsFs)

// GlobFiles enumerates files under basePath matching includePatterns while
// excluding excludePatterns, using a doublestar/afero filesystem
// combination. Used to expand a workspace's member glob patterns into the
// concrete set of member directories.
func GlobFiles(basePath string, includePatterns []string, excludePatterns []string) ([]string, error) {
	return globFilesFs(aferoIOFS, basePath, includePatterns, excludePatterns)
}

func relativeChild(from, to string) (string, error) {
	rel, err := filepath.Rel(from, to)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", errors.New("path is outside of the workspace root")
	}
	return rel, nil
}

func globFilesFs(fs afero.IOFS, basePath string, includePatterns, excludePatterns []string) ([]string, error) {
	var includes, excludes []string
	for _, p := range includePatterns {
		if rel, err := relativeChild(basePath, filepath.Join(basePath, p)); err == nil {
			includes = append(includes, rel)
		}
	}
	for _, p := range excludePatterns {
		if rel, err := relativeChild(basePath, filepath.Join(basePath, p)); err == nil {
			excludes = append(excludes, filepath.Join(rel, "**"))
		}
	}

	includePattern := joinAlternation(basePath, includes)
	if includePattern == "" {
		return nil, nil
	}
	excludePattern := joinAlternation(basePath, excludes)

	result := setutil.New[string]()
	err := doublestar.GlobWalk(fs, filepath.ToSlash(includePattern), func(path string, entry iofs.DirEntry) error {
		if basePath == "/" && !strings.HasPrefix(path, "/") {
			path = filepath.Join(basePath, path)
		}
		if entry.IsDir() {
			return nil
		}
		if excludePattern == "" {
			result.Add(path)
			return nil
		}
		excluded, matchErr := doublestar.Match(filepath.ToSlash(excludePattern), filepath.ToSlash(path))
		if matchErr == nil && !excluded {
			result.Add(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result.List(), nil
}

func joinAlternation(basePath string, patterns []string) string {
	switch len(patterns) {
	case 0:
		return ""
	case 1:
		return filepath.Join(basePath, patterns[0])
	default:
		return filepath.Join(basePath, "{"+strings.Join(patterns, ",")+"}")
	}
}
