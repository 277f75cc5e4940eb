package installer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yookoala/realpath"

	"github.com/scriptrt/runtime-core/internal/lifecycle"
)

// resolvedPackagePath symlink-resolves a package's canonical folder before
// it becomes a lifecycle script's cwd. A package that hasn't been
// materialised yet (e.g. under test) falls back to the unresolved path
// rather than failing.
func resolvedPackagePath(folder string) string {
	resolved, err := realpath.Realpath(folder)
	if err != nil {
		return folder
	}
	return resolved
}

const initializedSentinel = ".initialized"

// requiredTags returns the sorted dist-tags a package's canonical folder was
// installed for, empty when the package carries none. This is the only
// thing that can make re-population necessary without a version bump: a
// folder installed for one dist-tag set may need repopulating once a
// different set is requested for the same (name, version, peer-copy-index).
func requiredTags(p Package) []string {
	tags := append([]string{}, p.DistTags...)
	sort.Strings(tags)
	return tags
}

func readSentinelTags(path string) ([]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return []string{}, true
	}
	return strings.Split(trimmed, ","), true
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func writeSentinel(path string, tags []string) error {
	return os.WriteFile(path, []byte(strings.Join(tags, ",")), 0o644)
}

// p1PopulateCanonicalFolders implements P1: hard-link every resolved
// package's extracted contents into its canonical folder.
func (in *Installer) p1PopulateCanonicalFolders(res *Resolution) error {
	err := in.runBounded(len(res.Packages), func(i int) error {
		p := res.Packages[i]
		if err := in.populateOne(p); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Registering bin/script accumulators is ordered for deterministic
	// lifecycle-script execution order downstream; do it single-threaded
	// after the parallel extraction barrier.
	for _, p := range res.Packages {
		in.registerAccumulators(p)
	}
	return nil
}

func (in *Installer) populateOne(p Package) error {
	folder := in.canonicalFolder(p)
	sentinelPath := filepath.Join(filepath.Dir(folder), initializedSentinel)
	required := requiredTags(p)

	existing, ok := readSentinelTags(sentinelPath)
	if ok && tagsEqual(existing, required) {
		return nil // already populated and tags unchanged
	}

	if err := ensureDir(folder); err != nil {
		return wrapIOErr("failed to create canonical folder for "+p.ID(), err)
	}
	src := in.globalCachePath(p)
	if _, err := os.Stat(src); err == nil {
		if err := copyTree(src, folder, false); err != nil {
			return wrapIOErr("failed to populate canonical folder for "+p.ID(), err)
		}
	}
	return writeSentinel(sentinelPath, required)
}

// globalCachePath is where the fetched-and-extracted tarball for (name,
// version) lives, shared across every peer-copy-index of that package; P1
// hard-links each canonical folder's contents from here.
func (in *Installer) globalCachePath(p Package) string {
	return filepath.Join(in.denoDir, "npm", "registry.npmjs.org", sanitizeFolderComponent(p.Name), p.Version)
}

func (in *Installer) registerAccumulators(p Package) {
	nv := p.Name + "@" + p.Version
	folder := in.canonicalFolder(p)

	if p.IsDeprecated {
		in.deprecated = append(in.deprecated, deprecatedEntry{NV: nv, Message: p.DeprecationMsg})
	}

	if p.HasScripts && p.Extra != nil {
		in.scripts = append(in.scripts, lifecycle.Package{
			NV: nv,
			Path: resolvedPackagePath(folder),
			Scripts: p.Extra.Scripts,
		})
	}

	if p.HasBin && p.Extra != nil {
		for name, relPath := range p.Extra.Bin {
			in.binTasks = append(in.binTasks, binTask{
				PackagePath: folder,
				BinName: name,
				BinRelPath: relPath,
				HasScripts: p.HasScripts,
			})
		}
	}
}

// p2PatchPackages implements P2: workspace-declared "link" (local
// patch) packages are cloned into their canonical location, excluding their
// own node_modules child.
func (in *Installer) p2PatchPackages(res *Resolution) error {
	aliases := sortedAliases(res.WorkspaceMembers)
	return in.runBounded(len(aliases), func(i int) error {
		alias := aliases[i]
		src := res.WorkspaceMembers[alias]
		pkgID, ok := res.Roots[alias]
		if !ok {
			return nil
		}
		p, ok := packageByID(res, pkgID)
		if !ok {
			return nil
		}
		dst := in.canonicalFolder(p)
		if err := ensureDir(dst); err != nil {
			return wrapIOErr("failed to create patch-package folder for "+alias, err)
		}
		if err := copyTree(src, dst, true); err != nil {
			return wrapIOErr("failed to clone patch package "+alias, err)
		}
		return nil
	})
}

// p3CopyPackagesForPeerCopies implements P3: every (name,version)
// that appears with multiple peer-copy indices gets its primary copy
// (index 0) recursively copied to each alternate folder_id.
func (in *Installer) p3CopyPackagesForPeerCopies(res *Resolution) error {
	byNameVersion := map[string][]Package{}
	for _, p := range res.Packages {
		key := p.Name + "@" + p.Version
		byNameVersion[key] = append(byNameVersion[key], p)
	}

	var primaries []Package
	var alternates []Package
	for _, group := range byNameVersion {
		if len(group) < 2 {
			continue
		}
		var primary Package
		found := false
		for _, p := range group {
			if p.PeerCopyIndex == 0 {
				primary = p
				found = true
			}
		}
		if !found {
			continue
		}
		for _, p := range group {
			if p.PeerCopyIndex != 0 {
				primaries = append(primaries, primary)
				alternates = append(alternates, p)
			}
		}
	}

	return in.runBounded(len(alternates), func(i int) error {
		primary := primaries[i]
		alt := alternates[i]
		src := in.canonicalFolder(primary)
		dst := in.canonicalFolder(alt)
		if err := ensureDir(dst); err != nil {
			return wrapIOErr("failed to create peer-copy folder for "+alt.ID(), err)
		}
		if err := copyTree(src, dst, false); err != nil {
			return wrapIOErr("failed to copy peer disambiguation for "+alt.ID(), err)
		}
		sentinelPath := filepath.Join(filepath.Dir(dst), initializedSentinel)
		return writeSentinel(sentinelPath, requiredTags(alt))
	})
}
