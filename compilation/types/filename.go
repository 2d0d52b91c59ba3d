package types

import (
	"os"
	"path/filepath"
	"strings"
)

// Filename describes the identity of a source file as reported by a compilation platform. A single physical file
// on disk can be referred to in several ways across a compilation (an absolute path, a path relative to the
// project root, a path relative to some other file, or whatever string the compiler itself used to refer to it),
// so Filename carries all the facets a caller might need rather than collapsing them into one string too early.
//
// Two Filename values are considered to refer to the same file if and only if their Absolute facets match after
// normalization. The other facets are informational and are not used for equality.
type Filename struct {
	// absolute is the fully resolved, cleaned, absolute path to the file. This is the only facet used for equality.
	absolute string

	// relative is the path relative to the compilation's working directory, if it is a descendant of it.
	relative string

	// short is a shortened display path with common prefixes (dependency roots, working directory, home) stripped.
	short string

	// used is the exact string the compiler or platform tooling used to reference this file (e.g. an import
	// remapping target, or a path as it appeared in combined-json "source" keys). Preserved verbatim since some
	// platform adapters need to echo it back into artifacts unchanged.
	used string
}

// dependencyRootNames are directory names stripped from the front of a Short() path, tried in order; the first one
// found anywhere in the path wins. These mirror the vendor/dependency directory conventions of the frameworks this
// package's adapters support: node_modules (npm-based frameworks), lib (Foundry's default dependency root), and the
// legacy vendor name a few older tools use.
var dependencyRootNames = []string{"node_modules", "lib", "vendor", "_vendor"}

// ResolveOptions carries the optional include-path and import-remapping hints a platform adapter may have on hand
// when resolving a raw compiler-reported path to a Filename. Both are used only when the raw path does not already
// resolve to an existing file relative to the working directory; see NewFilenameWithOptions.
type ResolveOptions struct {
	// IncludePaths are additional directories tried (in order) as a base for the raw path, after the working
	// directory and before giving up and falling back to a syntactic join.
	IncludePaths []string

	// Remappings holds solc-style import remappings, each either "prefix=target" or "context:prefix=target". A raw
	// path whose start matches a remapping's prefix is retried with that prefix substituted for the target.
	Remappings []string
}

// NewFilename constructs a Filename for rawPath as reported by a platform adapter, resolving it against
// workingDir with no additional include-path or remapping hints. See NewFilenameWithOptions for the full
// resolution rules.
func NewFilename(rawPath string, workingDir string, used string) Filename {
	return NewFilenameWithOptions(rawPath, workingDir, used, ResolveOptions{})
}

// NewFilenameWithOptions resolves rawPath into a Filename identity, in this order:
//
//  1. Expand a leading "~" and any "$VAR"/"${VAR}" environment references in rawPath.
//  2. If the expanded path is absolute and exists on disk, canonicalize it (resolve symlinks, clean "..") and use
//     that as absolute.
//  3. Otherwise, try joining the expanded path against the working directory, then each of opts.IncludePaths, then
//     each remapping substitution in opts.Remappings; the first candidate that exists on disk becomes absolute. If
//     none exist, absolute is the syntactically cleaned join of workingDir and the expanded path (existence is not
//     required in this case, since generated/virtual sources and not-yet-flushed artifacts are common).
//  4. relative is absolute relative to workingDir if absolute is a descendant of workingDir; otherwise it equals
//     absolute.
//  5. short strips, in order, any dependency root (node_modules/lib/vendor), the working directory, and the user's
//     home directory from the front of absolute; the first of these that matches wins. If none match, short falls
//     back to relative, then to absolute.
//  6. used is rawPath, verbatim and untransformed.
func NewFilenameWithOptions(rawPath string, workingDir string, used string, opts ResolveOptions) Filename {
	expanded := expandHomeAndEnv(rawPath)

	absolute := resolveAbsolute(expanded, workingDir, opts)

	f := Filename{
		absolute: absolute,
		used:     used,
	}

	if workingDir != "" {
		cleanWorkingDir := filepath.Clean(expandHomeAndEnv(workingDir))
		if rel, ok := descendantRel(cleanWorkingDir, absolute); ok {
			f.relative = rel
		} else {
			f.relative = absolute
		}
	} else {
		f.relative = absolute
	}

	f.short = shortDisplayPath(absolute, workingDir)

	return f
}

// expandHomeAndEnv expands a leading "~" to the user's home directory and any "$VAR"/"${VAR}" references.
func expandHomeAndEnv(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	} else if strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// resolveAbsolute implements rules 2-3 of NewFilenameWithOptions's resolution order.
func resolveAbsolute(expanded string, workingDir string, opts ResolveOptions) string {
	if filepath.IsAbs(expanded) {
		if canonical, err := canonicalize(expanded); err == nil {
			return canonical
		}
		return filepath.Clean(expanded)
	}

	var candidates []string
	if workingDir != "" {
		candidates = append(candidates, filepath.Join(workingDir, expanded))
	} else {
		candidates = append(candidates, filepath.Clean(expanded))
	}
	for _, includePath := range opts.IncludePaths {
		candidates = append(candidates, filepath.Join(includePath, expanded))
	}
	for _, remapped := range applyRemappings(expanded, opts.Remappings) {
		candidates = append(candidates, remapped)
	}

	for _, candidate := range candidates {
		if canonical, err := canonicalize(candidate); err == nil {
			return canonical
		}
	}

	// Nothing exists on disk yet (generated source, archive rehydration, a path the compiler reports before the
	// file is flushed): fall back to the syntactically normalized join, no existence required.
	return candidates[0]
}

// applyRemappings retries expanded against each solc-style "prefix=target" or "context:prefix=target" remapping
// whose prefix it starts with, substituting target for prefix.
func applyRemappings(expanded string, remappings []string) []string {
	var out []string
	for _, remapping := range remappings {
		spec := remapping
		if idx := strings.Index(spec, ":"); idx >= 0 {
			spec = spec[idx+1:]
		}
		eq := strings.Index(spec, "=")
		if eq < 0 {
			continue
		}
		prefix, target := spec[:eq], spec[eq+1:]
		if prefix == "" || !strings.HasPrefix(expanded, prefix) {
			continue
		}
		out = append(out, filepath.Join(target, strings.TrimPrefix(expanded, prefix)))
	}
	return out
}

// canonicalize resolves symlinks and cleans ".." segments for a path that must exist on disk.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// descendantRel reports whether target is a (possibly indirect) descendant of base, returning the relative path
// between them if so.
func descendantRel(base string, target string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	if err != nil || strings.HasPrefix(rel, "..") || rel == "." {
		return "", rel == "."
	}
	return rel, true
}

// shortDisplayPath implements rule 5 of NewFilenameWithOptions's resolution order.
func shortDisplayPath(absolute string, workingDir string) string {
	for _, root := range dependencyRootNames {
		marker := string(filepath.Separator) + root + string(filepath.Separator)
		if idx := strings.Index(absolute, marker); idx >= 0 {
			return absolute[idx+len(marker):]
		}
	}

	if workingDir != "" {
		cleanWorkingDir := filepath.Clean(expandHomeAndEnv(workingDir))
		if rel, ok := descendantRel(cleanWorkingDir, absolute); ok {
			return rel
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rel, ok := descendantRel(home, absolute); ok {
			return rel
		}
	}

	return absolute
}

// Absolute returns the absolute, cleaned path. This is the canonical identity of the file.
func (f Filename) Absolute() string {
	return f.absolute
}

// Relative returns the path relative to the working directory used to resolve this Filename, or the absolute
// path itself if it isn't a descendant of that directory.
func (f Filename) Relative() string {
	return f.relative
}

// Short returns a shortened path suitable for console/log output.
func (f Filename) Short() string {
	return f.short
}

// Used returns the exact string the originating platform adapter used to reference this file.
func (f Filename) Used() string {
	return f.used
}

// Equal returns true if two Filename values identify the same underlying file. Only the absolute facet is
// compared; a file referenced by two different relative/used strings (e.g. because of an import remapping) is
// still the same file if the absolute paths agree.
func (f Filename) Equal(other Filename) bool {
	return f.absolute != "" && f.absolute == other.absolute
}

// String returns the short display form of the filename.
func (f Filename) String() string {
	return f.short
}
