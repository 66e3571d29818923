// Package fileset resolves include/exclude glob pattern lists into
// deterministic sets of relative file paths.
//
// Include patterns are expanded against a root directory with recursive `**`
// support. A wildcard never matches a path segment starting with '.' unless
// the pattern segment itself starts with '.'. Exclude patterns are then
// applied as a pure filter with shell wildcard semantics, where `*` also
// matches '/', so "drafts/*" excludes everything below drafts. Matched
// directories and dangling symlinks are dropped because only regular files
// can be staged or archived. Paths are always slash-separated and relative to
// the root.
package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/util/sets"
)

// Spec is an ordered include/exclude pattern pair.
type Spec struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// Clone returns a Spec that shares no backing arrays with s.
func (s Spec) Clone() Spec {
	return Spec{
		Include: append([]string(nil), s.Include...),
		Exclude: append([]string(nil), s.Exclude...),
	}
}

// Set is a resolved set of slash-separated paths relative to the resolution root.
type Set struct {
	members sets.Set[string]
}

// NewSet builds a Set from explicit paths.
func NewSet(paths ...string) Set {
	return Set{members: sets.New(paths...)}
}

// Has reports whether rel is a member.
func (s Set) Has(rel string) bool {
	return s.members.Has(rel)
}

// Len returns the number of members.
func (s Set) Len() int {
	return s.members.Len()
}

// Sorted returns the members in lexicographic order.
func (s Set) Sorted() []string {
	return sets.Sorted(s.members)
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	if s.members == nil || other.members == nil {
		return NewSet()
	}
	return Set{members: s.members.Intersect(other.members)}
}

// ValidatePatterns reports the first syntactically invalid pattern in spec.
func ValidatePatterns(spec Spec) error {
	if err := validateIncludes(spec.Include); err != nil {
		return err
	}
	_, err := compileExcludes(spec.Exclude)
	return err
}

func validateIncludes(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid include pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

// compileExcludes compiles exclude patterns without separators, so wildcards
// cross directory boundaries the way fnmatch does.
func compileExcludes(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// visible reports whether every hidden segment of rel is named by a pattern
// segment that itself starts with '.'.
func visible(pattern, rel string) bool {
	if !strings.HasPrefix(rel, ".") && !strings.Contains(rel, "/.") {
		return true
	}
	var dotSegments []string
	for _, seg := range strings.Split(pattern, "/") {
		if strings.HasPrefix(seg, ".") {
			dotSegments = append(dotSegments, seg)
		}
	}
	for _, seg := range strings.Split(rel, "/") {
		if !strings.HasPrefix(seg, ".") {
			continue
		}
		named := false
		for _, p := range dotSegments {
			if ok, _ := doublestar.Match(p, seg); ok {
				named = true
				break
			}
		}
		if !named {
			return false
		}
	}
	return true
}

// Match reports whether rel (slash separated) is selected by spec: it matches
// at least one include pattern and no exclude pattern, with the same rules as
// Resolve. Invalid patterns never match.
func (s Spec) Match(rel string) bool {
	included := false
	for _, p := range s.Include {
		if ok, _ := doublestar.Match(p, rel); ok && visible(p, rel) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range s.Exclude {
		g, err := glob.Compile(p)
		if err == nil && g.Match(rel) {
			return false
		}
	}
	return true
}

// Resolve evaluates spec against root (the working directory when empty).
func Resolve(root string, spec Spec) (Set, error) {
	if root == "" {
		root = "."
	}
	return ResolveFS(os.DirFS(root), spec)
}

// ResolveFS evaluates spec against fsys. A pattern that matches nothing
// contributes nothing; it is not an error.
func ResolveFS(fsys fs.FS, spec Spec) (Set, error) {
	if err := validateIncludes(spec.Include); err != nil {
		return Set{}, err
	}
	excludes, err := compileExcludes(spec.Exclude)
	if err != nil {
		return Set{}, err
	}

	matched := sets.New[string]()
	for _, pattern := range spec.Include {
		hits, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return Set{}, fmt.Errorf("expand %q: %w", pattern, err)
		}
		kept := 0
		for _, h := range hits {
			if visible(pattern, h) {
				matched.Add(h)
				kept++
			}
		}
		slog.Debug("Include pattern expanded", logfields.Pattern(pattern), logfields.Count(kept))
	}

	for i, g := range excludes {
		for _, rel := range sets.Sorted(matched) {
			if g.Match(rel) {
				matched.Delete(rel)
				slog.Debug("Excluded path", logfields.Pattern(spec.Exclude[i]), logfields.File(rel))
			}
		}
	}

	for _, rel := range sets.Sorted(matched) {
		info, err := fs.Stat(fsys, rel)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Skipping dangling symlink", logfields.File(rel))
			matched.Delete(rel)
			continue
		}
		if err != nil {
			return Set{}, fmt.Errorf("stat %s: %w", rel, err)
		}
		if info.IsDir() {
			matched.Delete(rel)
		}
	}

	return Set{members: matched}, nil
}
