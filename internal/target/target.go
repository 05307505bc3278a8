// Package target implements the identity model (C1): TargetInfo, Resource
// and the insertion-ordered collection types (FileSet, StringSet, EnvMap)
// used pervasively to accumulate transitive artifacts without reordering
// (spec §3). Info is grounded directly on please's own build label
// (src/core/build_label.go): a small immutable struct parsed from one of a
// handful of token forms, compared by its canonical string, with a
// deliberately named "parse once, immutable struct, String() canonical"
// shape. Unlike a BuildLabel, Info also carries a make_path: please never
// needs one since it drives its own executor rather than emitting a
// third-party file format, so collisions between two distinct targets
// sanitizing to the same Make-safe token are disambiguated here with
// cespare/xxhash, the same hashing library please itself depends on
// (elsewhere used for content identity; here repurposed for token identity).
package target

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Info is the identity of a declared build entity (spec §3's TargetInfo):
// the directory of the build file that declares it and its name within that
// file. Two Infos are equal iff their FullPath matches. Immutable after
// construction; always pass by value.
type Info struct {
	Dir       string
	LocalName string
}

// FullPath returns the canonical "//dir:name" form of this target. A target
// declared at the repo root has an empty Dir, rendering as "//:name".
func (t Info) FullPath() string {
	return "//" + t.Dir + ":" + t.LocalName
}

// Equal reports whether t and o name the same target.
func (t Info) Equal(o Info) bool {
	return t.Dir == o.Dir && t.LocalName == o.LocalName
}

// GetParallelTarget returns a new Info in the same directory as t but with a
// different local name, the idiom nodes use to mint identity for a spawned
// subnode that needs to be independently addressable (spec §4.1).
func (t Info) GetParallelTarget(newLocalName string) Info {
	return Info{Dir: t.Dir, LocalName: newLocalName}
}

var (
	makePathMu     sync.Mutex
	makePathTokens = map[string]string{} // full_path -> make_path
	makePathOwners = map[string]string{} // make_path -> the full_path that claimed it
)

// ResetMakePathTokens clears the process-wide make_path disambiguation
// state. Generate calls this once at the start of every run; tests call it
// between cases so unrelated fixtures reusing the same target names don't
// see each other's disambiguation suffixes.
func ResetMakePathTokens() {
	makePathMu.Lock()
	defer makePathMu.Unlock()
	makePathTokens = map[string]string{}
	makePathOwners = map[string]string{}
}

// MakePath returns a Make-rule-safe token for t, stable for the lifetime of
// the process (or until ResetMakePathTokens is called): same t always
// returns the same token, and two distinct targets never collide. The
// sanitized full path is used directly unless another target has already
// claimed it, in which case an xxhash-derived suffix disambiguates.
func (t Info) MakePath() string {
	full := t.FullPath()

	makePathMu.Lock()
	defer makePathMu.Unlock()
	if tok, ok := makePathTokens[full]; ok {
		return tok
	}

	base := sanitizeMakePath(full)
	tok := base
	if owner, taken := makePathOwners[tok]; taken && owner != full {
		tok = fmt.Sprintf("%s_%x", base, xxhash.Sum64String(full))
	}
	makePathTokens[full] = tok
	makePathOwners[tok] = full
	return tok
}

// sanitizeMakePath replaces every character that isn't safe to use bare in a
// Make rule name with '_'.
func sanitizeMakePath(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// Parse parses a target token relative to currentDir into an Info (spec
// §4.1). It accepts four forms:
//
//   - ":name"      -- a target in currentDir
//   - "//dir:name" -- an absolute target
//   - "//dir"      -- absolute, name defaults to the last path component of dir
//   - a bare path  -- resolved relative to currentDir, name defaults to its
//     last path component (please's "implicit expansion of the final
//     element", generalized to allow slashes without a leading "//")
func Parse(currentDir, token string) (Info, error) {
	if token == "" {
		return Info{}, fmt.Errorf("empty target token")
	}

	switch {
	case strings.HasPrefix(token, "//"):
		rest := token[2:]
		if idx := strings.IndexByte(rest, ':'); idx != -1 {
			dir, name := rest[:idx], rest[idx+1:]
			if name == "" {
				return Info{}, fmt.Errorf("malformed target %q: empty name after ':'", token)
			}
			return newInfo(cleanDir(dir), name)
		}
		if rest == "" {
			return Info{}, fmt.Errorf("malformed target %q: missing package", token)
		}
		dir := cleanDir(rest)
		return newInfo(dir, lastComponent(dir))

	case strings.HasPrefix(token, ":"):
		name := token[1:]
		if name == "" {
			return Info{}, fmt.Errorf("malformed target %q: empty name after ':'", token)
		}
		return newInfo(cleanDir(currentDir), name)

	default:
		joined := token
		if currentDir != "" {
			joined = path.Join(currentDir, token)
		}
		dir := cleanDir(path.Dir(joined))
		name := path.Base(joined)
		return newInfo(dir, name)
	}
}

func newInfo(dir, name string) (Info, error) {
	if strings.ContainsAny(name, "/:") {
		return Info{}, fmt.Errorf("malformed target name %q", name)
	}
	return Info{Dir: dir, LocalName: name}, nil
}

// cleanDir normalizes a package directory: POSIX-separated, ".." segments
// collapsed against real prefixes, no leading or trailing slash, and "."
// (the root) represented as the empty string.
func cleanDir(dir string) string {
	if dir == "" {
		return ""
	}
	c := path.Clean(filepathToSlash(dir))
	c = strings.Trim(c, "/")
	if c == "." {
		return ""
	}
	return c
}

// filepathToSlash is a minimal stand-in for filepath.ToSlash that doesn't
// pull in the filepath package just for this one substitution; target
// tokens are always written with forward slashes regardless of host OS.
func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}

func lastComponent(dir string) string {
	if dir == "" {
		return ""
	}
	return path.Base(dir)
}

// Resource is the identity of a file or file-valued token (spec §3): its
// path as it will appear in the Makefile (possibly including a make
// variable like "$(OBJ_DIR)"), and whether it's a generated artifact rather
// than a source checked into the tree. Two Resources are equal iff their
// Path matches.
type Resource struct {
	Path      string
	Generated bool
}

// FromRootPath constructs a Resource for a path relative to the repo root.
func FromRootPath(p string) Resource {
	return Resource{Path: path.Clean(p)}
}

// FromLocalPath constructs a Resource for a path relative to prefix (a
// target's package directory), joining the two.
func FromLocalPath(prefix, p string) Resource {
	return Resource{Path: path.Join(prefix, p)}
}

// GeneratedResource constructs a Resource for a build output: a path under
// one of the managed directories, already known not to exist on disk before
// `make` runs.
func GeneratedResource(p string) Resource {
	return Resource{Path: p, Generated: true}
}

// Touchfile constructs the canonical zero-byte marker Resource for a node
// performing a multi-file or opaque operation (spec §4.4's "Touchfile
// discipline"): its path is derived deterministically from the target's
// identity and a caller-supplied suffix so that two distinct nodes never
// share one (spec §3 invariant). dirRef is the make-variable reference
// (e.g. "$(OBJ_DIR)") the touchfile is rooted under.
func Touchfile(dirRef string, t Info, suffix string) Resource {
	name := "." + t.LocalName + "." + suffix + ".touch"
	return Resource{Path: path.Join(dirRef, t.Dir, name), Generated: true}
}

// Dirname returns the directory portion of this resource's path.
func (r Resource) Dirname() string { return path.Dir(r.Path) }

// Basename returns the file-name portion of this resource's path.
func (r Resource) Basename() string { return path.Base(r.Path) }

// FileSet is an insertion-ordered set of Resources, deduplicated by Path
// (spec §3: "ResourceFileSet... used pervasively to accumulate transitive
// artifacts without reordering").
type FileSet struct {
	items []Resource
	seen  map[string]bool
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{seen: map[string]bool{}}
}

// Add appends r if no Resource with the same Path has been added yet.
func (s *FileSet) Add(r Resource) {
	if s.seen[r.Path] {
		return
	}
	s.seen[r.Path] = true
	s.items = append(s.items, r)
}

// AddAll adds each of rs in order.
func (s *FileSet) AddAll(rs []Resource) {
	for _, r := range rs {
		s.Add(r)
	}
}

// Slice returns the accumulated Resources in insertion order. The caller
// must not mutate the returned slice.
func (s *FileSet) Slice() []Resource {
	return s.items
}

// Paths returns just the Path of each accumulated Resource, in insertion order.
func (s *FileSet) Paths() []string {
	out := make([]string, len(s.items))
	for i, r := range s.items {
		out[i] = r.Path
	}
	return out
}

// StringSet is an insertion-ordered set of strings, used for flag and
// include-dir collections (spec §4.4).
type StringSet struct {
	items []string
	seen  map[string]bool
}

// NewStringSet returns an empty StringSet.
func NewStringSet() *StringSet {
	return &StringSet{seen: map[string]bool{}}
}

// Add appends v if it hasn't been added yet.
func (s *StringSet) Add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

// AddAll adds each of vs in order.
func (s *StringSet) AddAll(vs []string) {
	for _, v := range vs {
		s.Add(v)
	}
}

// Slice returns the accumulated strings in insertion order. The caller must
// not mutate the returned slice.
func (s *StringSet) Slice() []string {
	return s.items
}

// EnvEntry is a single name/value environment variable assignment.
type EnvEntry struct {
	Name  string
	Value string
}

// EnvMap accumulates environment variable assignments with first-writer-wins
// semantics (spec §4.4 step 3: "downstream writes do not override local
// assignments"), since the collection DFS visits a node before its
// dependencies and calls SetIfAbsent in that order.
type EnvMap struct {
	order  []string
	values map[string]string
}

// NewEnvMap returns an empty EnvMap.
func NewEnvMap() *EnvMap {
	return &EnvMap{values: map[string]string{}}
}

// SetIfAbsent records name=value unless name has already been set, in which
// case it's a no-op: the earlier (shallower in the DFS) assignment wins.
func (m *EnvMap) SetIfAbsent(name, value string) {
	if _, ok := m.values[name]; ok {
		return
	}
	m.values[name] = value
	m.order = append(m.order, name)
}

// Entries returns the accumulated assignments in the order they were first set.
func (m *EnvMap) Entries() []EnvEntry {
	out := make([]EnvEntry, len(m.order))
	for i, name := range m.order {
		out[i] = EnvEntry{Name: name, Value: m.values[name]}
	}
	return out
}
