package parse

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/karrick/godirwalk"

	"github.com/LuminateWireless/repobuild/internal/buildfile"
	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/node"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// BuildFileName is the on-disk file name the external build-file reader
// looks for in each directory (spec §6: "a directory tree rooted at
// root_dir containing BUILD files").
const BuildFileName = "BUILD"

// WildcardToken is the conventional "everything under the tree" seed,
// matching the form other build systems in the pack use for recursive
// package expansion.
const WildcardToken = "//..."

// loader reads and caches build files by directory, relative to root_dir.
type loader struct {
	rootDir string
	cache   map[string]*buildfile.File
}

func newLoader(rootDir string) *loader {
	return &loader{rootDir: rootDir, cache: map[string]*buildfile.File{}}
}

func (l *loader) load(dir string) (*buildfile.File, error) {
	if f, ok := l.cache[dir]; ok {
		return f, nil
	}
	p := filepath.Join(l.rootDir, dir, BuildFileName)
	fh, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			l.cache[dir] = nil
			return nil, nil
		}
		return nil, core.Wrap(core.ParseIO, "//"+dir, err)
	}
	defer fh.Close()
	f, err := buildfile.Parse(p, fh)
	if err != nil {
		return nil, core.Wrap(core.ParseIO, "//"+dir, err)
	}
	l.cache[dir] = f
	return f, nil
}

// pending is a queued (not yet constructed) target reference.
type pending struct {
	t      target.Info
	isSeed bool
}

// Parse is the entry point (spec §4.6): load build files on demand starting
// from seeds, dispatch each entry to registry, hoist subnodes, then resolve
// every declared dependency target to a node pointer. seeds are target
// tokens relative to the repo root (e.g. "//foo:bar"), or the literal
// WildcardToken to expand every target in every BUILD file under root_dir.
func Parse(in *core.Input, registry *node.Registry, seeds []string) (*Pool, error) {
	pool := NewPool()
	l := newLoader(in.RootDir)

	expanded, err := expandSeeds(l, in.RootDir, seeds)
	if err != nil {
		return nil, err
	}

	queue := make([]pending, 0, len(expanded))
	queued := map[string]bool{}
	for _, s := range expanded {
		t, err := target.Parse("", s)
		if err != nil {
			return nil, core.Wrap(core.MalformedTarget, s, err)
		}
		queue = append(queue, pending{t: t, isSeed: true})
		queued[t.FullPath()] = true
	}

	var parseErrs *multierror.Error
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if _, ok := pool.Get(item.t.FullPath()); ok {
			continue
		}
		n, newlyQueued, err := parseOne(l, registry, in, pool, item.t)
		if err != nil {
			parseErrs = multierror.Append(parseErrs, err)
			continue
		}
		if item.isSeed {
			pool.MarkInput(n)
		}
		for _, dt := range newlyQueued {
			if !queued[dt.FullPath()] {
				queued[dt.FullPath()] = true
				queue = append(queue, pending{t: dt})
			}
		}
	}
	if err := parseErrs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if err := resolveDependencies(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// parseOne loads dir's build file, finds t's entry, constructs and parses
// the node, hoists its subnodes, and returns the newly declared dependency
// targets so the caller can enqueue them (spec §4.6 steps 2-5).
func parseOne(l *loader, registry *node.Registry, in *core.Input, pool *Pool, t target.Info) (node.Node, []target.Info, error) {
	bf, err := l.load(t.Dir)
	if err != nil {
		return nil, nil, err
	}
	if bf == nil {
		return nil, nil, core.NewError(core.UnknownTarget, t.FullPath(), "no build file in "+t.Dir)
	}
	entry := bf.Entry(t.LocalName)
	if entry == nil {
		return nil, nil, core.NewError(core.UnknownTarget, t.FullPath(), "no such target in "+bf.Name)
	}
	n, err := registry.New(entry.Type(), t, in)
	if err != nil {
		return nil, nil, err
	}
	if err := n.Parse(entry); err != nil {
		return nil, nil, err
	}
	pool.Add(n)
	hoist(pool, n)
	return n, n.DepTargets(), nil
}

// resolveDependencies fills in Dependencies() for every node in the pool by
// looking up each DepTargets() entry, failing with UnknownTarget on any miss
// (spec §4.6 step 6).
func resolveDependencies(pool *Pool) error {
	var errs *multierror.Error
	for _, n := range pool.Nodes() {
		deps := n.DepTargets()
		if len(deps) == 0 {
			continue
		}
		resolved := make([]node.Node, 0, len(deps))
		for _, dt := range deps {
			dep, ok := pool.Get(dt.FullPath())
			if !ok {
				errs = multierror.Append(errs, core.NewError(core.UnknownTarget, dt.FullPath(),
					fmt.Sprintf("referenced from %s", n.Info().FullPath())))
				continue
			}
			resolved = append(resolved, dep)
		}
		n.SetDependencies(resolved)
	}
	return errs.ErrorOrNil()
}

// expandSeeds turns the CLI-provided seed tokens into concrete "//dir:name"
// strings, expanding the WildcardToken by walking every BUILD file under
// rootDir with godirwalk — the fast recursive directory walk the teacher
// pack uses for this same "discover everything under a tree" shape.
func expandSeeds(l *loader, rootDir string, seeds []string) ([]string, error) {
	wantsAll := false
	var explicit []string
	for _, s := range seeds {
		if s == WildcardToken {
			wantsAll = true
			continue
		}
		explicit = append(explicit, s)
	}
	if !wantsAll {
		return explicit, nil
	}

	var dirs []string
	err := godirwalk.Walk(rootDir, &godirwalk.Options{
		Callback: func(p string, de *godirwalk.Dirent) error {
			if de.IsDir() || de.Name() != BuildFileName {
				return nil
			}
			rel, err := filepath.Rel(rootDir, filepath.Dir(p))
			if err != nil {
				return err
			}
			dirs = append(dirs, path.Clean(filepath.ToSlash(rel)))
			return nil
		},
		Unsorted: false,
	})
	if err != nil {
		return nil, core.Wrap(core.ParseIO, WildcardToken, err)
	}

	out := append([]string{}, explicit...)
	for _, dir := range dirs {
		if dir == "." {
			dir = ""
		}
		bf, err := l.load(dir)
		if err != nil {
			return nil, err
		}
		if bf == nil {
			continue
		}
		for _, e := range bf.Entries {
			out = append(out, "//"+dir+":"+e.Name())
		}
	}
	return out, nil
}
