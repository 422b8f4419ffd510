// Package resolver implements path lookup and LSN search against a decoded
// directory tree: splitting a path into components and descending one
// level at a time (Stat, StatTranslate), and a recursive search for the
// directory entry whose data extent begins at a given logical sector
// (FindLSN, FindLSNPath).
package resolver

import (
	"fmt"
	"strings"

	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/logging"
)

// Image is the minimal capability resolver needs from whatever is holding
// the decoded volume: read a directory's data extent into memory, walk it
// into records, and resolve Rock Ridge continuation entries that point
// elsewhere in the image.
type Image interface {
	ReadExtent(extent uint32, length uint32) ([]byte, error)
	ReadAt(p []byte, off int64) (int, error)
	Joliet() bool
}

// Resolver walks a directory tree rooted at a single Entry.
type Resolver struct {
	image  Image
	root   *directory.Entry
	logger *logging.Logger
}

func New(image Image, root *directory.Entry, logger *logging.Logger) *Resolver {
	return &Resolver{image: image, root: root, logger: logger}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Stat resolves path against the exact on-disk identifiers (or, when the
// image has Joliet, the decoded Joliet names). When a component has no
// exact match and Joliet is inactive, it retries with the translated
// comparison of matchChildTranslated.
func (r *Resolver) Stat(path string) (*directory.Entry, error) {
	return r.walk(splitPath(path), false)
}

// StatTranslate resolves path the way a shell completion would: matching
// is case-insensitive and a ";1" version suffix need not be given.
func (r *Resolver) StatTranslate(path string) (*directory.Entry, error) {
	return r.walk(splitPath(path), true)
}

func (r *Resolver) walk(components []string, translate bool) (*directory.Entry, error) {
	current := r.root
	for _, want := range components {
		children, err := r.Readdir(current)
		if err != nil {
			return nil, err
		}

		next := matchChild(children, want, translate)
		if next == nil && !translate && !r.image.Joliet() {
			next = matchChildTranslated(children, want)
		}
		if next == nil {
			return nil, fmt.Errorf("resolver: %q not found", want)
		}
		current = next
	}
	return current, nil
}

func matchChild(children []*directory.Entry, want string, translate bool) *directory.Entry {
	for _, c := range children {
		name := c.Name()
		if !translate {
			if name == want {
				return c
			}
			continue
		}
		if strings.EqualFold(stripVersion(name), stripVersion(want)) {
			return c
		}
	}
	return nil
}

// matchChildTranslated retries a failed plain lookup using the translated
// comparison (version suffix stripped, case folded): a plain Stat falls back
// to this only when Joliet is inactive and the candidate carries no Rock
// Ridge name, since a Rock Ridge or Joliet name is already the exact form a
// caller would have been given and translating it could match the wrong
// entry.
func matchChildTranslated(children []*directory.Entry, want string) *directory.Entry {
	target := stripVersion(want)
	for _, c := range children {
		if c.Record.RockRidge != nil && c.Record.RockRidge.AlternateName != "" {
			continue
		}
		if strings.EqualFold(stripVersion(c.Name()), target) {
			return c
		}
	}
	return nil
}

func stripVersion(name string) string {
	if i := strings.LastIndexByte(name, ';'); i >= 0 {
		return name[:i]
	}
	return name
}

// Readdir lists the visible children of a directory entry: self/parent
// references and Rock Ridge relocated-directory placeholders are omitted.
func (r *Resolver) Readdir(dir *directory.Entry) ([]*directory.Entry, error) {
	return r.readdir(dir, false)
}

// readdir is Readdir's implementation, parameterized on whether Rock Ridge
// relocated-directory placeholders (RE entries) are kept. A placeholder's
// own extent is the relocated subtree's real data (its CL entry records as
// much, per ECMA-119/RRIP): a normal listing must still hide it since the
// subtree's real name lives under rr_moved, but a search that needs to
// reach every sector in the tree (FindLSN) has to walk through it anyway,
// or a relocated subtree becomes permanently unreachable.
func (r *Resolver) readdir(dir *directory.Entry, includeRelocated bool) ([]*directory.Entry, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("resolver: %q is not a directory", dir.FullPath())
	}

	block, err := r.image.ReadExtent(dir.Record.Extent, dir.Record.DataLength)
	if err != nil {
		return nil, fmt.Errorf("resolver: reading directory extent: %w", err)
	}

	records, err := directory.WalkBlock(block, r.image, r.image.Joliet(), r.logger)
	if err != nil {
		return nil, fmt.Errorf("resolver: walking directory block: %w", err)
	}

	var out []*directory.Entry
	for _, rec := range records {
		if rec.IsSelf() || rec.IsParent() {
			continue
		}
		if rec.Suppressed() && !includeRelocated {
			continue
		}
		if rec.RockRidge != nil && rec.RockRidge.ChildLink {
			r.logger.Trace("resolver: record carries a child-link to a relocated subtree",
				"name", rec.RawIdentifier, "extent", rec.Extent)
		}
		out = append(out, &directory.Entry{Record: rec, Parent: dir, StripVersion: dir.StripVersion})
	}
	return out, nil
}

// scanContext is allocated fresh for each top-level FindLSN/FindLSNPath
// call so concurrent searches never share recursion state.
type scanContext struct {
	target    uint32
	bestPath  []string
	bestEntry *directory.Entry
	found     bool
}

// FindLSN returns the directory entry whose data extent begins at lsn, or
// nil if no entry's extent begins there. The search recurses
// into subdirectories depth-first and stops as soon as a match is found.
func (r *Resolver) FindLSN(lsn uint32) (*directory.Entry, error) {
	ctx := &scanContext{target: lsn}
	if err := r.findLSNRecurse(r.root, nil, ctx); err != nil {
		return nil, err
	}
	if !ctx.found {
		return nil, nil
	}
	return ctx.bestEntry, nil
}

// FindLSNPath is FindLSN plus the full path components from the root down
// to the matching entry.
func (r *Resolver) FindLSNPath(lsn uint32) ([]string, *directory.Entry, error) {
	ctx := &scanContext{target: lsn}
	if err := r.findLSNRecurse(r.root, nil, ctx); err != nil {
		return nil, nil, err
	}
	if !ctx.found {
		return nil, nil, nil
	}
	return ctx.bestPath, ctx.bestEntry, nil
}

func (r *Resolver) findLSNRecurse(dir *directory.Entry, path []string, ctx *scanContext) error {
	if ctx.found {
		return nil
	}

	children, err := r.readdir(dir, true)
	if err != nil {
		return err
	}

	for _, child := range children {
		if child.Record.Extent == ctx.target {
			ctx.bestEntry = child
			ctx.bestPath = append(append([]string(nil), path...), child.Name())
			ctx.found = true
			return nil
		}
	}

	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		childPath := append(append([]string(nil), path...), child.Name())
		if err := r.findLSNRecurse(child, childPath, ctx); err != nil {
			return err
		}
		if ctx.found {
			return nil
		}
	}

	return nil
}
