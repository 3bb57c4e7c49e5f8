package tags

import (
	"path/filepath"
	"sort"
)

// Index is the check-mark set derived from a tag mapping. It holds both the
// base names and the full paths of every tagged entry: the browser asks by
// full path, while base-name lookups reproduce the cheaper per-row check
// that can mark an untagged file sharing a name with a tagged one.
type Index struct {
	names map[string]struct{}
	paths map[string]struct{}
}

// Rebuild derives the index from records in O(len(records)).
func Rebuild(records map[string]Record) *Index {
	idx := &Index{
		names: make(map[string]struct{}, len(records)),
		paths: make(map[string]struct{}, len(records)),
	}
	for p := range records {
		idx.paths[p] = struct{}{}
		idx.names[filepath.Base(p)] = struct{}{}
	}
	return idx
}

// Contains reports whether any tagged path has the given base name.
func (i *Index) Contains(name string) bool {
	if i == nil {
		return false
	}
	_, ok := i.names[name]
	return ok
}

// ContainsPath reports whether path itself is tagged.
func (i *Index) ContainsPath(path string) bool {
	if i == nil {
		return false
	}
	_, ok := i.paths[filepath.Clean(path)]
	return ok
}

// Marked answers the browser's per-row question for path, by base name when
// byName is set and by full path otherwise.
func (i *Index) Marked(path string, byName bool) bool {
	if byName {
		return i.Contains(filepath.Base(path))
	}
	return i.ContainsPath(path)
}

// Names returns the base names in sorted order
func (i *Index) Names() []string {
	if i == nil {
		return nil
	}
	names := make([]string, 0, len(i.names))
	for n := range i.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tagged paths
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.paths)
}
