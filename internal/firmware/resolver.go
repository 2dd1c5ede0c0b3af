package firmware

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/muurk/fwfleet/internal/mmapi"
)

// Mapping assigns firmware package paths to device positions
type Mapping map[int]string

// Positions returns the mapped positions in ascending order
func (m Mapping) Positions() []int {
	positions := make([]int, 0, len(m))
	for position := range m {
		positions = append(positions, position)
	}
	sort.Ints(positions)
	return positions
}

// ParseMapping parses "position=path" entries, as given on the command line
func ParseMapping(entries []string) (Mapping, error) {
	m := make(Mapping, len(entries))
	for _, entry := range entries {
		key, path, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid firmware entry %q (want position=path)", entry)
		}
		position, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid position in firmware entry %q: %w", entry, err)
		}
		if position < 0 {
			return nil, fmt.Errorf("invalid position in firmware entry %q: must not be negative", entry)
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, fmt.Errorf("empty path in firmware entry %q", entry)
		}
		if _, dup := m[position]; dup {
			return nil, fmt.Errorf("position %d mapped more than once", position)
		}
		m[position] = path
	}
	return m, nil
}

// Source identifies the package chosen for one device
type Source struct {
	Position int
	Path     string
}

// Loader produces package bytes for a path
type Loader interface {
	Load(path string) ([]byte, error)
}

// FileLoader reads packages from the local file system.
// Relative paths are resolved against Dir when it is set.
type FileLoader struct {
	Dir string
}

// Load reads the whole package file
func (l FileLoader) Load(path string) ([]byte, error) {
	if l.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read firmware package: %w", err)
	}
	return data, nil
}

// MemoryLoader serves packages from memory, keyed by path
type MemoryLoader map[string][]byte

// Load returns the stored bytes or os.ErrNotExist
func (l MemoryLoader) Load(path string) ([]byte, error) {
	data, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("failed to read firmware package %s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

// Resolver looks up and loads firmware for devices
type Resolver struct {
	Mapping Mapping
	Loader  Loader
}

// NewResolver creates a resolver. A nil loader reads from the working directory.
func NewResolver(mapping Mapping, loader Loader) *Resolver {
	if loader == nil {
		loader = FileLoader{}
	}
	if mapping == nil {
		mapping = Mapping{}
	}
	return &Resolver{Mapping: mapping, Loader: loader}
}

// Resolve returns the package for a device. The second result is false when
// the device has no position or nothing is mapped to it.
//
// Position 0 is a position like any other: a device reporting 0 gets the
// package mapped to key 0. A device without a position never falls back
// to key 0.
func (r *Resolver) Resolve(device mmapi.Device) (Source, bool) {
	if device.Position == nil {
		return Source{}, false
	}
	path, ok := r.Mapping[*device.Position]
	if !ok || path == "" {
		return Source{}, false
	}
	return Source{Position: *device.Position, Path: path}, true
}

// Load reads the package bytes for a resolved source
func (r *Resolver) Load(src Source) ([]byte, error) {
	return r.Loader.Load(src.Path)
}
