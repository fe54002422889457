package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"photopull/internal/pull"
)

// MemorySource is an in-memory implementation of the AssetSource
// interface. It holds assets and their variant bytes in maps, making it
// useful for testing and dry wiring. Safe for concurrent use.
type MemorySource struct {
	mu       sync.RWMutex
	assets   map[string][]pull.Asset // keyed by section string
	content  map[string][]byte       // keyed by variant ref
	failRefs map[string]error        // refs whose Fetch should fail
	failSect map[string]error        // sections whose enumeration should fail
}

var _ pull.AssetSource = (*MemorySource)(nil)

func NewMemorySource() *MemorySource {
	return &MemorySource{
		assets:   make(map[string][]pull.Asset),
		content:  make(map[string][]byte),
		failRefs: make(map[string]error),
		failSect: make(map[string]error),
	}
}

// Add registers an asset in its section and stores the bytes for each
// of its variants.
func (m *MemorySource) Add(a pull.Asset, variants map[string][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := a.Section.String()
	m.assets[key] = append(m.assets[key], a)
	for name, data := range variants {
		v, ok := a.Variants[name]
		if !ok {
			panic(fmt.Sprintf("memory source: asset %s has no %q variant", a.Filename, name))
		}
		m.content[v.Ref] = data
	}
}

// FailFetch makes every Fetch of the given variant ref return err.
func (m *MemorySource) FailFetch(ref string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRefs[ref] = err
}

// FailSection makes enumeration of the given section deliver err.
func (m *MemorySource) FailSection(s pull.Section, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSect[s.String()] = err
}

func (m *MemorySource) Sections(ctx context.Context) ([]pull.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := []pull.Section{pull.Personal(), pull.SharedWithMe()}
	seen := make(map[string]bool)
	for key, assets := range m.assets {
		if len(assets) == 0 {
			continue
		}
		s := assets[0].Section
		if s.Kind == pull.SectionSharedAlbum && !seen[key] {
			seen[key] = true
			sections = append(sections, s)
		}
	}
	return sections, nil
}

func (m *MemorySource) Enumerate(ctx context.Context, section pull.Section) (<-chan pull.Asset, <-chan error) {
	out := make(chan pull.Asset)
	errCh := make(chan error, 1)

	m.mu.RLock()
	assets := append([]pull.Asset(nil), m.assets[section.String()]...)
	failErr := m.failSect[section.String()]
	m.mu.RUnlock()

	go func() {
		defer close(out)
		defer close(errCh)
		if failErr != nil {
			errCh <- failErr
			return
		}
		for _, a := range assets {
			select {
			case out <- a:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errCh
}

func (m *MemorySource) Fetch(ctx context.Context, asset pull.Asset, variant string) (io.ReadCloser, error) {
	v, ok := asset.Variants[variant]
	if !ok {
		return nil, fmt.Errorf("asset %s has no %q variant", asset.Filename, variant)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failRefs[v.Ref]; err != nil {
		return nil, err
	}
	data, ok := m.content[v.Ref]
	if !ok {
		return nil, fmt.Errorf("no content for ref %q", v.Ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
