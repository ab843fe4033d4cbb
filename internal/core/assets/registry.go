package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/drivesim/internal/core/observability/log"
)

var ErrAssetNotFound = errors.New("asset not found")

// Registry owns every alpha mask loaded for an episode context. It replaces a
// process-wide texture singleton: callers create one, pass it to track
// construction and Unload it when done.
type Registry struct {
	mu     sync.RWMutex
	masks  map[string]AlphaMask
	logger log.Log
}

func NewRegistry(logger log.Log) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		masks:  make(map[string]AlphaMask),
		logger: logger,
	}
}

// Put registers mask under name, replacing any previous entry.
func (r *Registry) Put(name string, mask AlphaMask) {
	r.mu.Lock()
	r.masks[name] = mask
	r.mu.Unlock()
}

// Get returns the mask registered under name.
func (r *Registry) Get(name string) (AlphaMask, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.masks[name]
	return m, ok
}

// Lookup is Get with an error for callers that want one.
func (r *Registry) Lookup(name string) (AlphaMask, error) {
	if m, ok := r.Get(name); ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.masks))
	for name := range r.masks {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len reports how many masks are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.masks)
}

// LoadDir registers every PNG in dir under its base file name. Files that fail
// to decode are logged and skipped; they never abort the load.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read asset dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		mask, err := loadPNG(path)
		if err != nil {
			r.logger.Warn("skipping asset", log.String("path", path), log.Error(err))
			continue
		}
		r.Put(entry.Name(), mask)
		loaded++
	}

	r.logger.Debug("assets loaded", log.String("dir", dir), log.Int("count", loaded))
	return loaded, nil
}

// Unload drops every registered mask.
func (r *Registry) Unload() {
	r.mu.Lock()
	r.masks = make(map[string]AlphaMask)
	r.mu.Unlock()
}

// Fingerprint hashes the dimensions and alpha plane of the named mask so that
// recorded episodes can be tied to the exact map they ran on.
func (r *Registry) Fingerprint(name string) (uint64, error) {
	m, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return Fingerprint(m), nil
}

// Fingerprint hashes any AlphaMask.
func Fingerprint(m AlphaMask) uint64 {
	d := xxhash.New()
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(m.Width()))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(m.Height()))
	_, _ = d.Write(hdr[:])

	if dense, ok := m.(*Mask); ok {
		_, _ = d.Write(dense.Pix())
		return d.Sum64()
	}

	row := make([]byte, m.Width())
	for y := 0; y < m.Height(); y++ {
		for x := range row {
			row[x] = m.AlphaAt(x, y)
		}
		_, _ = d.Write(row)
	}
	return d.Sum64()
}

func loadPNG(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return FromImage(img), nil
}
