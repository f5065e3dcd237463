// Package assets loads the media a run needs and gates startup on it.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Status is the load state of one asset.
type Status uint8

const (
	StatusPending Status = iota
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Terminal reports whether the asset has finished, successfully or not.
func (s Status) Terminal() bool { return s != StatusPending }

// Kind selects the decoder for an asset.
type Kind uint8

const (
	KindImage Kind = iota
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "audio"
	}
	return "image"
}

// Entry names one asset and where to load it from. Location is a file path
// or an http(s) URL.
type Entry struct {
	ID       string
	Kind     Kind
	Location string
}

var (
	ErrDuplicateAsset = errors.New("duplicate asset id")
	ErrUnknownAsset   = errors.New("unknown asset id")
)

var extKinds = map[string]Kind{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".ogg":  KindAudio,
	".wav":  KindAudio,
}

// KindForPath infers the asset kind from a file extension.
func KindForPath(path string) (Kind, bool) {
	k, ok := extKinds[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// ScanDir builds entries for every recognised media file directly in dir.
// The ID is the file name without its extension. A missing dir yields no
// entries.
func ScanDir(dir string) ([]Entry, error) {
	if dir == "" {
		return nil, nil
	}
	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read asset dir %s: %w", dir, err)
	}

	var entries []Entry
	seen := make(map[string]string)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		kind, ok := KindForPath(f.Name())
		if !ok {
			continue
		}
		id := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %q (%s and %s)", ErrDuplicateAsset, id, prev, f.Name())
		}
		seen[id] = f.Name()
		entries = append(entries, Entry{ID: id, Kind: kind, Location: filepath.Join(dir, f.Name())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Manifest tracks the status of a fixed set of asset IDs. Safe for
// concurrent use.
type Manifest struct {
	mu     sync.RWMutex
	order  []string
	status map[string]Status
	errs   map[string]error
}

// NewManifest registers ids as pending. IDs must be unique.
func NewManifest(ids []string) (*Manifest, error) {
	m := &Manifest{
		order:  make([]string, 0, len(ids)),
		status: make(map[string]Status, len(ids)),
		errs:   make(map[string]error),
	}
	for _, id := range ids {
		if _, dup := m.status[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAsset, id)
		}
		m.status[id] = StatusPending
		m.order = append(m.order, id)
	}
	return m, nil
}

// Resolve moves id to loaded (err == nil) or failed. It returns false if id
// had already been resolved, so each asset is counted once.
func (m *Manifest) Resolve(id string, err error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.status[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAsset, id)
	}
	if st.Terminal() {
		return false, nil
	}
	if err != nil {
		m.status[id] = StatusFailed
		m.errs[id] = err
	} else {
		m.status[id] = StatusLoaded
	}
	return true, nil
}

// Status returns the current status of id.
func (m *Manifest) Status(id string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.status[id]
	return st, ok
}

// Pending counts assets that have not finished.
func (m *Manifest) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, st := range m.status {
		if !st.Terminal() {
			n++
		}
	}
	return n
}

// Report summarises the manifest in registration order.
func (m *Manifest) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := Report{Failed: make(map[string]error)}
	for _, id := range m.order {
		switch m.status[id] {
		case StatusLoaded:
			r.Loaded = append(r.Loaded, id)
		case StatusFailed:
			r.Failed[id] = m.errs[id]
		}
	}
	return r
}

// Report is the outcome of a completed barrier.
type Report struct {
	Loaded []string
	Failed map[string]error
}

// Total is the number of assets that reached a terminal status.
func (r Report) Total() int { return len(r.Loaded) + len(r.Failed) }
