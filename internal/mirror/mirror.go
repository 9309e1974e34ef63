// Package mirror maintains the client-side copy of the full bill collection.
//
// The mirror is what the presentation layer reads: it is painted immediately
// on startup from the last-known-good blob and reconciled against the remote
// store in the background. It also provides the snapshot/restore pair used by
// the optimistic-update rollback in the reconciliation layer.
package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"bollette/internal/core"
)

// CollectionKey is the fixed key the bill collection blob lives under.
const CollectionKey = "bills"

// BlobStore is the synchronous string-keyed local persistence contract. Both
// operations are whole-value: there are no partial writes.
type BlobStore interface {
	// Get returns the blob for key, with ok=false when the key is absent.
	Get(key string) (blob []byte, ok bool, err error)

	// Set replaces the blob for key.
	Set(key string, blob []byte) error
}

// Snapshot is an immutable pre-mutation copy used for rollback.
type Snapshot struct {
	bills core.Collection
	blob  []byte
}

// Mirror holds the in-memory collection together with its serialized form.
// The blob is the comparison basis for the byte-for-byte staleness check: a
// background refresh only becomes visible when the serialized collections
// differ.
type Mirror struct {
	mu    sync.Mutex
	store BlobStore
	key   string
	bills core.Collection
	blob  []byte
}

func New(store BlobStore) *Mirror {
	return &Mirror{store: store, key: CollectionKey}
}

// Load reads the last-known-good collection from the blob store. ok is false
// when no blob has ever been saved.
func (m *Mirror) Load() (core.Collection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok, err := m.store.Get(m.key)
	if err != nil {
		return nil, false, fmt.Errorf("load mirror blob: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var bills core.Collection
	if err := json.Unmarshal(blob, &bills); err != nil {
		return nil, false, fmt.Errorf("decode mirror blob: %w", err)
	}
	m.bills = bills
	m.blob = blob
	return bills.Clone(), true, nil
}

// Collection returns a copy of the current in-memory collection.
func (m *Mirror) Collection() core.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bills.Clone()
}

// Replace makes bills the new collection and persists it.
func (m *Mirror) Replace(bills core.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceLocked(bills)
}

// ReplaceIfChanged compares the serialized form of bills byte-for-byte
// against the current blob and only persists (and reports changed=true) when
// they differ. This is a whole-collection comparison, not a per-row diff;
// fine at personal-bills scale, not something to reuse for large collections.
func (m *Mirror) ReplaceIfChanged(bills core.Collection) (changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, err := json.Marshal(bills)
	if err != nil {
		return false, fmt.Errorf("encode mirror blob: %w", err)
	}
	if bytes.Equal(blob, m.blob) {
		return false, nil
	}
	if err := m.store.Set(m.key, blob); err != nil {
		return false, fmt.Errorf("save mirror blob: %w", err)
	}
	m.bills = bills.Clone()
	m.blob = blob
	return true, nil
}

// Snapshot captures the current state for a later Restore.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{bills: m.bills.Clone(), blob: append([]byte(nil), m.blob...)}
}

// Restore reverts the mirror to a previously taken snapshot, both in memory
// and in the blob store.
func (m *Mirror) Restore(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(m.key, s.blob); err != nil {
		return fmt.Errorf("restore mirror blob: %w", err)
	}
	m.bills = s.bills.Clone()
	m.blob = append([]byte(nil), s.blob...)
	return nil
}

// Update applies an in-place transformation to the collection and persists
// the result.
func (m *Mirror) Update(apply func(core.Collection) core.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceLocked(apply(m.bills.Clone()))
}

func (m *Mirror) replaceLocked(bills core.Collection) error {
	blob, err := json.Marshal(bills)
	if err != nil {
		return fmt.Errorf("encode mirror blob: %w", err)
	}
	if err := m.store.Set(m.key, blob); err != nil {
		return fmt.Errorf("save mirror blob: %w", err)
	}
	m.bills = bills.Clone()
	m.blob = blob
	return nil
}
