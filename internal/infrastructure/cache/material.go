package cache

import (
	"strings"
	"sync"
	"time"
)

// MaterialStore keeps uploaded lecture text per meeting, in memory, with
// expiration. Material feeds quiz generation as allowed source text; it is
// deliberately ephemeral like the rest of the meeting state.
type MaterialStore struct {
	mu    sync.RWMutex
	items map[string]*materialItem
	ttl   time.Duration
}

type materialItem struct {
	chunks     []string
	expireTime time.Time
}

// NewMaterialStore creates a store whose entries live for ttl after their
// last upload.
func NewMaterialStore(ttl time.Duration) *MaterialStore {
	store := &MaterialStore{
		items: make(map[string]*materialItem),
		ttl:   ttl,
	}

	go store.cleanupExpired()

	return store
}

// Add appends a chunk of lecture text for the meeting and refreshes the
// expiry. Whitespace-only uploads are ignored.
func (ms *MaterialStore) Add(meetingID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.items[meetingID]
	if !ok {
		item = &materialItem{}
		ms.items[meetingID] = item
	}
	item.chunks = append(item.chunks, text)
	item.expireTime = time.Now().Add(ms.ttl)
}

// Material returns the concatenated uploads for the meeting, or "" when
// none exist or they have expired.
func (ms *MaterialStore) Material(meetingID string) string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, ok := ms.items[meetingID]
	if !ok || time.Now().After(item.expireTime) {
		return ""
	}
	return strings.Join(item.chunks, "\n\n")
}

// Delete removes a meeting's material.
func (ms *MaterialStore) Delete(meetingID string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, meetingID)
}

// cleanupExpired periodically removes expired items
func (ms *MaterialStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, item := range ms.items {
			if now.After(item.expireTime) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
