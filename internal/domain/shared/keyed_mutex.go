package shared

import "sync"

// KeyedMutex serializes work per key. Callers lock the key they are about to
// mutate (a product, a ledger account) so concurrent requests for the same
// resource queue up instead of racing, while unrelated keys proceed in
// parallel.
//
// Entries are never evicted; the key space here is bounded by the number of
// distinct products and counterparties, which is small.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *KeyedMutex) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// Lock acquires the mutex for key, creating it on first use
func (m *KeyedMutex) Lock(key string) {
	m.get(key).Lock()
}

// Unlock releases the mutex for key
func (m *KeyedMutex) Unlock(key string) {
	m.get(key).Unlock()
}

// LockAll acquires every key in sorted order. Callers that need more than one
// key at once must go through here; the fixed acquisition order is what rules
// out lock-ordering deadlocks between concurrent multi-key operations.
func (m *KeyedMutex) LockAll(keys []string) {
	for _, key := range sortedUnique(keys) {
		m.Lock(key)
	}
}

// UnlockAll releases every key acquired by LockAll
func (m *KeyedMutex) UnlockAll(keys []string) {
	unique := sortedUnique(keys)
	for i := len(unique) - 1; i >= 0; i-- {
		m.Unlock(unique[i])
	}
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	// insertion sort, the slices are tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
