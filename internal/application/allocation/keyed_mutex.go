package allocation

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes effectful operations per (item, location) pair,
// plus an item-scope mutex for operations whose validation reads every
// location of the item. Mutations of the same ledger never race; distinct
// pairs proceed in parallel. Mutexes are created on first use and kept for
// the process lifetime: the location vocabulary is a small set of
// warehouse names, so the map stays tiny.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func stockKey(itemID uuid.UUID, location string) string {
	return itemID.String() + "|" + location
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for one (item, location) pair and returns the
// unlock function.
func (k *keyedMutex) Lock(itemID uuid.UUID, location string) func() {
	m := k.get(stockKey(itemID, location))
	m.Lock()
	return m.Unlock
}

// LockAll serializes whole-item operations. Pending-quantity checks span
// every location of the item, so an item-scope mutex is taken first; the
// location mutexes follow in lexicographic order so concurrent
// multi-location calls cannot deadlock. The returned function releases
// everything in reverse order.
func (k *keyedMutex) LockAll(itemID uuid.UUID, locations []string) func() {
	ordered := make([]string, len(locations))
	copy(ordered, locations)
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered)+1)
	item := k.get(itemID.String())
	item.Lock()
	held = append(held, item)
	for _, location := range ordered {
		m := k.get(stockKey(itemID, location))
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
