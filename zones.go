package resolver

import (
	"sync"
)

// zones is a thread-safe map of <zone name> -> zone, forming the zone
// partition of the record cache described in spec.md §4.1.
type zones struct {
	lock  sync.RWMutex
	store map[string]*zone
}

func (z *zones) get(name string) *zone {
	name = canonicalName(name)
	z.lock.RLock()
	defer z.lock.RUnlock()
	if z.store == nil {
		return nil
	}

	found := z.store[name]
	if found != nil && found.expired() {
		// We could remove the expired zone from the map here, but realistically
		// it's about to be replaced, so we keep get() read-only and just return nil.
		return nil
	}
	return found
}

func (z *zones) add(n *zone) {
	name := canonicalName(n.zoneName)
	z.lock.Lock()
	if z.store == nil {
		z.store = make(map[string]*zone)
	}
	z.store[name] = n
	z.lock.Unlock()
}

func (z *zones) count() int {
	z.lock.RLock()
	defer z.lock.RUnlock()
	return len(z.store)
}

// closestEnclosing returns the cached zone that is the longest matching
// ancestor of (or equal to) name, if any.
func (z *zones) closestEnclosing(name string) *zone {
	z.lock.RLock()
	defer z.lock.RUnlock()

	candidates := make([]string, 0, len(z.store))
	for zoneName, zn := range z.store {
		if zn.expired() {
			continue
		}
		candidates = append(candidates, zoneName)
	}

	best, found := longestSuffixMatch(name, candidates)
	if !found {
		return nil
	}
	return z.store[canonicalName(best)]
}
