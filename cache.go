package resolver

import (
	"sync"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
)

// CacheInterface is the pluggable, process-external message cache: an
// optional collaborator a caller can wire in to persist whole wire
// responses across resolve_and_check calls. It is entirely separate from
// RecordCache below, which is the in-session, per-policy record store
// spec.md §4.1 describes; the distinction mirrors the Non-goal that rules
// out recursive caching beyond a session lifetime for the core itself.
type CacheInterface interface {
	Get(zone string, question dns.Question) (*dns.Msg, error)
	Update(zone string, question dns.Question, msg *dns.Msg) error
}

type cacheKey struct {
	name  string
	class uint16
	rtype uint16
}

func newCacheKey(name string, class, rtype uint16) cacheKey {
	return cacheKey{name: dns.CanonicalName(name), class: class, rtype: rtype}
}

// RecordCache is the session-lifetime record store described in
// spec.md §4.1. It partitions RRsets by purpose (zone/NS, DNSKEY, DS,
// positive answers, negative answers) so that anti-pollution
// and zone-cut bookkeeping can be enforced per-partition.
type RecordCache struct {
	lock sync.RWMutex

	zoneInfo  map[cacheKey]*dnssec.RRset // NS RRsets, keyed by their SOA/NS owner
	keyInfo   map[cacheKey]*dnssec.RRset // DNSKEY RRsets
	dsInfo    map[cacheKey]*dnssec.RRset // DS RRsets
	answers   map[cacheKey]*dnssec.RRset // positive answers
	negatives map[cacheKey]*dnssec.RRset // NSEC/NSEC3/SOA negative proofs
}

func NewRecordCache() *RecordCache {
	return &RecordCache{
		zoneInfo:  make(map[cacheKey]*dnssec.RRset),
		keyInfo:   make(map[cacheKey]*dnssec.RRset),
		dsInfo:    make(map[cacheKey]*dnssec.RRset),
		answers:   make(map[cacheKey]*dnssec.RRset),
		negatives: make(map[cacheKey]*dnssec.RRset),
	}
}

func (c *RecordCache) getCachedRRset(name string, class, rtype uint16) *dnssec.RRset {
	key := newCacheKey(name, class, rtype)
	c.lock.RLock()
	defer c.lock.RUnlock()

	for _, partition := range []map[cacheKey]*dnssec.RRset{c.answers, c.keyInfo, c.dsInfo, c.zoneInfo, c.negatives} {
		if rr, ok := partition[key]; ok {
			return rr
		}
	}
	return nil
}

func (c *RecordCache) stow(dst map[cacheKey]*dnssec.RRset, sets []*dnssec.RRset) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, rrset := range sets {
		if rrset == nil || rrset.Empty() {
			continue
		}
		dst[newCacheKey(rrset.Owner, rrset.Class, rrset.Type)] = rrset
	}
}

func (c *RecordCache) stowZoneInfo(sets []*dnssec.RRset)        { c.stow(c.zoneInfo, sets) }
func (c *RecordCache) stowKeyInfo(sets []*dnssec.RRset)         { c.stow(c.keyInfo, sets) }
func (c *RecordCache) stowDSInfo(sets []*dnssec.RRset)          { c.stow(c.dsInfo, sets) }
func (c *RecordCache) stowAnswers(sets []*dnssec.RRset)         { c.stow(c.answers, sets) }
func (c *RecordCache) stowNegativeAnswers(sets []*dnssec.RRset) { c.stow(c.negatives, sets) }

// filterInBailiwick is the anti-pollution filter from spec.md §4.1:
// additional-section records whose owner name is not subordinate to the
// response's zone cut are discarded before stowing.
func filterInBailiwick(zoneCut string, rr []dns.RR) []dns.RR {
	out := make([]dns.RR, 0, len(rr))
	for _, r := range rr {
		if isSubdomain(zoneCut, r.Header().Name) {
			out = append(out, r)
		}
	}
	return out
}
