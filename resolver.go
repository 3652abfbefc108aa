package resolver

import (
	"strings"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
)

// Resolver is the process-wide, long-lived handle: a populated root zone
// pool, the session-lifetime record cache, and the validation policy built
// from the configured trust anchors and zone security expectations. One
// Resolver is created at startup and shared by every resolve_and_check call;
// each call gets its own short-lived Context (engine.go).
type Resolver struct {
	zones  *zones
	cache  *RecordCache
	policy *dnssec.Policy
}

// NewResolver builds a Resolver primed with the IANA root hints and the
// DNSSEC root trust anchors.
func NewResolver() *Resolver {
	pool, err := buildRootServerPool()
	if err != nil {
		// The root hints are compiled into the binary; a failure here means
		// the binary itself is broken.
		panic(err)
	}

	z := new(zones)
	z.add(&zone{zoneName: ".", pool: pool})

	cache := NewRecordCache()
	policy := defaultPolicy()

	return &Resolver{zones: z, cache: cache, policy: policy}
}

// defaultPolicy builds the out-of-the-box validation policy: the compiled-in
// IANA root trust anchors (spec.md §6), no zone exceptions, and the package
// default NSEC3 iteration ceiling.
func defaultPolicy() *dnssec.Policy {
	policy := dnssec.NewPolicy()
	for _, ds := range dnssec.RootTrustAnchors {
		policy.AddTrustAnchor(".", ds)
	}
	return policy
}

// SetZoneExpectation lets a caller override the security posture of a zone,
// e.g. to mark an internal zone ZoneUntrust or ZoneSkip per spec.md §4.4.
func (r *Resolver) SetZoneExpectation(zone string, e dnssec.ZoneExpectation) {
	r.policy.SetZoneExpectation(zone, e)
}

// AddTrustAnchor registers an additional, non-root trust anchor.
func (r *Resolver) AddTrustAnchor(zone string, ds *dns.DS) {
	r.policy.AddTrustAnchor(zone, ds)
}

// CountZones reports how many zones are currently cached.
func (r *Resolver) CountZones() int {
	return r.zones.count()
}

//-----------------------------------------------------------------------------

func buildRootServerPool() (*nameserverPool, error) {
	zp := dns.NewZoneParser(strings.NewReader(rootHintsZone), ".", "local")

	pool := &nameserverPool{hostsWithoutAddresses: make([]string, 0)}

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		switch rr := rr.(type) {
		case *dns.A:
			pool.ipv4 = append(pool.ipv4, &nameserver{
				hostname: canonicalName(rr.Header().Name),
				addr:     rr.A.String(),
			})
		case *dns.AAAA:
			pool.ipv6 = append(pool.ipv6, &nameserver{
				hostname: canonicalName(rr.Header().Name),
				addr:     rr.AAAA.String(),
			})
		default:
			// Continue
		}
	}

	if err := zp.Err(); err != nil {
		return nil, err
	}

	return pool, nil
}
