package dnssec

import (
	"github.com/miekg/dns"
)

// PendingQuery names the next lookup an assertion is blocked on.
type PendingQuery struct {
	Name string
	Type uint16
}

// Assertion is an authentication chain node, spec.md §3.
//
// Trust is a weak reference to the parent node in the chain of trust - the
// node that holds the signing key for this node's RRSIG. RRsetNext links
// sibling RRsets that arrived in the same response. Cycles through Trust
// are possible for malformed data; callers must use the cycle-break check
// in VerifyAndValidate rather than walking Trust unconditionally.
type Assertion struct {
	RRset        *RRset
	PendingQuery *PendingQuery
	Status       AssertionStatus

	Trust     *Assertion
	RRsetNext *Assertion
	Next      *Assertion

	// SignerName and Selected are populated once a verifying RRSIG/DNSKEY
	// pairing has been found.
	SignerName string
	Selected   *dns.RRSIG

	DenialOfExistence DenialOfExistenceState

	// QName/QType are only set on the head assertion of a query's chain:
	// the name and type the owning query actually asked for, as opposed to
	// RRset.Owner/RRset.Type which for a negative answer name the NSEC/SOA
	// record instead. The proof engine needs the original question to
	// decide what a NSEC/NSEC3 span actually proves.
	QName string
	QType uint16
}

func NewAssertion(rrset *RRset) *Assertion {
	return &Assertion{RRset: rrset, Status: Init}
}

// ZoneExpectationEntry is one entry of the zone-security-expectation policy.
type ZoneExpectationEntry struct {
	Zone        string
	Expectation ZoneExpectation
}

// Policy is the process-wide validation configuration a Resolver builds once
// and shares, by pointer, with every Context it creates: trust anchors, zone
// security expectations, and the NSEC3 iteration-count ceiling, per spec.md
// §6. Resolver.SetZoneExpectation and Resolver.AddTrustAnchor add to it after
// construction. Trust anchors are held as DS
// records, matching the format the IANA root anchors are distributed in and
// the format RFC 5011 trust-anchor files use; a candidate DNSKEY is matched
// against them by recomputing its digest, the same comparison VerifyDNSKEYLink
// runs one level down the chain.
type Policy struct {
	TrustAnchors        map[string][]*dns.DS
	ZoneExpectations    []ZoneExpectationEntry
	NSEC3MaxIterations  map[string]uint16
	DefaultNSEC3MaxIter uint16
}

func NewPolicy() *Policy {
	return &Policy{
		TrustAnchors:        make(map[string][]*dns.DS),
		NSEC3MaxIterations:  make(map[string]uint16),
		DefaultNSEC3MaxIter: DefaultNSEC3MaxIterations,
	}
}

func (p *Policy) AddTrustAnchor(zone string, ds *dns.DS) {
	zone = dns.CanonicalName(zone)
	p.TrustAnchors[zone] = append(p.TrustAnchors[zone], ds)
}

func (p *Policy) SetZoneExpectation(zone string, e ZoneExpectation) {
	p.ZoneExpectations = append(p.ZoneExpectations, ZoneExpectationEntry{Zone: dns.CanonicalName(zone), Expectation: e})
}

func (p *Policy) SetNSEC3MaxIterations(zone string, max uint16) {
	p.NSEC3MaxIterations[dns.CanonicalName(zone)] = max
}

// ZoneExpectationFor returns the configured expectation for the longest
// suffix of name found in policy, defaulting to ZoneValidate. This is the
// wire-form, label-boundary suffix comparison mandated by the REDESIGN FLAG
// in spec.md §9, in place of the original C source's substring containment
// check.
func (p *Policy) ZoneExpectationFor(name string) ZoneExpectation {
	name = dns.CanonicalName(name)
	best := ""
	found := false
	result := ZoneValidate
	for _, e := range p.ZoneExpectations {
		if !dns.IsSubDomain(e.Zone, name) {
			continue
		}
		if !found || dns.CountLabel(e.Zone) > dns.CountLabel(best) {
			best = e.Zone
			found = true
			result = e.Expectation
		}
	}
	return result
}

// NSEC3MaxIterFor returns the configured iteration ceiling for the longest
// matching zone suffix, or the policy default.
func (p *Policy) NSEC3MaxIterFor(name string) uint16 {
	name = dns.CanonicalName(name)
	best := ""
	found := false
	result := p.DefaultNSEC3MaxIter
	for zone, max := range p.NSEC3MaxIterations {
		if !dns.IsSubDomain(zone, name) {
			continue
		}
		if !found || dns.CountLabel(zone) > dns.CountLabel(best) {
			best = zone
			found = true
			result = max
		}
	}
	return result
}

// MatchingTrustAnchor reports whether key matches a configured trust anchor
// for zone. spec.md §4.4 and the original validator's is_trusted_key both
// compare the candidate DNSKEY's raw wire-form bytes directly against the
// configured anchor key; this compares a DS digest recomputed from the
// candidate against the configured anchor instead, because every anchor
// this policy can be seeded from - the compiled-in IANA root anchors and
// RFC 5011 trust-anchor files alike - ships in DS form, never as a raw
// DNSKEY. A zone and matching digest/algorithm/key-tag is accepted as
// equivalent to a byte-for-byte key match.
func (p *Policy) MatchingTrustAnchor(zone string, key *dns.DNSKEY) bool {
	zone = dns.CanonicalName(zone)
	anchors, ok := p.TrustAnchors[zone]
	if !ok {
		return false
	}
	for _, anchor := range anchors {
		candidate, err := key.ToDS(anchor.DigestType)
		if err != nil {
			continue
		}
		if candidate.Digest == anchor.Digest && candidate.Algorithm == anchor.Algorithm && candidate.KeyTag == anchor.KeyTag {
			return true
		}
	}
	return false
}

// HasAnchorAtOrAbove reports whether any trust anchor is configured for name
// or one of its ancestors.
func (p *Policy) HasAnchorAtOrAbove(name string) bool {
	name = dns.CanonicalName(name)
	for zone := range p.TrustAnchors {
		if dns.IsSubDomain(zone, name) {
			return true
		}
	}
	return false
}
