package dnssec

import (
	"fmt"

	"github.com/miekg/dns"
)

// RRset is a logical group (owner_name, class, type) plus the RRSIGs that
// claim to cover it, per spec.md §3.
type RRset struct {
	Owner string
	Class uint16
	Type  uint16
	TTL   uint32

	Data  []dns.RR
	RRSIG []*dns.RRSIG

	Kind Kind

	Section       Section
	Authoritative bool

	// ZoneCut is the owner of the enclosing zone's SOA/NS, as understood at
	// the point this RRset was assembled.
	ZoneCut string
}

func NewRRset(owner string, class, rtype uint16, section Section) *RRset {
	return &RRset{
		Owner:   dns.CanonicalName(owner),
		Class:   class,
		Type:    rtype,
		Section: section,
		Kind:    UNSET,
	}
}

// Add appends a record to the set, folding in RRSIGs and tracking the
// minimum TTL seen, and deduces the set's Kind per the invariants in
// spec.md §3.
func (r *RRset) Add(rr dns.RR) error {
	if sig, ok := rr.(*dns.RRSIG); ok {
		r.RRSIG = append(r.RRSIG, sig)
		if r.Kind == UNSET && len(r.Data) == 0 {
			r.Kind = BARE_RRSIG
		}
		if r.TTL == 0 || rr.Header().Ttl < r.TTL {
			r.TTL = rr.Header().Ttl
		}
		return nil
	}

	if dns.CanonicalName(rr.Header().Name) != r.Owner && r.Owner != "" {
		return fmt.Errorf("rr owner %s does not match rrset owner %s", rr.Header().Name, r.Owner)
	}

	r.Data = append(r.Data, rr)
	if r.TTL == 0 || rr.Header().Ttl < r.TTL {
		r.TTL = rr.Header().Ttl
	}

	switch rr.Header().Rrtype {
	case dns.TypeCNAME:
		r.Kind = CNAME
	case dns.TypeDNAME:
		r.Kind = DNAME
	case dns.TypeNSEC:
		r.Kind = NACK_NSEC
	case dns.TypeNSEC3:
		r.Kind = NACK_NSEC3
	case dns.TypeSOA:
		if r.Kind == UNSET {
			r.Kind = NACK_SOA
		}
	default:
		if r.Kind == UNSET || r.Kind == BARE_RRSIG {
			r.Kind = STRAIGHT
		}
	}

	return nil
}

func (r *RRset) Empty() bool {
	return r == nil || (len(r.Data) == 0 && len(r.RRSIG) == 0)
}

func (r *RRset) HasRRSIG() bool {
	return r != nil && len(r.RRSIG) > 0
}

// kindSet is a bitset over Kind, used to check the kind-mixing rule.
type kindSet uint8

func kindBit(k Kind) kindSet { return 1 << kindSet(k) }

var (
	permittedStraightCname     = kindBit(STRAIGHT) | kindBit(CNAME) | kindBit(DNAME) | kindBit(UNSET)
	permittedStraightCnameNack = kindBit(STRAIGHT) | kindBit(CNAME) | kindBit(DNAME) | kindBit(NACK_NSEC) | kindBit(NACK_NSEC3) | kindBit(NACK_SOA) | kindBit(UNSET)
	permittedBareRRSIG         = kindBit(BARE_RRSIG)
	permittedNackCname         = kindBit(NACK_NSEC) | kindBit(NACK_NSEC3) | kindBit(NACK_SOA) | kindBit(CNAME) | kindBit(DNAME)
)

// ValidateKindMixing implements the kind-mixing rule from spec.md §4.4: within
// one response the permitted combinations are STRAIGHT∪CNAME∪DNAME,
// STRAIGHT∪CNAME∪DNAME∪NACK_*, BARE_RRSIG alone, or
// NACK_NSEC∪NACK_NSEC3∪NACK_SOA∪CNAME∪DNAME.
func ValidateKindMixing(sets []*RRset) bool {
	var seen kindSet
	for _, s := range sets {
		seen |= kindBit(s.Kind)
	}
	if seen == 0 {
		return true
	}
	for _, permitted := range []kindSet{permittedStraightCname, permittedStraightCnameNack, permittedBareRRSIG, permittedNackCname} {
		if seen&^permitted == 0 {
			return true
		}
	}
	return false
}
