package resolver

import (
	"fmt"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
)

// DigestKind classifies an overall response, spec.md §4.3 step 4.
type DigestKind uint8

const (
	DigestStraight DigestKind = iota
	DigestReferral
	DigestAlias
	DigestNegative
)

// DigestedResponse is the output of digestResponse: the RRsets assembled
// from a message, grouped by (owner, type), classified, and with the zone
// cut resolved.
type DigestedResponse struct {
	Kind    DigestKind
	ZoneCut string

	Sets []*dnssec.RRset

	ReferralZone string
	AliasTarget  string

	Err error
}

// digestResponse implements §4.3: it walks a message's answer, authority,
// and additional sections, groups records into RRsets, classifies the
// response, and resolves the zone cut - including the requirement that a
// zone-cut change apply retroactively to RRsets already assembled from the
// same message.
func digestResponse(msg *dns.Msg, qname string, qtype uint16, currentZoneCut string) *DigestedResponse {
	groups := make(map[cacheKey]*dnssec.RRset)
	order := make([]cacheKey, 0)

	add := func(section dnssec.Section, rr dns.RR) {
		owner := dns.CanonicalName(rr.Header().Name)
		rtype := rr.Header().Rrtype
		if rtype == dns.TypeRRSIG {
			rtype = rr.(*dns.RRSIG).TypeCovered
		}
		key := newCacheKey(owner, rr.Header().Class, rtype)
		set, ok := groups[key]
		if !ok {
			set = dnssec.NewRRset(owner, rr.Header().Class, rtype, section)
			groups[key] = set
			order = append(order, key)
		}
		_ = set.Add(rr)
	}

	for _, rr := range msg.Answer {
		add(dnssec.AnswerSection, rr)
	}
	for _, rr := range msg.Ns {
		add(dnssec.AuthoritySection, rr)
	}
	for _, rr := range filterInBailiwick(currentZoneCut, msg.Extra) {
		add(dnssec.AdditionalSection, rr)
	}

	sets := make([]*dnssec.RRset, 0, len(order))
	for _, key := range order {
		sets = append(sets, groups[key])
	}

	zoneCut, err := resolveZoneCut(sets, currentZoneCut)
	if err != nil {
		return &DigestedResponse{Err: err}
	}
	for _, s := range sets {
		s.ZoneCut = zoneCut
	}

	for _, s := range sets {
		s.Authoritative = msg.Authoritative && namesEqual(s.Owner, qname)
	}

	//--- classify

	nsSetInAuthority := false
	var referralOwner string
	hasSOAorNack := false
	hasAlias := false
	var aliasTarget string

	for _, s := range sets {
		if s.Section == dnssec.AuthoritySection && s.Type == dns.TypeNS {
			nsSetInAuthority = true
			referralOwner = s.Owner
		}
		if s.Type == dns.TypeSOA || s.Kind == dnssec.NACK_NSEC || s.Kind == dnssec.NACK_NSEC3 {
			hasSOAorNack = true
		}
		if s.Kind == dnssec.CNAME && len(s.Data) > 0 {
			hasAlias = true
			aliasTarget = s.Data[0].(*dns.CNAME).Target
		}
		if s.Kind == dnssec.DNAME && len(s.Data) > 0 && isSubdomain(s.Owner, qname) && !namesEqual(s.Owner, qname) {
			hasAlias = true
			aliasTarget = synthesizeDNAMETarget(qname, s.Owner, s.Data[0].(*dns.DNAME).Target)
		}
	}

	if !dnssec.ValidateKindMixing(sets) {
		return &DigestedResponse{Err: fmt.Errorf("%w", dnssec.ErrKindMixingViolation)}
	}

	switch {
	case len(msg.Answer) == 0 && nsSetInAuthority && !hasSOAorNack:
		return &DigestedResponse{Kind: DigestReferral, ZoneCut: zoneCut, Sets: sets, ReferralZone: referralOwner}
	case hasAlias:
		return &DigestedResponse{Kind: DigestAlias, ZoneCut: zoneCut, Sets: sets, AliasTarget: dns.CanonicalName(aliasTarget)}
	case hasSOAorNack:
		return &DigestedResponse{Kind: DigestNegative, ZoneCut: zoneCut, Sets: sets}
	default:
		return &DigestedResponse{Kind: DigestStraight, ZoneCut: zoneCut, Sets: sets}
	}
}

// synthesizeDNAMETarget implements the DNAME synthesis rule from spec.md
// §4.3: the labels of qname below owner (the DNAME's proper-ancestor owner)
// are concatenated onto target, producing the name qname is an alias for.
func synthesizeDNAMETarget(qname, owner, target string) string {
	qname = dns.CanonicalName(qname)
	owner = dns.CanonicalName(owner)
	target = dns.CanonicalName(target)

	trailing := qname[:len(qname)-len(owner)]
	return trailing + target
}

// resolveZoneCut updates the zone cut based on any SOA or NS owner that is
// more specific than current, per spec.md §4.3 step 5. Conflicting zone
// cuts - two different SOA owners, or two disagreeing NS owners - produce
// CONFLICTING_ANSWERS.
func resolveZoneCut(sets []*dnssec.RRset, current string) (string, error) {
	best := current
	var soaOwner, nsOwner string

	for _, s := range sets {
		switch s.Type {
		case dns.TypeSOA:
			if soaOwner != "" && !namesEqual(soaOwner, s.Owner) {
				return "", fmt.Errorf("%w: conflicting SOA owners", ErrConflictingAnswers)
			}
			soaOwner = s.Owner
		case dns.TypeNS:
			if nsOwner != "" && !namesEqual(nsOwner, s.Owner) {
				return "", fmt.Errorf("%w: conflicting NS owners", ErrConflictingAnswers)
			}
			nsOwner = s.Owner
		}
	}

	for _, candidate := range []string{soaOwner, nsOwner} {
		if candidate == "" {
			continue
		}
		if best == "" || isSubdomain(best, candidate) {
			best = candidate
		}
	}

	return best, nil
}
