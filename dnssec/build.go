package dnssec

import (
	"github.com/miekg/dns"
)

// BuildPendingQuery computes what an assertion needs next, setting its
// status and optionally returning a query to add to the chain. This is
// build_pending_query from spec.md §4.4.
func BuildPendingQuery(a *Assertion, policy *Policy) (pending *PendingQuery) {
	rrset := a.RRset

	switch policy.ZoneExpectationFor(rrset.ZoneCut) {
	case ZoneUntrust:
		a.Status = UntrustedZone
		return nil
	case ZoneSkip:
		a.Status = TrustZone
		return nil
	}

	if len(rrset.Data) == 0 && rrset.Kind != BARE_RRSIG {
		a.Status = DataMissing
		return nil
	}

	if rrset.Kind == BARE_RRSIG {
		a.Status = BareRRSIG
		return nil
	}

	if !rrset.HasRRSIG() {
		a.Status = WaitForRRSIG
		return &PendingQuery{Name: rrset.Owner, Type: dns.TypeRRSIG}
	}

	if rrset.Type == dns.TypeDNSKEY {
		keys := extractRecords[*dns.DNSKEY](rrset.Data)
		for _, k := range keys {
			if policy.MatchingTrustAnchor(rrset.Owner, k) {
				a.Status = TrustKey
				return nil
			}
		}
		if policy.HasAnchorAtOrAbove(rrset.Owner) {
			a.Status = WaitForTrust
			signer := signerNameOf(rrset)
			return &PendingQuery{Name: signer, Type: dns.TypeDS}
		}
		a.Status = NoTrustAnchor
		return nil
	}

	a.Status = WaitForTrust
	signer := signerNameOf(rrset)
	return &PendingQuery{Name: signer, Type: dns.TypeDNSKEY}
}

// signerNameOf returns the signer name common to the RRset's RRSIGs,
// falling back to the RRset's own owner when no RRSIG is present yet.
func signerNameOf(rrset *RRset) string {
	if len(rrset.RRSIG) == 0 {
		return rrset.Owner
	}
	return dns.CanonicalName(rrset.RRSIG[0].SignerName)
}
