package dnssec

import (
	"context"

	"github.com/chainval/resolver/dnssec/doe"
	"github.com/miekg/dns"
)

// PerformDenialOfExistence runs the proof-of-nonexistence engine
// (spec.md §4.7) against the NSEC/NSEC3 records carried by a negative
// authority section, for the given question name and type. It returns the
// DenialOfExistenceState classifying what was proved, or NotFound plus
// BogusProof/IncompleteProof status when the proof is absent or broken.
func PerformDenialOfExistence(ctx context.Context, zone, qname string, qtype uint16, authority []dns.RR, policy *Policy) (DenialOfExistenceState, ResultStatus) {
	nsecRecords := extractRecords[*dns.NSEC](authority)
	nsec3Records := extractRecords[*dns.NSEC3](authority)

	if len(nsecRecords) > 0 && len(nsec3Records) > 0 {
		return NotFound, BogusProof
	}

	if len(nsecRecords) > 0 {
		return performNSECProof(ctx, zone, qname, qtype, nsecRecords)
	}

	if len(nsec3Records) > 0 {
		return performNSEC3Proof(ctx, zone, qname, qtype, nsec3Records, policy)
	}

	return NotFound, IncompleteProof
}

func performNSECProof(ctx context.Context, zone, qname string, qtype uint16, records []*dns.NSEC) (DenialOfExistenceState, ResultStatus) {
	d := doe.NewDenialOfExistenceNSEC(ctx, zone, records)
	if d.Empty() {
		return NotFound, IncompleteProof
	}

	qname = dns.CanonicalName(qname)

	if nameSeen, typeSeen := d.TypeBitMapContainsAnyOf(qname, []uint16{qtype}); nameSeen {
		if typeSeen {
			return NotFound, BogusProof
		}
		if qtype == dns.TypeDS {
			return NsecMissingDS, NonexistentType
		}
		return NsecNoData, NonexistentType
	}

	if !d.PerformQNameDoesNotExistProof(qname) {
		return NotFound, IncompleteProof
	}

	return NsecNxDomain, Success
}

func performNSEC3Proof(ctx context.Context, zone, qname string, qtype uint16, records []*dns.NSEC3, policy *Policy) (DenialOfExistenceState, ResultStatus) {
	maxIter := policy.NSEC3MaxIterFor(zone)
	for _, r := range records {
		if uint16(r.Iterations) > maxIter {
			return NotFound, BogusProof
		}
	}

	d := doe.NewDenialOfExistenceNSEC3(ctx, zone, records)
	if d.Empty() {
		return NotFound, IncompleteProof
	}

	qname = dns.CanonicalName(qname)

	if nameSeen, typeSeen := d.TypeBitMapContainsAnyOf(qname, []uint16{qtype}); nameSeen {
		if typeSeen {
			return NotFound, BogusProof
		}
		return Nsec3NoData, NonexistentType
	}

	optedOut, closestEncloserProof, nextCloserNameProof, _ := d.PerformClosestEncloserProof(qname)
	if !closestEncloserProof || !nextCloserNameProof {
		return NotFound, IncompleteProof
	}

	if optedOut {
		return Nsec3OptOut, Success
	}

	return Nsec3NxDomain, Success
}
