package dnssec

import (
	"context"

	"github.com/miekg/dns"
)

// ResolveDS is the callback the root resolver package injects so the
// provably-insecure prover (spec.md §4.8) can recursively resolve_and_check
// a (zone_cut, DS) question without this package importing the engine and
// creating an import cycle.
type ResolveDS func(zoneCut string) (ResultStatus, error)

// QueryAnswers lets the chain walker ask whether a pending query has
// completed, fetch the actual assertion the engine built for it, and
// register a newly discovered pending query against the engine's query
// chain so the outer resolver loop gets another pass at it, per spec.md
// §4.2 step 6. The root engine implements this over its query chain.
type QueryAnswers interface {
	// Answered reports whether the query for (name, qtype) has completed,
	// returning the assertion the engine assimilated for it - the same
	// node BuildPendingQuery already classified, not a copy.
	Answered(name string, qtype uint16) (assertion *Assertion, negative bool, ok bool)

	// Enqueue registers (name, qtype) as a new pending query, deduping
	// against any query already tracked.
	Enqueue(name string, qtype uint16)
}

// VerifyAndValidate walks every authentication chain bottom-up per
// spec.md §4.5, attempting verification where keys and signatures are both
// present, classifying results, and running the proof engine for negative
// answers. It returns the classified result for this top-level assertion
// and whether the chain reached a terminal status (done).
func VerifyAndValidate(head *Assertion, policy *Policy, answers QueryAnswers, resolveDS ResolveDS) (ResultStatus, bool) {
	visited := make(map[*Assertion]bool)
	status, done := walkChain(head, head, policy, answers, resolveDS, visited, 0)

	// A negative answer's own RRset (NSEC/NSEC3/SOA) still only proves its
	// signature chain is intact at this point; whether it actually proves
	// qname/qtype doesn't exist is a separate question, spec.md §4.7.
	if done && status == VerifiedChain && isNegativeKind(head.RRset.Kind) {
		status = runDenialOfExistence(head, policy)
	}

	return status, done
}

func isNegativeKind(k Kind) bool {
	return k == NACK_NSEC || k == NACK_NSEC3 || k == NACK_SOA
}

// runDenialOfExistence gathers the NSEC/NSEC3 records assimilated alongside
// the head assertion and runs them through the proof engine against the
// originating query's name and type, refining a validated negative RRset
// into the specific NonexistentName/NonexistentType/NonexistentNameOptOut
// result spec.md §4.7 and §7 describe.
func runDenialOfExistence(head *Assertion, policy *Policy) ResultStatus {
	var authority []dns.RR
	for a := head; a != nil; a = a.RRsetNext {
		if a.RRset.Kind == NACK_NSEC || a.RRset.Kind == NACK_NSEC3 {
			authority = append(authority, a.RRset.Data...)
		}
	}

	state, failureStatus := PerformDenialOfExistence(context.Background(), head.RRset.ZoneCut, head.QName, head.QType, authority, policy)

	switch state {
	case NsecNxDomain, Nsec3NxDomain:
		return NonexistentName
	case Nsec3OptOut:
		return NonexistentNameOptOut
	case NsecNoData, Nsec3NoData, NsecMissingDS, Nsec3MissingDS, NsecWildcard, Nsec3Wildcard:
		return NonexistentType
	default:
		return failureStatus
	}
}

func walkChain(node, origin *Assertion, policy *Policy, answers QueryAnswers, resolveDS ResolveDS, visited map[*Assertion]bool, depth int) (ResultStatus, bool) {
	if node == nil {
		return IndeterminateProof, true
	}

	// Cycle break: node == node.trust.trust per spec.md §4.5/§9.
	if node.Trust != nil && node.Trust.Trust == node {
		return IndeterminateDS, true
	}
	if visited[node] {
		return IndeterminateDS, true
	}
	visited[node] = true

	if depth > 64 {
		return IndeterminateDS, true
	}

	switch node.Status {
	case Init, WaitForRRSIG, WaitForTrust:
		if node.PendingQuery == nil {
			return ResultDNSError, false
		}
		answered, negative, ok := answers.Answered(node.PendingQuery.Name, node.PendingQuery.Type)
		if !ok {
			return ResultDNSError, false
		}
		return tryVerifyAssertion(node, origin, answered, negative, policy, answers, resolveDS, visited, depth)
	}

	if node.Status.isTerminalFailure() {
		if resolveDS != nil {
			if status, ok := tryProvablyInsecure(node, resolveDS); ok {
				return status, true
			}
		}
		return classifyFailure(node), true
	}

	if node.Status.isTerminalSuccess() {
		if node.Trust == nil {
			return classifySuccess(node), true
		}
		return walkChain(node.Trust, origin, policy, answers, resolveDS, visited, depth+1)
	}

	if node.Status == NegativeProof {
		if node.Trust == nil {
			return IndeterminateProof, true
		}
		return walkChain(node.Trust, origin, policy, answers, resolveDS, visited, depth+1)
	}

	return ResultError, false
}

// tryVerifyAssertion implements the per-node transition table from
// spec.md §4.5 step 2. answered is the actual Assertion the engine
// assimilated for node's pending query - already run through
// BuildPendingQuery at assimilate time - never a disposable stand-in, so
// linking it as node.Trust and walking into it continues with its real,
// already-classified status rather than dead-ending.
func tryVerifyAssertion(node, origin *Assertion, answered *Assertion, negative bool, policy *Policy, answers QueryAnswers, resolveDS ResolveDS, visited map[*Assertion]bool, depth int) (ResultStatus, bool) {
	// Every branch below re-walks node after changing its status; that
	// re-walk is not a cycle, so node must not count as already visited.
	delete(visited, node)
	switch node.PendingQuery.Type {
	case dns.TypeRRSIG:
		if negative || answered == nil || !answered.RRset.HasRRSIG() {
			node.Status = RRSIGMissing
			return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
		}
		node.RRset.RRSIG = answered.RRset.RRSIG
		node.PendingQuery = nil
		if pending := BuildPendingQuery(node, policy); pending != nil {
			node.PendingQuery = pending
			answers.Enqueue(pending.Name, pending.Type)
		}
		return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)

	case dns.TypeDNSKEY:
		if negative {
			node.Status = NegativeProof
			return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
		}
		if answered == nil {
			node.Status = DNSKEYMissing
			return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
		}
		node.Trust = answered
		node.Status = CanVerify
		Verify(node, answered, DefaultAcceptanceWindow)
		return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)

	case dns.TypeDS:
		if negative {
			node.Status = NegativeProof
			node.DenialOfExistence = NsecMissingDS
			return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
		}
		if answered == nil {
			node.Status = DSMissing
			return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
		}
		dsRecords := extractRecords[*dns.DS](answered.RRset.Data)
		if !VerifyDNSKEYLink(node, dsRecords) {
			node.Status = BadDelegation
		}
		return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
	}

	node.Status = DNSError
	return walkChain(node, origin, policy, answers, resolveDS, visited, depth+1)
}

func classifySuccess(node *Assertion) ResultStatus {
	switch node.Status {
	case LocalAnswer:
		return ResultLocalAnswer
	case BareRRSIG:
		return ResultBareRRSIG
	case TrustZone, DontValidate:
		return ResultLocalAnswer
	case TrustKey, VerifiedLink:
		return VerifiedChain
	default:
		return Success
	}
}

func classifyFailure(node *Assertion) ResultStatus {
	switch node.Status {
	case NoTrustAnchor:
		return VerifiedChain
	case UntrustedZone:
		return BogusUnprovable
	default:
		return BogusUnprovable
	}
}

func tryProvablyInsecure(node *Assertion, resolveDS ResolveDS) (ResultStatus, bool) {
	status, err := resolveDS(node.RRset.ZoneCut)
	if err != nil {
		return ResultDNSError, false
	}
	if status == NonexistentType || status == NonexistentNameOptOut {
		node.Status = ProvablyInsecure
		return ResultProvablyInsecure, true
	}
	return BogusProvable, false
}
