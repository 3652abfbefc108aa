package resolver

import "github.com/chainval/resolver/dnssec"

// ResultStatus is re-exported from dnssec so callers of the public API
// never need to import the dnssec package directly.
type ResultStatus = dnssec.ResultStatus

// ResultNode is one result chain node, spec.md §3: one per distinct
// top-level RRset in the answer set.
type ResultNode struct {
	TrustHead *dnssec.Assertion
	Status    ResultStatus
	Next      *ResultNode
}

// ResultChain is the user-visible output of resolve_and_check.
type ResultChain struct {
	Head *ResultNode
}

func (rc *ResultChain) append(node *ResultNode) {
	if rc.Head == nil {
		rc.Head = node
		return
	}
	tail := rc.Head
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = node
}

// IsAuthentic implements the public is_authentic(status) predicate.
func IsAuthentic(status ResultStatus) bool { return dnssec.IsAuthentic(status) }

// IsTrusted implements the public is_trusted(status) predicate.
func IsTrusted(status ResultStatus) bool { return dnssec.IsTrusted(status) }

// FreeResultChain is the public free_result_chain call. Go's garbage
// collector reclaims the memory; this walk exists so callers get the same
// explicit lifecycle the core's language-neutral API describes, and so any
// external resources attached to a result (trace correlation, pooled
// buffers) get an unambiguous release point.
func FreeResultChain(rc *ResultChain) {
	if rc == nil {
		return
	}
	node := rc.Head
	for node != nil {
		next := node.Next
		node.TrustHead = nil
		node.Next = nil
		node = next
	}
	rc.Head = nil
}
