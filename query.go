package resolver

import (
	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
)

// QueryState is the closed set a query node moves through, spec.md §3.
type QueryState uint8

const (
	QueryInit QueryState = iota
	QuerySent
	QueryAnswered
	QueryWaitForGlue
	QueryError
)

func (s QueryState) String() string {
	switch s {
	case QueryInit:
		return "INIT"
	case QuerySent:
		return "SENT"
	case QueryAnswered:
		return "ANSWERED"
	case QueryWaitForGlue:
		return "WAIT_FOR_GLUE"
	case QueryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ReferralBlock tracks an in-flight delegation: the alias chain walked so
// far, the accumulated answer RRsets, and the registered (name, type,
// zone_cut) triples used for referral-loop detection (spec.md §4.3).
type ReferralBlock struct {
	QNameChain []string
	Answers    []*dnssec.RRset

	registered map[string]bool

	PendingGlue []string
	GlueQuery   *QueryNode
}

func newReferralBlock(qname string) *ReferralBlock {
	return &ReferralBlock{
		QNameChain: []string{dns.CanonicalName(qname)},
		registered: make(map[string]bool),
	}
}

// register records (name, type, zoneCut) once; a second registration of the
// same triple within this referral block is a loop, per spec.md §4.3.
func (r *ReferralBlock) register(name string, qtype uint16, zoneCut string) bool {
	key := dns.CanonicalName(name) + "|" + dns.CanonicalName(zoneCut) + "|" + TypeToString(qtype)
	if r.registered[key] {
		return false
	}
	r.registered[key] = true
	return true
}

func (r *ReferralBlock) currentName() string {
	return r.QNameChain[len(r.QNameChain)-1]
}

func (r *ReferralBlock) appendAlias(name string) {
	r.QNameChain = append(r.QNameChain, dns.CanonicalName(name))
}

func (r *ReferralBlock) seen(name string) bool {
	for _, n := range r.QNameChain {
		if namesEqual(n, name) {
			return true
		}
	}
	return false
}

// QueryNode is a single outstanding question, spec.md §3.
type QueryNode struct {
	Name  string
	Class uint16
	Type  uint16

	State QueryState
	Err   error

	ZoneCut string

	Referral *ReferralBlock

	Assertion *dnssec.Assertion

	// ResultStatus/ResultDone cache this node's most recent classification
	// from verify_and_validate, so repeated passes of the outer loop don't
	// re-walk an authentication chain that has already reached a terminal
	// status - in particular so tryProvablyInsecure's nested
	// resolve_and_check call isn't re-run every iteration.
	ResultStatus dnssec.ResultStatus
	ResultDone   bool
}

func newQueryNode(name string, class, qtype uint16) *QueryNode {
	return &QueryNode{
		Name:  dns.CanonicalName(name),
		Class: class,
		Type:  qtype,
		State: QueryInit,
	}
}

// QueryChain is the ordered list of outstanding/completed queries for a
// single resolve_and_check call. Query nodes are appended on demand and
// the chain as a whole is owned by, and freed with, the Context.
type QueryChain struct {
	nodes []*QueryNode
	index map[string]*QueryNode
}

func newQueryChain() *QueryChain {
	return &QueryChain{index: make(map[string]*QueryNode)}
}

func queryKey(name string, class, qtype uint16) string {
	return dns.CanonicalName(name) + "|" + TypeToString(qtype)
}

// addToQueryChain implements add_to_query_chain: it returns the existing
// node for (name, type) if one is already tracked - class is not part of the
// key, as in lookup - else creates and
// appends a new one. This is also the chain's loop-termination guard for
// testable property 5 (chain termination) - a question already in flight
// never spawns a duplicate node.
func (c *QueryChain) addToQueryChain(name string, class, qtype uint16) (*QueryNode, bool) {
	key := queryKey(name, class, qtype)
	if existing, ok := c.index[key]; ok {
		return existing, false
	}
	node := newQueryNode(name, class, qtype)
	c.nodes = append(c.nodes, node)
	c.index[key] = node
	return node, true
}

// lookup finds a node by (name, type), ignoring class (the core only
// operates over class IN in practice).
func (c *QueryChain) lookup(name string, qtype uint16) (*QueryNode, bool) {
	for _, n := range c.nodes {
		if n.Type == qtype && namesEqual(n.Name, name) {
			return n, true
		}
	}
	return nil, false
}

func (c *QueryChain) pending() []*QueryNode {
	out := make([]*QueryNode, 0, len(c.nodes))
	for _, n := range c.nodes {
		if n.State == QueryInit {
			out = append(out, n)
		}
	}
	return out
}

func (c *QueryChain) len() int {
	return len(c.nodes)
}
