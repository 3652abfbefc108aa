package resolver

import (
	"context"
	"fmt"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
)

// Context is one resolve_and_check session: its own query chain, its own
// assertion set, and a reference to the process-wide record cache and
// policy. One Context exists per top-level call and is discarded once the
// call returns - spec.md's Non-goal of caching beyond a session lifetime is
// enforced simply by not persisting a Context.
type Context struct {
	Policy *dnssec.Policy
	Cache  *RecordCache
	Zones  *zones

	chain      *QueryChain
	assertions []*dnssec.Assertion

	trace *Trace

	root *Resolver

	// insecureProverInFlight prevents the provably-insecure prover from
	// re-entering the query that originally invoked it (spec.md §4.8
	// termination condition).
	insecureProverInFlight map[string]bool
}

func newContext(root *Resolver) *Context {
	return &Context{
		Policy:                 root.policy,
		Cache:                  root.cache,
		Zones:                  root.zones,
		chain:                  newQueryChain(),
		trace:                  NewTrace(),
		root:                   root,
		insecureProverInFlight: make(map[string]bool),
	}
}

// ResolveAndCheck is the public resolve_and_check(name, class, type, flags)
// entry point described in spec.md §6.
func (r *Resolver) ResolveAndCheck(goCtx context.Context, name string, class, qtype uint16, flags dnssec.Flag) (*ResultChain, error) {
	c := newContext(r)
	goCtx = context.WithValue(goCtx, CtxTrace, c.trace)

	c.chain.addToQueryChain(name, class, qtype)

	if err := c.driveToCompletion(goCtx, flags); err != nil {
		return nil, err
	}

	return c.buildResultChain(flags), nil
}

// driveToCompletion runs the outer loop from spec.md §4.2: alternating
// ask_cache, ask_resolver and verify_and_validate until no query advances,
// bounded by MaxQueriesPerRequest. Verification runs inside this same loop,
// not after it, because verifying one assertion can discover a further
// query (an RRSIG resolving to a signer whose DNSKEY/DS isn't known yet) -
// spec.md §4.2 step 6 folds that rediscovery back into the same pass rather
// than returning early.
func (c *Context) driveToCompletion(goCtx context.Context, flags dnssec.Flag) error {
	for iteration := uint32(0); ; iteration++ {
		c.trace.Iterations.Store(iteration)

		if uint32(c.chain.len()) > MaxQueriesPerRequest {
			return ErrMaxQueriesPerRequestReached
		}

		advancedByCache := c.askCache(goCtx)
		advancedByResolver, err := c.askResolver(goCtx, flags)
		if err != nil {
			return err
		}

		advancedByVerify := false
		if !flags.has(dnssec.DontValidateFlag) {
			advancedByVerify = c.verifyPending()
		}

		if !advancedByCache && !advancedByResolver && !advancedByVerify {
			return nil
		}
	}
}

// verifyPending runs verify_and_validate over every query whose assertion
// chain hasn't yet reached a terminal result, recording each node's latest
// classified status. It reports whether doing so discovered and enqueued a
// new pending query, which is this pass's signal to keep looping.
func (c *Context) verifyPending() bool {
	answers := &contextQueryAnswers{c: c}
	for _, q := range c.chain.nodes {
		if q.Assertion == nil || q.Referral != nil || q.ResultDone {
			continue
		}
		status, done := dnssec.VerifyAndValidate(q.Assertion, c.Policy, answers, c.resolveDS)
		q.ResultStatus = status
		q.ResultDone = done
	}
	return answers.enqueued
}

// askCache implements ask_cache: scans all INIT queries; for each hit,
// synthesizes a minimal response and runs assimilate. DNSKEY questions get a
// second chance through the owning zone's own short-lived key cache before
// falling through to a full resolver round-trip.
func (c *Context) askCache(goCtx context.Context) bool {
	advanced := false
	for _, q := range c.chain.pending() {
		if rrset := c.Cache.getCachedRRset(q.Name, q.Class, q.Type); rrset != nil {
			c.assimilateRRset(rrset, q)
			q.State = QueryAnswered
			advanced = true
			continue
		}

		if q.Type != dns.TypeDNSKEY {
			continue
		}
		z := c.Zones.get(q.Name)
		if z == nil {
			continue
		}
		keys, err := z.dnskeys(goCtx)
		if err != nil || len(keys) == 0 {
			continue
		}

		rrset := dnssec.NewRRset(q.Name, q.Class, dns.TypeDNSKEY, dnssec.AnswerSection)
		for _, rr := range keys {
			_ = rrset.Add(rr)
		}
		rrset.ZoneCut = z.name()
		rrset.Authoritative = true

		c.Cache.stowKeyInfo([]*dnssec.RRset{rrset})
		c.assimilateRRset(rrset, q)
		q.State = QueryAnswered
		advanced = true
	}
	return advanced
}

// askResolver implements ask_resolver: for each still-INIT query, finds the
// closest cached zone, sends, digests the response, and assimilates it.
// A referral descends into a freshly built child zone (spec.md §4.3) rather
// than answering the question directly; the query is re-queued so the next
// iteration picks up the now-cached, deeper zone cut.
func (c *Context) askResolver(goCtx context.Context, flags dnssec.Flag) (bool, error) {
	advanced := false
	for _, q := range c.chain.pending() {
		z := c.Zones.closestEnclosing(q.Name)
		if z == nil {
			z = c.Zones.get(".")
		}
		if z == nil {
			q.State = QueryError
			q.Err = ErrNextNameserversNotFound
			continue
		}
		q.ZoneCut = z.name()

		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(q.Name), q.Type)
		msg.RecursionDesired = false
		if !flags.has(dnssec.DontValidateFlag) && c.Policy.ZoneExpectationFor(z.name()) == dnssec.ZoneValidate {
			msg.SetEdns0(4096, true)
			msg.CheckingDisabled = true
		}

		q.State = QuerySent
		response := z.exchange(goCtx, msg)
		if response.HasError() {
			q.State = QueryError
			q.Err = fmt.Errorf("%w: %w", ErrUnableToResolveAnswer, response.Err)
			continue
		}
		if response.IsEmpty() {
			q.State = QueryError
			q.Err = ErrEmptyResponse
			continue
		}
		if rcode := response.Msg.Rcode; rcode != dns.RcodeSuccess && rcode != dns.RcodeNameError {
			q.State = QueryError
			q.Err = fmt.Errorf("%w: unsuccessful response code %s (%d)", ErrUnableToResolveAnswer, RcodeToString(rcode), rcode)
			continue
		}

		digested := digestResponse(response.Msg, q.Name, q.Type, z.name())
		if digested.Err != nil {
			q.State = QueryError
			q.Err = digested.Err
			continue
		}

		switch digested.Kind {
		case DigestReferral:
			if err := c.descendZone(goCtx, z, digested); err != nil {
				q.State = QueryError
				q.Err = err
				continue
			}
			q.State = QueryInit // re-ask now the zones store has a deeper cut.
		case DigestAlias:
			if q.Referral == nil {
				q.Referral = newReferralBlock(q.Name)
			}
			if q.Referral.seen(digested.AliasTarget) || !q.Referral.register(digested.AliasTarget, q.Type, digested.ZoneCut) {
				q.State = QueryError
				q.Err = ErrReferralError
				Warn(fmt.Sprintf("alias loop detected: [%s] already visited in chain from [%s]", digested.AliasTarget, q.Referral.currentName()))
				continue
			}
			c.assimilateSets(digested.Sets, q)
			q.Referral.appendAlias(digested.AliasTarget)
			q.Name = digested.AliasTarget
			q.State = QueryInit
		default:
			c.assimilateSets(digested.Sets, q)
			c.stowDigested(digested)
			q.State = QueryAnswered
		}

		advanced = true
	}
	return advanced, nil
}

// descendZone builds the child zone a referral points to - its nameserver
// pool seeded from the NS records and any in-bailiwick glue the response
// carried, enriching live if no glue was present - and registers it in the
// shared zones store so later queries for names under it skip straight past
// the parent.
func (c *Context) descendZone(goCtx context.Context, parent *zone, d *DigestedResponse) error {
	var nsRecords []*dns.NS
	var glue []dns.RR

	for _, s := range d.Sets {
		switch s.Type {
		case dns.TypeNS:
			nsRecords = append(nsRecords, extractRecords[*dns.NS](s.Data)...)
			c.Cache.stowZoneInfo([]*dnssec.RRset{s})
		case dns.TypeA, dns.TypeAAAA:
			glue = append(glue, s.Data...)
		}
	}

	if len(nsRecords) == 0 {
		return ErrNextNameserversNotFound
	}

	if dom := newDomain(d.ReferralZone); dom.windTo(parent.name()) == nil {
		if gaps := dom.gap(d.ReferralZone); len(gaps) > 1 {
			Warn(fmt.Sprintf("referral for [%s] skips intermediate zone cuts under [%s]", d.ReferralZone, parent.name()))
		}
	}

	child, err := createZone(goCtx, d.ReferralZone, parent.name(), nsRecords, glue, parent)
	if err != nil {
		return err
	}
	Debug(fmt.Sprintf("descended to zone [%s] under parent [%s]", child.name(), child.parent()))
	c.Zones.add(child)
	return nil
}

func (c *Context) stowDigested(d *DigestedResponse) {
	var answers, negatives, keys, ds, zoneInfo []*dnssec.RRset
	for _, s := range d.Sets {
		switch {
		case s.Kind == dnssec.NACK_NSEC || s.Kind == dnssec.NACK_NSEC3 || s.Kind == dnssec.NACK_SOA:
			negatives = append(negatives, s)
		case s.Type == dns.TypeDNSKEY:
			keys = append(keys, s)
		case s.Type == dns.TypeDS:
			ds = append(ds, s)
		case s.Type == dns.TypeNS:
			zoneInfo = append(zoneInfo, s)
		default:
			answers = append(answers, s)
		}
	}
	c.Cache.stowAnswers(answers)
	c.Cache.stowNegativeAnswers(negatives)
	c.Cache.stowKeyInfo(keys)
	c.Cache.stowDSInfo(ds)
	c.Cache.stowZoneInfo(zoneInfo)
}

// assimilate implements assimilate(response, query) from spec.md §4.4: one
// assertion per RRset, linked by rrset_next, with build_pending_query run
// on each to determine what it needs next.
func (c *Context) assimilateSets(sets []*dnssec.RRset, q *QueryNode) {
	var head, tail *dnssec.Assertion
	for _, s := range sets {
		a := dnssec.NewAssertion(s)
		c.assertions = append(c.assertions, a)
		if head == nil {
			head = a
		} else {
			tail.RRsetNext = a
		}
		tail = a

		if pending := dnssec.BuildPendingQuery(a, c.Policy); pending != nil {
			a.PendingQuery = pending
			c.chain.addToQueryChain(pending.Name, q.Class, pending.Type)
		}
	}
	if head != nil {
		head.QName = q.Name
		head.QType = q.Type
	}
	q.Assertion = head
}

func (c *Context) assimilateRRset(rrset *dnssec.RRset, q *QueryNode) {
	c.assimilateSets([]*dnssec.RRset{rrset}, q)
}

// buildResultChain walks every top-level query's assertion chain and
// classifies its result, spec.md §4.5. With validation enabled, the final
// classification was already computed by verifyPending inside
// driveToCompletion's loop; this just reads it back rather than re-walking
// the chain a second time. A node whose walk verifyPending left short of a
// final status still gets one more pass here.
func (c *Context) buildResultChain(flags dnssec.Flag) *ResultChain {
	rc := &ResultChain{}

	if flags.has(dnssec.DontValidateFlag) {
		for _, q := range c.chain.nodes {
			if q.Assertion == nil {
				continue
			}
			q.Assertion.Status = dnssec.DontValidate
			rc.append(&ResultNode{TrustHead: q.Assertion, Status: dnssec.ResultLocalAnswer})
		}
		return rc
	}

	answers := &contextQueryAnswers{c: c}

	for _, q := range c.chain.nodes {
		if q.Assertion == nil || q.Referral != nil {
			continue
		}
		if !q.ResultDone {
			q.ResultStatus, q.ResultDone = dnssec.VerifyAndValidate(q.Assertion, c.Policy, answers, c.resolveDS)
		}
		rc.append(&ResultNode{TrustHead: q.Assertion, Status: q.ResultStatus})
	}

	return rc
}

// resolveDS implements the recursive (zone_cut, DS) lookup the
// provably-insecure prover needs, spec.md §4.8, guarding against
// re-entering the query that originally invoked it.
func (c *Context) resolveDS(zoneCut string) (dnssec.ResultStatus, error) {
	key := zoneCut + "|DS"
	if c.insecureProverInFlight[key] {
		return dnssec.IndeterminateProof, nil
	}
	c.insecureProverInFlight[key] = true
	defer delete(c.insecureProverInFlight, key)

	// The nested lookup shares this Context's in-flight set, so a prover run
	// inside it cannot re-enter a DS question already being resolved here.
	nested := newContext(c.root)
	nested.insecureProverInFlight = c.insecureProverInFlight
	nested.chain.addToQueryChain(zoneCut, dns.ClassINET, dns.TypeDS)
	goCtx := context.WithValue(context.Background(), CtxTrace, nested.trace)
	if err := nested.driveToCompletion(goCtx, 0); err != nil {
		return dnssec.ResultDNSError, err
	}
	rc := nested.buildResultChain(0)
	if rc == nil || rc.Head == nil {
		return dnssec.ResultDNSError, nil
	}
	return rc.Head.Status, nil
}

// contextQueryAnswers adapts the Context's query chain to dnssec.QueryAnswers.
// enqueued records whether Enqueue was ever asked to register a genuinely
// new query during the current verify pass, so the outer loop knows whether
// this pass needs another round of ask_resolver.
type contextQueryAnswers struct {
	c        *Context
	enqueued bool
}

func (q *contextQueryAnswers) Answered(name string, qtype uint16) (assertion *dnssec.Assertion, negative bool, ok bool) {
	node, found := q.c.chain.lookup(name, qtype)
	if !found || node.State != QueryAnswered {
		return nil, false, false
	}
	if node.Assertion == nil {
		return nil, true, true
	}
	k := node.Assertion.RRset.Kind
	negative = k == dnssec.NACK_NSEC || k == dnssec.NACK_NSEC3 || k == dnssec.NACK_SOA
	return node.Assertion, negative, true
}

func (q *contextQueryAnswers) Enqueue(name string, qtype uint16) {
	_, isNew := q.c.chain.addToQueryChain(name, dns.ClassINET, qtype)
	if isNew {
		q.enqueued = true
	}
}
