package resolver

import (
	"testing"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return &Context{
		Policy:                 dnssec.NewPolicy(),
		Cache:                  NewRecordCache(),
		chain:                  newQueryChain(),
		trace:                  NewTrace(),
		insecureProverInFlight: make(map[string]bool),
	}
}

// TestVerifyPending_EnqueuesDiscoveredQuery exercises the engine.go §4.2
// fix: a node verified mid-loop that discovers it needs a further query
// (here, an RRSIG answered separately from its RRset, needing a DNSKEY
// lookup next) must have that query appended to the chain and reported so
// the outer loop runs another round, rather than the call returning early.
func TestVerifyPending_EnqueuesDiscoveredQuery(t *testing.T) {
	c := newTestContext()

	bare := dnssec.NewRRset("www.example.com.", dns.ClassINET, dns.TypeA, dnssec.AnswerSection)
	require.NoError(t, bare.Add(mustRR(t, "www.example.com. 300 IN A 192.0.2.1")))
	bare.ZoneCut = "example.com."

	head := dnssec.NewAssertion(bare)
	head.QName, head.QType = "www.example.com.", dns.TypeA
	pending := dnssec.BuildPendingQuery(head, c.Policy)
	require.NotNil(t, pending)
	require.Equal(t, dns.TypeRRSIG, pending.Type)
	head.PendingQuery = pending

	q := newQueryNode("www.example.com.", dns.ClassINET, dns.TypeA)
	q.Assertion = head
	q.State = QueryAnswered
	c.chain.nodes = append(c.chain.nodes, q)
	c.chain.index[queryKey("www.example.com.", dns.ClassINET, dns.TypeA)] = q

	rrsig := mustRR(t, "www.example.com. 300 IN RRSIG A 13 3 300 20300101000000 20000101000000 12345 example.com. AAECAwQFBgcICQoLDA0ODw==")
	rrsigSet := dnssec.NewRRset("www.example.com.", dns.ClassINET, dns.TypeA, dnssec.AnswerSection)
	require.NoError(t, rrsigSet.Add(rrsig))
	rrsigAssertion := dnssec.NewAssertion(rrsigSet)

	rq := newQueryNode("www.example.com.", dns.ClassINET, dns.TypeRRSIG)
	rq.Assertion = rrsigAssertion
	rq.State = QueryAnswered
	c.chain.nodes = append(c.chain.nodes, rq)
	c.chain.index[queryKey("www.example.com.", dns.ClassINET, dns.TypeRRSIG)] = rq

	advanced := c.verifyPending()
	assert.True(t, advanced, "discovering the DNSKEY lookup must report forward progress")

	_, found := c.chain.lookup("example.com.", dns.TypeDNSKEY)
	assert.True(t, found, "the DNSKEY query the RRSIG branch discovered must be enqueued on the chain")
	assert.Equal(t, dnssec.WaitForTrust, head.Status)
}

func TestBuildResultChain_DontValidateFlag(t *testing.T) {
	c := newTestContext()

	rrset := dnssec.NewRRset("www.example.com.", dns.ClassINET, dns.TypeA, dnssec.AnswerSection)
	require.NoError(t, rrset.Add(mustRR(t, "www.example.com. 300 IN A 192.0.2.1")))
	a := dnssec.NewAssertion(rrset)

	q := newQueryNode("www.example.com.", dns.ClassINET, dns.TypeA)
	q.Assertion = a
	c.chain.nodes = append(c.chain.nodes, q)

	rc := c.buildResultChain(dnssec.DontValidateFlag)
	require.NotNil(t, rc.Head)
	assert.Equal(t, dnssec.ResultLocalAnswer, rc.Head.Status)
	assert.Equal(t, dnssec.DontValidate, a.Status, "DONT_VALIDATE must actually be recorded on the assertion")
}

func TestBuildResultChain_ReadsBackCachedVerifyResult(t *testing.T) {
	c := newTestContext()

	rrset := dnssec.NewRRset("www.example.com.", dns.ClassINET, dns.TypeA, dnssec.AnswerSection)
	require.NoError(t, rrset.Add(mustRR(t, "www.example.com. 300 IN A 192.0.2.1")))
	a := dnssec.NewAssertion(rrset)

	q := newQueryNode("www.example.com.", dns.ClassINET, dns.TypeA)
	q.Assertion = a
	q.ResultStatus = dnssec.VerifiedChain
	q.ResultDone = true
	c.chain.nodes = append(c.chain.nodes, q)

	rc := c.buildResultChain(0)
	require.NotNil(t, rc.Head)
	assert.Equal(t, dnssec.VerifiedChain, rc.Head.Status, "a cached terminal result must be read back, not recomputed")
}
