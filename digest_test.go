package resolver

import (
	"testing"

	"github.com/chainval/resolver/dnssec"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

func TestDigestResponse_Referral(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{mustRR(t, "example.com. 3600 IN NS ns1.example.com.")}
	msg.Extra = []dns.RR{mustRR(t, "ns1.example.com. 3600 IN A 192.0.2.53")}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, ".")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestReferral, d.Kind)
	assert.Equal(t, "example.com.", d.ReferralZone)
}

func TestDigestResponse_CNAMEAlias(t *testing.T) {
	msg := new(dns.Msg)
	msg.Authoritative = true
	msg.Answer = []dns.RR{mustRR(t, "www.example.com. 300 IN CNAME other.example.net.")}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestAlias, d.Kind)
	assert.Equal(t, "other.example.net.", d.AliasTarget)
}

// TestDigestResponse_DNAMESynthesis covers spec.md §4.3's DNAME synthesis
// rule: the qname's labels below the DNAME owner are concatenated onto the
// DNAME target.
func TestDigestResponse_DNAMESynthesis(t *testing.T) {
	msg := new(dns.Msg)
	msg.Authoritative = true
	msg.Answer = []dns.RR{mustRR(t, "example.com. 300 IN DNAME example.net.")}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestAlias, d.Kind)
	assert.Equal(t, "www.example.net.", d.AliasTarget)
}

func TestDigestResponse_DNAMENotAncestorIsNotAlias(t *testing.T) {
	msg := new(dns.Msg)
	msg.Authoritative = true
	// the DNAME's owner equals the qname itself - not a proper ancestor, so
	// spec.md's "whose owner is a proper ancestor of the qname" excludes it.
	msg.Answer = []dns.RR{mustRR(t, "www.example.com. 300 IN DNAME example.net.")}

	d := digestResponse(msg, "www.example.com.", dns.TypeDNAME, "example.com.")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestStraight, d.Kind)
}

func TestDigestResponse_NegativeNSEC(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		mustRR(t, "example.com. 3600 IN SOA ns1.example.com. noc.example.com. 1 2 3 4 5"),
		mustRR(t, "www.example.com. 3600 IN NSEC wxy.example.com. A RRSIG NSEC"),
	}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestNegative, d.Kind)
}

func TestDigestResponse_Straight(t *testing.T) {
	msg := new(dns.Msg)
	msg.Authoritative = true
	msg.Answer = []dns.RR{mustRR(t, "www.example.com. 300 IN A 192.0.2.1")}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	require.NoError(t, d.Err)
	assert.Equal(t, DigestStraight, d.Kind)
	require.Len(t, d.Sets, 1)
	assert.Equal(t, dnssec.STRAIGHT, d.Sets[0].Kind)
	assert.True(t, d.Sets[0].Authoritative)
}

func TestDigestResponse_ConflictingSOAOwners(t *testing.T) {
	msg := new(dns.Msg)
	msg.Ns = []dns.RR{
		mustRR(t, "a.example.com. 3600 IN SOA ns1.example.com. noc.example.com. 1 2 3 4 5"),
		mustRR(t, "b.example.com. 3600 IN SOA ns1.example.com. noc.example.com. 1 2 3 4 5"),
	}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	require.Error(t, d.Err)
}

func TestDigestResponse_KindMixingViolation(t *testing.T) {
	msg := new(dns.Msg)
	msg.Authoritative = true
	msg.Answer = []dns.RR{
		// A straight answer for one RRset...
		mustRR(t, "www.example.com. 300 IN A 192.0.2.1"),
		// ...alongside an orphaned RRSIG covering an unrelated, absent
		// AAAA RRset - a BARE_RRSIG group, which must stand alone.
		mustRR(t, "other.example.com. 300 IN RRSIG AAAA 13 3 300 20300101000000 20000101000000 12345 example.com. AAECAwQFBgcICQoLDA0ODw=="),
	}

	d := digestResponse(msg, "www.example.com.", dns.TypeA, "example.com.")
	assert.Error(t, d.Err)
}
