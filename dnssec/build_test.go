package dnssec

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPendingQuery_ZoneUntrust(t *testing.T) {
	policy := NewPolicy()
	policy.SetZoneExpectation(testZone, ZoneUntrust)

	rrset := NewRRset(testZone, dns.ClassINET, dns.TypeA, AnswerSection)
	rrset.ZoneCut = testZone
	a := NewAssertion(rrset)

	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, UntrustedZone, a.Status)
}

func TestBuildPendingQuery_ZoneSkip(t *testing.T) {
	policy := NewPolicy()
	policy.SetZoneExpectation(testZone, ZoneSkip)

	rrset := NewRRset(testZone, dns.ClassINET, dns.TypeA, AnswerSection)
	rrset.ZoneCut = testZone
	a := NewAssertion(rrset)

	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, TrustZone, a.Status)
}

func TestBuildPendingQuery_DataMissing(t *testing.T) {
	policy := NewPolicy()
	rrset := NewRRset(testZone, dns.ClassINET, dns.TypeA, AnswerSection)
	rrset.ZoneCut = testZone
	a := NewAssertion(rrset)

	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, DataMissing, a.Status)
}

func TestBuildPendingQuery_BareRRSIG(t *testing.T) {
	policy := NewPolicy()
	key := newTestKey(testZone)
	rrset := NewRRset(testZone, dns.ClassINET, dns.TypeA, AnswerSection)
	rrset.ZoneCut = testZone
	require.NoError(t, rrset.Add(key.sign(testZone, []dns.RR{newRR(testZone + " 300 IN A 192.0.2.1")})))

	a := NewAssertion(rrset)
	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, BareRRSIG, a.Status)
}

func TestBuildPendingQuery_WaitForRRSIG(t *testing.T) {
	policy := NewPolicy()
	rrset := NewRRset(testZone, dns.ClassINET, dns.TypeA, AnswerSection)
	rrset.ZoneCut = testZone
	require.NoError(t, rrset.Add(newRR(testZone+" 300 IN A 192.0.2.1")))

	a := NewAssertion(rrset)
	pending := BuildPendingQuery(a, policy)
	require.NotNil(t, pending)
	assert.Equal(t, dns.TypeRRSIG, pending.Type)
	assert.Equal(t, WaitForRRSIG, a.Status)
}

func TestBuildPendingQuery_DNSKEYTrustKey(t *testing.T) {
	policy := NewPolicy()
	key := newTestKey(testZone)
	policy.AddTrustAnchor(testZone, key.ds)

	keySet := signedRRset(testZone, dns.TypeDNSKEY, []dns.RR{key.key}, key)
	a := NewAssertion(keySet)

	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, TrustKey, a.Status)
}

func TestBuildPendingQuery_DNSKEYWaitForTrust(t *testing.T) {
	policy := NewPolicy()
	policy.AddTrustAnchor(".", newTestKey(".").ds) // anchor above, but not matching this key
	key := newTestKey(testZone)

	keySet := signedRRset(testZone, dns.TypeDNSKEY, []dns.RR{key.key}, key)
	a := NewAssertion(keySet)

	pending := BuildPendingQuery(a, policy)
	require.NotNil(t, pending)
	assert.Equal(t, dns.TypeDS, pending.Type)
	assert.Equal(t, WaitForTrust, a.Status)
}

func TestBuildPendingQuery_DNSKEYNoTrustAnchor(t *testing.T) {
	policy := NewPolicy()
	key := newTestKey(testZone)
	keySet := signedRRset(testZone, dns.TypeDNSKEY, []dns.RR{key.key}, key)
	a := NewAssertion(keySet)

	pending := BuildPendingQuery(a, policy)
	assert.Nil(t, pending)
	assert.Equal(t, NoTrustAnchor, a.Status)
}

func TestBuildPendingQuery_WaitForTrustDNSKEYLookup(t *testing.T) {
	policy := NewPolicy()
	key := newTestKey(testZone)
	answerSet := signedRRset(testZone, dns.TypeA, []dns.RR{newRR(testZone + " 300 IN A 192.0.2.1")}, key)
	a := NewAssertion(answerSet)

	pending := BuildPendingQuery(a, policy)
	require.NotNil(t, pending)
	assert.Equal(t, dns.TypeDNSKEY, pending.Type)
	assert.Equal(t, WaitForTrust, a.Status)
	assert.Equal(t, dns.Fqdn(testZone), pending.Name)
}
