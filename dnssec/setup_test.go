package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"time"

	"github.com/miekg/dns"
)

const dnskeyFlagCsk = 257
const testZone = "example.com."

func newRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(err)
	}
	return rr
}

// testKey is a signing key usable both as a DNSKEY RR and as the trust
// anchor's DS equivalent, adapted from the teacher's own test key helpers.
type testKey struct {
	key    *dns.DNSKEY
	ds     *dns.DS
	signer crypto.Signer
}

func newTestKey(owner string) *testKey {
	dnskey := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(owner),
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    300,
		},
		Flags:     dnskeyFlagCsk,
		Protocol:  3,
		Algorithm: dns.ECDSAP256SHA256,
	}
	secret, err := dnskey.Generate(256)
	if err != nil {
		panic(err)
	}
	signer, _ := secret.(*ecdsa.PrivateKey)
	return &testKey{
		ds:     dnskey.ToDS(dns.SHA256),
		key:    dnskey,
		signer: signer,
	}
}

func newTestRSAKey(owner string) *testKey {
	dnskey := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(owner),
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    300,
		},
		Flags:     dnskeyFlagCsk,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	secret, err := dnskey.Generate(2048)
	if err != nil {
		panic(err)
	}
	signer, _ := secret.(*rsa.PrivateKey)
	return &testKey{
		ds:     dnskey.ToDS(dns.SHA256),
		key:    dnskey,
		signer: signer,
	}
}

func (k *testKey) sign(owner string, rrset []dns.RR) *dns.RRSIG {
	rrsig := &dns.RRSIG{
		Hdr:        dns.RR_Header{Name: dns.Fqdn(owner)},
		Inception:  uint32(time.Now().Add(-time.Hour).Unix()),
		Expiration: uint32(time.Now().Add(time.Hour).Unix()),
		KeyTag:     k.key.KeyTag(),
		SignerName: k.key.Header().Name,
		Algorithm:  k.key.Algorithm,
	}
	if err := rrsig.Sign(k.signer, rrset); err != nil {
		panic(err)
	}
	return rrsig
}

// signedRRset builds an RRset already carrying a valid RRSIG over data,
// signed by k.
func signedRRset(owner string, rtype uint16, data []dns.RR, k *testKey) *RRset {
	set := NewRRset(owner, dns.ClassINET, rtype, AnswerSection)
	for _, rr := range data {
		_ = set.Add(rr)
	}
	_ = set.Add(k.sign(owner, data))
	set.ZoneCut = dns.CanonicalName(owner)
	return set
}
