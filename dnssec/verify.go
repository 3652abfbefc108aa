package dnssec

import (
	"time"

	"github.com/miekg/dns"
)

// supportedAlgorithm reports whether alg is one of the algorithms this
// validator verifies: RSA-MD5, DSA-SHA1 (and its NSEC3 alias), RSA-SHA1 (and
// its NSEC3 alias), RSA-SHA256, RSA-SHA512, ECDSA P-256/SHA-256,
// ECDSA P-384/SHA-384 and Ed25519. Any other algorithm number is reported
// as unsupported, distinctly from unknown ones.
func supportedAlgorithm(alg uint8) bool {
	switch alg {
	case dns.RSAMD5, dns.DSA, dns.DSANSEC3SHA1, dns.RSASHA1, dns.RSASHA1NSEC3SHA1,
		dns.RSASHA256, dns.RSASHA512, dns.ECDSAP256SHA256, dns.ECDSAP384SHA384, dns.ED25519:
		return true
	default:
		return false
	}
}

func knownAlgorithm(alg uint8) bool {
	return int(alg) > 0 && int(alg) < 256
}

// Verify runs verify(assertion, trust) from spec.md §4.6. trust is the
// assertion holding the candidate key set: either a.Trust (the parent in
// the chain of trust) or, when verifying a DNSKEY set itself, a again.
func Verify(a *Assertion, trust *Assertion, window uint32) {
	rrset := a.RRset

	var keys []*dns.DNSKEY
	if trust != nil {
		keys = extractRecords[*dns.DNSKEY](trust.RRset.Data)
	}

	strongest := NotVerified
	now := time.Now()

	var anyVerified, anyWildcard bool

sigs:
	for _, sig := range rrset.RRSIG {
		ownerLabels := dns.CountLabel(rrset.Owner)
		if uint8(ownerLabels) < sig.Labels {
			strongest = WrongLabelCount
			if RequireAllSignaturesValid {
				break sigs
			}
			continue
		}
		wildcard := uint8(ownerLabels) > sig.Labels
		if wildcard && (rrset.Type == dns.TypeDNSKEY || rrset.Type == dns.TypeDS) {
			strongest = InvalidKey
			if RequireAllSignaturesValid {
				break sigs
			}
			continue
		}

		if !knownAlgorithm(sig.Algorithm) {
			strongest = UnknownAlgorithm
			if RequireAllSignaturesValid {
				break sigs
			}
			continue
		}
		if !supportedAlgorithm(sig.Algorithm) {
			strongest = AlgorithmNotSupported
			if RequireAllSignaturesValid {
				break sigs
			}
			continue
		}

		for _, key := range keys {
			if key.KeyTag() != sig.KeyTag {
				continue
			}
			if key.Algorithm != sig.Algorithm {
				continue
			}
			if key.Protocol != 3 {
				strongest = UnknownDNSKEYProtocol
				continue
			}
			if key.Flags&dns.ZONE == 0 {
				continue
			}

			if !sig.ValidityPeriod(now) {
				if withinAcceptanceWindow(sig, now, window) {
					// Within the warning-only margin: treat as valid but logged.
					Warn("rrsig outside validity period but within acceptance window for " + rrset.Owner)
				} else if uint32(now.Unix()) > sig.Expiration {
					strongest = RRSIGExpired
					continue
				} else {
					strongest = RRSIGNotYetActive
					continue
				}
			}

			if err := sig.Verify(key, rrset.Data); err != nil {
				strongest = NotVerified
				continue
			}

			a.Selected = sig
			a.SignerName = dns.CanonicalName(sig.SignerName)
			anyVerified = true
			if wildcard {
				anyWildcard = true
			}

			if !RequireAllSignaturesValid {
				if wildcard {
					a.Status = WcardVerified
				} else {
					a.Status = Verified
				}
				return
			}
			continue sigs
		}

		if strongest == NotVerified && len(keys) > 0 {
			strongest = DNSKEYNoMatch
		} else if len(keys) == 0 {
			strongest = DNSKEYMissing
		}

		// This sig never found a verifying key: under the strict policy
		// that fails the whole RRset, per RFC 4035 §5.3.3.
		if RequireAllSignaturesValid {
			break sigs
		}
	}

	if RequireAllSignaturesValid && anyVerified && strongest == NotVerified {
		if anyWildcard {
			a.Status = WcardVerified
		} else {
			a.Status = Verified
		}
		return
	}

	a.Status = strongest
}

func withinAcceptanceWindow(sig *dns.RRSIG, now time.Time, window uint32) bool {
	if window == 0 {
		return false
	}
	nowSec := uint32(now.Unix())
	if nowSec > sig.Expiration && nowSec-sig.Expiration <= window {
		return true
	}
	if nowSec < sig.Inception && sig.Inception-nowSec <= window {
		return true
	}
	return false
}

// VerifyDNSKEYLink walks the trust-parent DS records looking for one whose
// digest matches key's canonical form, spec.md §4.6 step 2. The first match
// yields VERIFIED_LINK, the terminal success for a DNSKEY assertion.
func VerifyDNSKEYLink(a *Assertion, parentDS []*dns.DS) bool {
	keys := extractRecords[*dns.DNSKEY](a.RRset.Data)
	for _, key := range keys {
		for _, ds := range parentDS {
			candidate, err := key.ToDS(ds.DigestType)
			if err != nil {
				continue
			}
			if candidate.Digest == ds.Digest && candidate.Algorithm == ds.Algorithm {
				a.Status = VerifiedLink
				return true
			}
		}
	}
	return false
}
