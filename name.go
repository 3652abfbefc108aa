package resolver

import "github.com/miekg/dns"

// namecmp compares two domain names on their canonical (lowercased) wire
// form. It returns 0 when they're equal, matching the DNS case-insensitive
// comparison rule used throughout the chain.
func namecmp(a, b string) int {
	a = dns.CanonicalName(a)
	b = dns.CanonicalName(b)
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func namesEqual(a, b string) bool {
	return namecmp(a, b) == 0
}

// isSubdomain reports whether child lies at or below parent on a label
// boundary - i.e. parent is child's zone cut, or an ancestor of it.
// This is the wire-form, label-boundary suffix comparison the REDESIGN
// FLAG in spec.md mandates in place of the original C source's substring
// containment check.
func isSubdomain(parent, child string) bool {
	return dns.IsSubDomain(dns.CanonicalName(parent), dns.CanonicalName(child))
}

// longestSuffixMatch returns the longest of candidates that is an ancestor
// of (or equal to) name, used for picking the closest cached zone cut.
func longestSuffixMatch(name string, candidates []string) (string, bool) {
	name = dns.CanonicalName(name)
	best := ""
	found := false
	for _, c := range candidates {
		c = dns.CanonicalName(c)
		if !isSubdomain(c, name) {
			continue
		}
		if !found || dns.CountLabel(c) > dns.CountLabel(best) {
			best = c
			found = true
		}
	}
	return best, found
}

// wildcardName replaces the leftmost label of name with "*".
func wildcardName(name string) string {
	idx := dns.Split(name)
	if len(idx) < 2 {
		return "*."
	}
	return "*." + name[idx[1]:]
}
