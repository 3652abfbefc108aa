package dnssec

// Kind tags the logical purpose of an RRset within a digested response.
type Kind uint8

const (
	UNSET Kind = iota
	STRAIGHT
	CNAME
	DNAME
	BARE_RRSIG
	NACK_NSEC
	NACK_NSEC3
	NACK_SOA
)

func (k Kind) String() string {
	switch k {
	case STRAIGHT:
		return "STRAIGHT"
	case CNAME:
		return "CNAME"
	case DNAME:
		return "DNAME"
	case BARE_RRSIG:
		return "BARE_RRSIG"
	case NACK_NSEC:
		return "NACK_NSEC"
	case NACK_NSEC3:
		return "NACK_NSEC3"
	case NACK_SOA:
		return "NACK_SOA"
	default:
		return "UNSET"
	}
}

// Section records which part of a message an RRset was assembled from.
type Section uint8

const (
	AnswerSection Section = iota
	AuthoritySection
	AdditionalSection
)

// ZoneExpectation is the configured trust posture for a zone.
type ZoneExpectation uint8

const (
	ZoneValidate ZoneExpectation = iota
	ZoneSkip
	ZoneUntrust
)

// AssertionStatus is the closed authentication-level status set, spec.md §7.
type AssertionStatus uint8

const (
	Init AssertionStatus = iota
	WaitForRRSIG
	WaitForTrust
	CanVerify
	Verified
	WcardVerified
	VerifiedLink
	SigningKey
	TrustKey
	TrustZone
	UntrustedZone
	LocalAnswer
	ProvablyInsecure
	NegativeProof
	DontValidate
	BareRRSIG
	DataMissing
	RRSIGMissing
	DSMissing
	DNSKEYMissing
	DNSKEYNoMatch
	InvalidKey
	InvalidRRSIG
	NotVerified
	RRSIGExpired
	RRSIGNotYetActive
	RRSIGAlgorithmMismatch
	UnknownAlgorithm
	AlgorithmNotSupported
	WrongLabelCount
	BadDelegation
	NoTrustAnchor
	UnknownDNSKEYProtocol
	UnknownAlgorithmLink
	DNSError
)

func (s AssertionStatus) String() string {
	names := map[AssertionStatus]string{
		Init: "INIT", WaitForRRSIG: "WAIT_FOR_RRSIG", WaitForTrust: "WAIT_FOR_TRUST",
		CanVerify: "CAN_VERIFY", Verified: "VERIFIED", WcardVerified: "WCARD_VERIFIED",
		VerifiedLink: "VERIFIED_LINK", SigningKey: "SIGNING_KEY", TrustKey: "TRUST_KEY",
		TrustZone: "TRUST_ZONE", UntrustedZone: "UNTRUSTED_ZONE", LocalAnswer: "LOCAL_ANSWER",
		ProvablyInsecure: "PROVABLY_INSECURE", NegativeProof: "NEGATIVE_PROOF",
		DontValidate: "DONT_VALIDATE", BareRRSIG: "BARE_RRSIG", DataMissing: "DATA_MISSING",
		RRSIGMissing: "RRSIG_MISSING", DSMissing: "DS_MISSING", DNSKEYMissing: "DNSKEY_MISSING",
		DNSKEYNoMatch: "DNSKEY_NOMATCH", InvalidKey: "INVALID_KEY", InvalidRRSIG: "INVALID_RRSIG",
		NotVerified: "NOT_VERIFIED", RRSIGExpired: "RRSIG_EXPIRED", RRSIGNotYetActive: "RRSIG_NOTYETACTIVE",
		RRSIGAlgorithmMismatch: "RRSIG_ALGORITHM_MISMATCH", UnknownAlgorithm: "UNKNOWN_ALGORITHM",
		AlgorithmNotSupported: "ALGORITHM_NOT_SUPPORTED", WrongLabelCount: "WRONG_LABEL_COUNT",
		BadDelegation: "BAD_DELEGATION", NoTrustAnchor: "NO_TRUST_ANCHOR",
		UnknownDNSKEYProtocol: "UNKNOWN_DNSKEY_PROTOCOL", UnknownAlgorithmLink: "UNKNOWN_ALGORITHM_LINK",
		DNSError: "DNS_ERROR",
	}
	if n, ok := names[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// isTerminalFailure reports whether a status is a terminal verification failure,
// i.e. one that should downgrade the containing result chain.
func (s AssertionStatus) isTerminalFailure() bool {
	switch s {
	case DNSKEYNoMatch, InvalidKey, InvalidRRSIG, NotVerified, RRSIGExpired,
		RRSIGNotYetActive, RRSIGAlgorithmMismatch, UnknownAlgorithm,
		AlgorithmNotSupported, WrongLabelCount, BadDelegation, NoTrustAnchor,
		UnknownDNSKEYProtocol, UnknownAlgorithmLink, DataMissing, RRSIGMissing,
		DSMissing, DNSKEYMissing, DNSError:
		return true
	default:
		return false
	}
}

func (s AssertionStatus) isTerminalSuccess() bool {
	switch s {
	case Verified, WcardVerified, VerifiedLink, TrustKey, TrustZone, LocalAnswer,
		ProvablyInsecure, DontValidate, BareRRSIG:
		return true
	default:
		return false
	}
}

// ResultStatus is the closed user-level status set, spec.md §7.
type ResultStatus uint8

const (
	Success ResultStatus = iota
	NonexistentName
	NonexistentNameOptOut
	NonexistentType
	ResultProvablyInsecure
	ResultLocalAnswer
	ResultBareRRSIG
	VerifiedChain
	IndeterminateDS
	IndeterminateProof
	BogusProof
	IncompleteProof
	BogusUnprovable
	BogusProvable
	ResultError
	ResultDNSError
)

func (s ResultStatus) String() string {
	names := map[ResultStatus]string{
		Success: "SUCCESS", NonexistentName: "NONEXISTENT_NAME",
		NonexistentNameOptOut: "NONEXISTENT_NAME_OPTOUT", NonexistentType: "NONEXISTENT_TYPE",
		ResultProvablyInsecure: "PROVABLY_INSECURE", ResultLocalAnswer: "LOCAL_ANSWER",
		ResultBareRRSIG: "BARE_RRSIG", VerifiedChain: "VERIFIED_CHAIN",
		IndeterminateDS: "INDETERMINATE_DS", IndeterminateProof: "INDETERMINATE_PROOF",
		BogusProof: "BOGUS_PROOF", IncompleteProof: "INCOMPLETE_PROOF",
		BogusUnprovable: "BOGUS_UNPROVABLE", BogusProvable: "BOGUS_PROVABLE",
		ResultError: "ERROR", ResultDNSError: "DNS_ERROR",
	}
	if n, ok := names[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsAuthentic implements the public is_authentic(status) predicate.
func IsAuthentic(s ResultStatus) bool {
	switch s {
	case Success, NonexistentName, NonexistentNameOptOut, NonexistentType:
		return true
	default:
		return false
	}
}

// IsTrusted implements the public is_trusted(status) predicate.
func IsTrusted(s ResultStatus) bool {
	return IsAuthentic(s) || s == ResultLocalAnswer || s == ResultProvablyInsecure
}

// DenialOfExistenceState classifies what a negative proof was attempting to show.
type DenialOfExistenceState uint8

const (
	NotFound DenialOfExistenceState = iota

	NsecMissingDS
	NsecNoData
	NsecNxDomain
	NsecWildcard

	Nsec3MissingDS
	Nsec3NoData
	Nsec3NxDomain
	Nsec3Wildcard
	Nsec3OptOut
)

// Flag is the closed set of resolve_and_check behavioural flags.
type Flag uint8

const (
	// DontValidateFlag short-circuits all validation; the result is returned
	// verbatim from cache/resolver with status LOCAL_ANSWER.
	DontValidateFlag Flag = 1 << iota
)

func (f Flag) has(flag Flag) bool {
	return f&flag != 0
}
