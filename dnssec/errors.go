package dnssec

import "errors"

var (
	ErrKindMixingViolation = errors.New("response mixes rrset kinds outside a permitted combination")
)
