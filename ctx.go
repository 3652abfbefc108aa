package resolver

type CtxKey uint8

const (
	ctxZoneName CtxKey = iota
	// CtxTrace keys the *Trace attached to a resolve_and_check call's context.
	CtxTrace
)
