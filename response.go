package resolver

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

// Response wraps a single nameserver exchange. IsEmpty, HasError, and
// Truncated are the canonical accessors used throughout the transport and
// engine layers.
type Response struct {
	Msg      *dns.Msg
	Err      error
	Duration time.Duration
}

func (r *Response) HasError() bool {
	return r == nil || r.Err != nil
}

func (r *Response) IsEmpty() bool {
	return r == nil || r.Msg == nil
}

func (r *Response) Truncated() bool {
	if r.IsEmpty() {
		return false
	}
	return r.Msg.Truncated
}

func ResponseError(err error) *Response {
	return &Response{Err: err}
}

//---

type exchanger interface {
	exchange(context.Context, *dns.Msg) *Response
}

type expiringExchanger interface {
	exchanger
	expired() bool
}
