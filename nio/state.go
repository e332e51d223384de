/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package nio implements a non-blocking HTTP/1.x client protocol
// handler: a single, stateless event dispatcher driving an arbitrary
// number of request/response exchanges over one connection, handed
// events by a reactor and forwarding request/response content to a
// caller-supplied ExchangeHandler.
package nio

import "sync"

// MessageState is the phase a request or response side of an exchange
// is in. The request and response sides of an ExchangeState each carry
// their own MessageState, advanced independently.
type MessageState int

const (
	// READY means no message in flight on this side.
	READY MessageState = iota
	// AckExpected means the request head was submitted with
	// Expect: 100-continue and the handler is waiting for either a 100
	// response or a final response; output is suspended.
	AckExpected
	// Ack means 100-continue was received; output is re-enabled and
	// body streaming is imminent.
	Ack
	// BodyStream means body bytes are being written (request side) or
	// read (response side).
	BodyStream
	// Completed means this side of the exchange has finished and is
	// awaiting the other side, or a reset.
	Completed
)

func (s MessageState) String() string {
	switch s {
	case READY:
		return "READY"
	case AckExpected:
		return "ACK_EXPECTED"
	case Ack:
		return "ACK"
	case BodyStream:
		return "BODY_STREAM"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ExchangeState is the per-connection mutable record the Protocol
// Handler owns for the lifetime of a connection. It is created exactly
// once, on connected, and discarded on closed.
type ExchangeState struct {
	// mu serializes every mutation of this state, every handler
	// invocation, and every connection control operation issued while
	// processing an event for this connection (spec §5).
	mu sync.Mutex

	handler ExchangeHandler

	requestState  MessageState
	responseState MessageState

	request  HttpRequest
	response HttpResponse

	// savedTimeout is the socket timeout in effect before the
	// 100-continue override; restored on every exit from AckExpected.
	savedTimeout int

	// valid is true until an early final response arrives mid-body; it
	// only ever transitions true -> false (spec §3 invariant 5/6 and
	// §8 "valid transitions only from true to false").
	valid bool
}

// NewExchangeState returns a freshly reset ExchangeState, as created by
// the connected event.
func NewExchangeState() *ExchangeState {
	return &ExchangeState{valid: true}
}

// reset prepares the state for the next exchange: READY on both sides,
// no handler, no stored heads. valid is left as it is: once an early
// response has cleared it, it stays false for the rest of the
// connection. Callers must hold st.mu.
func (st *ExchangeState) reset() {
	st.handler = nil
	st.requestState = READY
	st.responseState = READY
	st.request = nil
	st.response = nil
}

// Valid reports whether the connection remains eligible for reuse
// consideration. It acquires st.mu.
func (st *ExchangeState) Valid() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.valid
}

// RequestState returns the current request-side MessageState.
func (st *ExchangeState) RequestState() MessageState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.requestState
}

// ResponseState returns the current response-side MessageState.
func (st *ExchangeState) ResponseState() MessageState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.responseState
}

// Handler returns the currently attached ExchangeHandler, or nil.
func (st *ExchangeState) Handler() ExchangeHandler {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.handler
}
