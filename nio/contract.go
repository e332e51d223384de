/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"context"

	httpcore "github.com/badu/httpnio"
)

type (
	// HttpRequest is the request head type the handler and connection
	// exchange; it is the retained package's Request, reused rather than
	// redeclared since request construction is explicitly delegated to
	// the Exchange Handler (spec §1 "out of scope").
	HttpRequest = *httpcore.Request

	// HttpResponse is the response head type; see HttpRequest.
	HttpResponse = *httpcore.Response

	// HttpContext is the per-exchange context shared with user code
	// (spec §4.2 getContext).
	HttpContext = context.Context
)

// ConnStatus is one of the three lifecycle states a Connection reports
// through GetStatus (spec §4.1).
type ConnStatus int

const (
	StatusActive ConnStatus = iota
	StatusClosing
	StatusClosed
)

// ContextKey is the type of the two well-known connection-context keys
// named in spec §6.
type ContextKey string

const (
	// ExchangeHandlerKey is where a caller places the next Exchange
	// Handler before triggering output readiness (spec §6).
	ExchangeHandlerKey ContextKey = "http.nio.exchange-handler"

	// ExchangeStateKey is the core's own per-connection state entry
	// (spec §6); callers must not touch it.
	ExchangeStateKey ContextKey = "http.nio.http-exchange-state"
)

// WaitForContinueParam names the configuration parameter (spec §6)
// that overrides the default 100-continue wait.
const WaitForContinueParam = "http.protocol.wait-for-continue"

// ContentEncoder is the non-blocking streaming primitive a handler
// writes a request body chunk into (spec §4.2 produceContent, §GLOSSARY).
type ContentEncoder interface {
	// Write streams p to the connection's output buffer, returning the
	// number of bytes accepted; it never blocks.
	Write(p []byte) (int, error)
	// Complete marks the body as fully written. Must be called exactly
	// once by the handler when it has no more content to produce.
	Complete() error
	// IsCompleted reports whether Complete has been called.
	IsCompleted() bool
}

// ContentDecoder is the non-blocking streaming primitive a handler
// reads a response body chunk from (spec §4.2 consumeContent).
type ContentDecoder interface {
	// Read drains available response body bytes into p, returning the
	// number of bytes read; it never blocks.
	Read(p []byte) (int, error)
	// IsCompleted reports whether the response body has been fully
	// delivered (EOF observed by the connection).
	IsCompleted() bool
}

// IOControl lets a handler ask the connection for additional output
// or to suspend/resume output/input independent of the Protocol
// Handler's own calls (used by produceContent/consumeContent per spec
// §4.2's "encoder, ioctrl" / "decoder, ioctrl" signatures).
type IOControl interface {
	SuspendOutput() error
	RequestOutput() error
	SuspendInput() error
	RequestInput() error
}

// ConnectionReuseStrategy decides, given a completed response and
// context, whether the underlying connection may serve another
// exchange (spec §4.2, §4.5, GLOSSARY "Reuse strategy").
type ConnectionReuseStrategy interface {
	KeepAlive(resp HttpResponse, ctx HttpContext) bool
}

// ExchangeHandler is the capability set a caller implements to drive
// one or more exchanges on a connection (spec §4.2).
type ExchangeHandler interface {
	// GenerateRequest produces the next request head, or nil to defer.
	GenerateRequest() (HttpRequest, error)
	// ProduceContent writes the next chunk of request body to encoder.
	// It must call encoder.Complete() exactly once when done.
	ProduceContent(encoder ContentEncoder, ioctrl IOControl) error
	// RequestCompleted is signalled once the request (head + body) is
	// fully written.
	RequestCompleted(ctx HttpContext)
	// ResponseReceived is called once with the final (>=200) response
	// head.
	ResponseReceived(resp HttpResponse) error
	// ConsumeContent reads the next chunk of response body from decoder.
	ConsumeContent(decoder ContentDecoder, ioctrl IOControl) error
	// ResponseCompleted is signalled when the response body has been
	// fully consumed.
	ResponseCompleted(ctx HttpContext)
	// IsDone reports true when the handler has no further exchanges to
	// drive on this connection.
	IsDone() bool
	// Failed is called once if the exchange aborts; always followed by
	// Close.
	Failed(cause error)
	// Close releases handler-owned resources. Implementations must make
	// it safe to call more than once.
	Close() error
	// GetContext returns the per-exchange context shared with user
	// code.
	GetContext() HttpContext
	// GetConnectionReuseStrategy returns the policy object that decides
	// whether the connection may serve another exchange.
	GetConnectionReuseStrategy() ConnectionReuseStrategy
}

// Connection is the capability set a non-blocking connection provides
// to the Protocol Handler (spec §4.1).
type Connection interface {
	// Context returns the connection's shared, opaque attribute bag.
	Context() map[ContextKey]interface{}

	SubmitRequest(req HttpRequest) error
	SuspendOutput() error
	RequestOutput() error
	ResetOutput() error
	ResetInput() error

	// SuspendInput and RequestInput complete the IOControl method set
	// (spec §4.2's "decoder, ioctrl") so a Connection can be passed
	// directly as the ioctrl argument to consumeContent/produceContent
	// without a separate adapter.
	SuspendInput() error
	RequestInput() error

	GetSocketTimeout() int
	SetSocketTimeout(ms int)

	GetHttpResponse() HttpResponse
	GetStatus() ConnStatus

	Close() error
	Shutdown() error
}
