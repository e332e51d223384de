/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"time"

	"github.com/hashicorp/go-hclog"

	httpcore "github.com/badu/httpnio"
	"github.com/badu/httpnio/trc"
)

// traceOf returns the ClientTrace attached to the handler's context, if
// any. A nil handler, context or trace all yield a nil *trc.ClientTrace,
// against which every call site in this file is a no-op field access.
func traceOf(st *ExchangeState) *trc.ClientTrace {
	if st.handler == nil {
		return nil
	}
	ctx := st.handler.GetContext()
	if ctx == nil {
		return nil
	}
	return trc.ContextClientTrace(ctx)
}

// ProtocolHandler is the single, stateless event dispatcher that
// drives an arbitrary number of request/response exchanges over one
// non-blocking connection (spec §1, §2). One ProtocolHandler may be
// shared across many connections; all per-connection mutable state
// lives in the ExchangeState the connection's context carries.
type ProtocolHandler struct {
	log hclog.Logger
	cfg Config
}

// NewProtocolHandler returns a ProtocolHandler using cfg's
// wait-for-continue window. A nil log discards diagnostics.
func NewProtocolHandler(log hclog.Logger, cfg Config) *ProtocolHandler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if cfg.WaitForContinue <= 0 {
		cfg.WaitForContinue = DefaultWaitForContinue
	}
	return &ProtocolHandler{log: log, cfg: cfg}
}

func stateOf(conn Connection) *ExchangeState {
	if st, ok := conn.Context()[ExchangeStateKey].(*ExchangeState); ok {
		return st
	}
	return nil
}

// Connected creates a fresh ExchangeState for conn and starts the
// first exchange (spec §4.3 "connected").
func (ph *ProtocolHandler) Connected(conn Connection) {
	st := NewExchangeState()
	conn.Context()[ExchangeStateKey] = st
	ph.RequestReady(conn)
}

// RequestReady drives the handler to generate and submit the next
// request head (spec §4.3 "requestReady").
func (ph *ProtocolHandler) RequestReady(conn Connection) {
	st := stateOf(conn)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.requestState != READY {
		return
	}

	if st.handler != nil && st.handler.IsDone() {
		ph.closeHandlerLocked(st)
		st.reset()
	}

	if st.handler == nil {
		ctxMap := conn.Context()
		h, ok := ctxMap[ExchangeHandlerKey].(ExchangeHandler)
		if !ok || h == nil {
			return
		}
		delete(ctxMap, ExchangeHandlerKey)
		st.handler = h
	}

	req, err := st.handler.GenerateRequest()
	if err != nil {
		ph.failLocked(conn, st, ProtocolError(err))
		return
	}
	if req == nil {
		// Handler has nothing to send yet; stay READY until the next
		// requestReady (e.g. after a caller re-signals output ready).
		return
	}
	st.request = req

	if err := conn.SubmitRequest(req); err != nil {
		ph.failLocked(conn, st, IOError(err))
		return
	}
	if t := traceOf(st); t != nil && t.WroteHeaders != nil {
		t.WroteHeaders()
	}

	hasEntity := req.OutgoingLength() != 0

	switch {
	case hasEntity && req.ExpectsContinue():
		st.savedTimeout = conn.GetSocketTimeout()
		conn.SetSocketTimeout(int(ph.cfg.WaitForContinue / time.Millisecond))
		st.requestState = AckExpected
		if t := traceOf(st); t != nil && t.Wait100Continue != nil {
			t.Wait100Continue()
		}
	case hasEntity:
		st.requestState = BodyStream
	default:
		st.handler.RequestCompleted(st.handler.GetContext())
		st.requestState = Completed
		if t := traceOf(st); t != nil && t.WroteRequest != nil {
			t.WroteRequest(trc.WroteRequestInfo{})
		}
	}
}

// OutputReady streams the next chunk of request body, or suspends
// output while waiting on a 100-continue decision (spec §4.3
// "outputReady").
func (ph *ProtocolHandler) OutputReady(conn Connection, encoder ContentEncoder) {
	st := stateOf(conn)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.requestState == AckExpected {
		if err := conn.SuspendOutput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
		}
		return
	}
	if st.handler == nil {
		ph.failLocked(conn, st, IllegalStateError("outputReady", st.requestState))
		return
	}

	if err := st.handler.ProduceContent(encoder, conn); err != nil {
		ph.failLocked(conn, st, ProtocolError(err))
		return
	}
	st.requestState = BodyStream

	if encoder.IsCompleted() {
		st.handler.RequestCompleted(st.handler.GetContext())
		st.requestState = Completed
		if t := traceOf(st); t != nil && t.WroteRequest != nil {
			t.WroteRequest(trc.WroteRequestInfo{})
		}
	}
}

// ResponseReceived processes a newly parsed response head, handling
// both intermediate (1xx) and final responses (spec §4.3
// "responseReceived").
func (ph *ProtocolHandler) ResponseReceived(conn Connection) {
	st := stateOf(conn)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	resp := conn.GetHttpResponse()
	if resp == nil {
		ph.failLocked(conn, st, IllegalStateError("responseReceived", st.responseState))
		return
	}
	status := resp.StatusCode

	if status < 200 {
		if status != 100 {
			ph.failLocked(conn, st, ProtocolError(errUnexpectedIntermediate(status)))
			return
		}
		if st.requestState == AckExpected {
			conn.SetSocketTimeout(st.savedTimeout)
			if err := conn.RequestOutput(); err != nil {
				ph.failLocked(conn, st, IOError(err))
				return
			}
			st.requestState = Ack
			if t := traceOf(st); t != nil && t.Got100Continue != nil {
				t.Got100Continue()
			}
			return
		}
		// A spurious 100 outside ACK_EXPECTED is ignored (spec §9 open
		// question): no state change, only a debug-level log line.
		ph.log.Debug("ignoring spurious 100 Continue", "requestState", st.requestState.String())
		return
	}

	// Final response.
	st.response = resp
	if t := traceOf(st); t != nil && t.GotFirstResponseByte != nil {
		t.GotFirstResponseByte()
	}
	switch st.requestState {
	case AckExpected:
		conn.SetSocketTimeout(st.savedTimeout)
		if err := conn.ResetOutput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
			return
		}
		st.requestState = Completed
	case BodyStream:
		// Early response: the server answered before we finished
		// writing the request body. The connection can no longer be
		// reused once this exchange ends.
		if err := conn.ResetOutput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
			return
		}
		if err := conn.SuspendOutput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
			return
		}
		st.valid = false
		st.requestState = Completed
	}

	if st.handler == nil {
		ph.failLocked(conn, st, IllegalStateError("responseReceived", st.responseState))
		return
	}
	if err := st.handler.ResponseReceived(resp); err != nil {
		ph.failLocked(conn, st, ProtocolError(err))
		return
	}
	st.responseState = BodyStream

	method := httpcore.GET
	if st.request != nil {
		method = st.request.Method
	}
	if !ResponseHasBody(method, status) {
		if err := conn.ResetInput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
			return
		}
		ph.processResponseLocked(conn, st)
	}
}

// InputReady drains the next chunk of response body (spec §4.3
// "inputReady").
func (ph *ProtocolHandler) InputReady(conn Connection, decoder ContentDecoder) {
	st := stateOf(conn)
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.handler == nil {
		ph.failLocked(conn, st, IllegalStateError("inputReady", st.responseState))
		return
	}

	if err := st.handler.ConsumeContent(decoder, conn); err != nil {
		ph.failLocked(conn, st, ProtocolError(err))
		return
	}
	st.responseState = BodyStream

	if decoder.IsCompleted() {
		ph.processResponseLocked(conn, st)
	}
}

// Timeout handles either the 100-continue window elapsing (resume
// sending the body) or a genuine idle/IO timeout (fail the exchange)
// (spec §4.3 "timeout").
func (ph *ProtocolHandler) Timeout(conn Connection) {
	st := stateOf(conn)
	if st == nil {
		ph.closeGracefully(conn)
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.requestState == AckExpected {
		conn.SetSocketTimeout(st.savedTimeout)
		if err := conn.RequestOutput(); err != nil {
			ph.failLocked(conn, st, IOError(err))
			return
		}
		st.requestState = BodyStream
		return
	}

	if st.handler != nil {
		st.handler.Failed(SocketTimeout(errIdleTimeout))
		ph.closeHandlerLocked(st)
	}
	st.reset()
	ph.closeGracefully(conn)
}

// closeGracefully implements the close half of timeout's "regardless"
// clause: the first call against an ACTIVE connection starts a
// graceful close and, if the connection then reports CLOSING, arms a
// 250ms grace window; a later call that
// still finds the connection CLOSING means the peer never finished
// draining within that window, so it forces an immediate shutdown.
func (ph *ProtocolHandler) closeGracefully(conn Connection) {
	switch conn.GetStatus() {
	case StatusActive:
		if err := conn.Close(); err != nil {
			ph.log.Debug("close failed after timeout", "error", err)
		}
		if conn.GetStatus() == StatusClosing {
			conn.SetSocketTimeout(int(GraceCloseTimeout / time.Millisecond))
		}
	case StatusClosing:
		if err := conn.Shutdown(); err != nil {
			ph.log.Debug("shutdown failed after grace window", "error", err)
		}
	}
}

// Exception hard-shuts-down the connection and fails any in-flight
// exchange (spec §4.3 "exception").
func (ph *ProtocolHandler) Exception(conn Connection, cause error) {
	st := stateOf(conn)
	if st == nil {
		if err := conn.Shutdown(); err != nil {
			ph.log.Debug("shutdown failed handling exception with no state", "error", err)
		}
		ph.log.Debug("exception with no exchange state", "cause", cause)
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	ph.failLocked(conn, st, IOError(cause))
}

// Closed releases the handler, if any, and discards the exchange
// state (spec §4.3 "closed").
func (ph *ProtocolHandler) Closed(conn Connection) {
	st := stateOf(conn)
	if st == nil {
		return
	}
	st.mu.Lock()
	ph.closeHandlerLocked(st)
	st.reset()
	st.mu.Unlock()
	delete(conn.Context(), ExchangeStateKey)
}

// processResponseLocked finalizes a completed exchange: decides
// connection reuse, notifies the handler, and resets state for the
// next exchange (spec §4.5). Callers must hold st.mu.
func (ph *ProtocolHandler) processResponseLocked(conn Connection, st *ExchangeState) {
	successfulConnect := st.request != nil && st.request.Method == httpcore.CONNECT &&
		st.response != nil && st.response.StatusCode < 300

	switch {
	case !st.valid:
		if err := conn.Close(); err != nil {
			ph.log.Debug("close failed finalizing invalid exchange", "error", err)
		}
	case successfulConnect:
		// Tunnel handed off; leave the connection open untouched.
	default:
		strategy := ConnectionReuseStrategy(DefaultConnectionReuseStrategy{})
		var ctx HttpContext
		if st.handler != nil {
			if s := st.handler.GetConnectionReuseStrategy(); s != nil {
				strategy = s
			}
			ctx = st.handler.GetContext()
		}
		if !strategy.KeepAlive(st.response, ctx) {
			if err := conn.Close(); err != nil {
				ph.log.Debug("close failed after reuse-strategy decision", "error", err)
			}
		}
	}

	if st.handler != nil {
		st.handler.ResponseCompleted(st.handler.GetContext())
	}
	st.reset()
}

// failLocked runs the uniform fatal-error path (spec §4.3's
// "unless noted" clause, §7 propagation policy): shut the connection
// down, notify and release the handler exactly once, and reset state.
// Callers must hold st.mu.
func (ph *ProtocolHandler) failLocked(conn Connection, st *ExchangeState, cause error) {
	if err := conn.Shutdown(); err != nil {
		ph.log.Debug("shutdown failed on fatal exchange error", "error", err)
	}
	if st.handler != nil {
		st.handler.Failed(cause)
		ph.closeHandlerLocked(st)
	}
	st.reset()
}

// closeHandlerLocked releases the handler's resources, tolerating an
// error the way "swallowed to the log sink" (spec §7) describes.
// Callers must hold st.mu.
func (ph *ProtocolHandler) closeHandlerLocked(st *ExchangeState) {
	if st.handler == nil {
		return
	}
	if err := st.handler.Close(); err != nil {
		ph.log.Debug("handler close failed", "error", err)
	}
}
