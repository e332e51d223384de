/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"io"
	"strings"
	"testing"
	"time"

	httpcore "github.com/badu/httpnio"
	"github.com/badu/httpnio/hdr"
)

func bodyOf(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

// fakeConn is a minimal Connection stub a test drives by hand,
// recording every control operation the Protocol Handler issues.
type fakeConn struct {
	ctx map[ContextKey]interface{}

	submitted []HttpRequest
	resp      HttpResponse
	status    ConnStatus
	timeoutMs int

	suspendOutputN int
	requestOutputN int
	resetOutputN   int
	resetInputN    int
	closeN         int
	shutdownN      int
}

func newFakeConn() *fakeConn {
	return &fakeConn{ctx: make(map[ContextKey]interface{}), status: StatusActive, timeoutMs: 30000}
}

func (c *fakeConn) Context() map[ContextKey]interface{} { return c.ctx }
func (c *fakeConn) SubmitRequest(req HttpRequest) error {
	c.submitted = append(c.submitted, req)
	return nil
}
func (c *fakeConn) SuspendOutput() error { c.suspendOutputN++; return nil }
func (c *fakeConn) RequestOutput() error { c.requestOutputN++; return nil }
func (c *fakeConn) ResetOutput() error   { c.resetOutputN++; return nil }
func (c *fakeConn) ResetInput() error    { c.resetInputN++; return nil }
func (c *fakeConn) SuspendInput() error  { return nil }
func (c *fakeConn) RequestInput() error  { return nil }
func (c *fakeConn) GetSocketTimeout() int { return c.timeoutMs }
func (c *fakeConn) SetSocketTimeout(ms int) { c.timeoutMs = ms }
func (c *fakeConn) GetHttpResponse() HttpResponse { return c.resp }
func (c *fakeConn) GetStatus() ConnStatus { return c.status }
// Close mirrors tport.Conn's half-close: the first call against an
// ACTIVE connection only moves it to StatusClosing, leaving the
// drained-or-forced transition to Shutdown.
func (c *fakeConn) Close() error {
	c.closeN++
	if c.status == StatusActive {
		c.status = StatusClosing
	}
	return nil
}
func (c *fakeConn) Shutdown() error { c.shutdownN++; c.status = StatusClosed; return nil }

// fakeEncoder/fakeDecoder are ContentEncoder/ContentDecoder stubs a
// test marks complete explicitly, mirroring how a real connection's
// streaming primitives report completion.
type fakeEncoder struct{ done bool }

func (e *fakeEncoder) Write(p []byte) (int, error) { return len(p), nil }
func (e *fakeEncoder) Complete() error              { e.done = true; return nil }
func (e *fakeEncoder) IsCompleted() bool            { return e.done }

type fakeDecoder struct{ done bool }

func (d *fakeDecoder) Read(p []byte) (int, error) { return 0, nil }
func (d *fakeDecoder) IsCompleted() bool          { return d.done }

// fakeHandler is an ExchangeHandler recording callback order so tests
// can assert the sequence spec §5/§8 require.
type fakeHandler struct {
	calls []string
	req   HttpRequest
	done  bool
	strat ConnectionReuseStrategy
}

func (h *fakeHandler) GenerateRequest() (HttpRequest, error) {
	h.calls = append(h.calls, "generateRequest")
	req := h.req
	h.req = nil
	return req, nil
}
func (h *fakeHandler) ProduceContent(encoder ContentEncoder, _ IOControl) error {
	h.calls = append(h.calls, "produceContent")
	_, _ = encoder.Write([]byte("x"))
	return nil
}
func (h *fakeHandler) RequestCompleted(HttpContext) { h.calls = append(h.calls, "requestCompleted") }
func (h *fakeHandler) ResponseReceived(HttpResponse) error {
	h.calls = append(h.calls, "responseReceived")
	return nil
}
func (h *fakeHandler) ConsumeContent(ContentDecoder, IOControl) error {
	h.calls = append(h.calls, "consumeContent")
	return nil
}
func (h *fakeHandler) ResponseCompleted(HttpContext) { h.calls = append(h.calls, "responseCompleted") }
func (h *fakeHandler) IsDone() bool                  { return h.done }
func (h *fakeHandler) Failed(error)                  { h.calls = append(h.calls, "failed") }
func (h *fakeHandler) Close() error                  { h.calls = append(h.calls, "close"); return nil }
func (h *fakeHandler) GetContext() HttpContext       { return nil }
func (h *fakeHandler) GetConnectionReuseStrategy() ConnectionReuseStrategy { return h.strat }

type alwaysKeepAlive struct{ keep bool }

func (a alwaysKeepAlive) KeepAlive(HttpResponse, HttpContext) bool { return a.keep }

func attachHandler(conn *fakeConn, h ExchangeHandler) {
	conn.Context()[ExchangeHandlerKey] = h
}

func newTestHandlerConfig() Config { return Config{WaitForContinue: DefaultWaitForContinue} }

// 1. Simple GET, keep-alive.
func TestProtocolHandler_SimpleGetKeepAlive(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.GET}, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)

	if len(conn.submitted) != 1 {
		t.Fatalf("expected 1 submitted request, got %d", len(conn.submitted))
	}
	st := stateOf(conn)
	if st.RequestState() != Completed {
		t.Fatalf("requestState = %v, want Completed", st.RequestState())
	}
	if h.calls[len(h.calls)-1] != "requestCompleted" {
		t.Fatalf("expected requestCompleted before submitRequest-path ends, got %v", h.calls)
	}

	conn.resp = &httpcore.Response{StatusCode: 200, Header: hdr.Header{}, ContentLength: 5}
	ph.ResponseReceived(conn)
	if st.ResponseState() != BodyStream {
		t.Fatalf("responseState = %v, want BodyStream", st.ResponseState())
	}

	dec := &fakeDecoder{}
	ph.InputReady(conn, dec)
	dec.done = true
	ph.InputReady(conn, dec)

	want := []string{"generateRequest", "requestCompleted", "responseReceived", "consumeContent", "consumeContent", "responseCompleted"}
	if !equalStrings(h.calls, want) {
		t.Fatalf("calls = %v, want %v", h.calls, want)
	}
	if conn.closeN != 0 {
		t.Fatalf("connection should not be closed, closeN=%d", conn.closeN)
	}
	if st.RequestState() != READY || st.ResponseState() != READY {
		t.Fatalf("state not reset: %v / %v", st.RequestState(), st.ResponseState())
	}
}

// 2. POST with 100-continue accepted.
func TestProtocolHandler_HundredContinueAccepted(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	conn.timeoutMs = 30000
	req := &httpcore.Request{Method: httpcore.POST, ContentLength: 10, Body: bodyOf("0123456789"), Header: hdr.Header{hdr.Expect: []string{"100-continue"}}}
	h := &fakeHandler{req: req, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)

	st := stateOf(conn)
	if st.RequestState() != AckExpected {
		t.Fatalf("requestState = %v, want AckExpected", st.RequestState())
	}
	if conn.timeoutMs != int(DefaultWaitForContinue.Milliseconds()) {
		t.Fatalf("socket timeout not overridden: %d", conn.timeoutMs)
	}

	enc := &fakeEncoder{}
	ph.OutputReady(conn, enc)
	if conn.suspendOutputN != 1 {
		t.Fatalf("expected suspendOutput, got %d calls", conn.suspendOutputN)
	}
	if len(h.calls) != 1 {
		t.Fatalf("produceContent must not run yet: %v", h.calls)
	}

	conn.resp = &httpcore.Response{StatusCode: 100}
	ph.ResponseReceived(conn)
	if conn.timeoutMs != 30000 {
		t.Fatalf("saved timeout not restored: %d", conn.timeoutMs)
	}
	if st.RequestState() != Ack {
		t.Fatalf("requestState = %v, want Ack", st.RequestState())
	}

	ph.OutputReady(conn, enc)
	enc.done = true
	ph.OutputReady(conn, enc)
	if st.RequestState() != Completed {
		t.Fatalf("requestState = %v, want Completed", st.RequestState())
	}

	conn.resp = &httpcore.Response{StatusCode: 200, Header: hdr.Header{}}
	ph.ResponseReceived(conn)

	for _, c := range h.calls {
		if c == "failed" {
			t.Fatalf("handler.Failed must not be called: %v", h.calls)
		}
	}
}

// 3. POST with 100-continue timeout: no failure, body sent anyway.
func TestProtocolHandler_HundredContinueTimeout(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	conn.timeoutMs = 30000
	req := &httpcore.Request{Method: httpcore.POST, ContentLength: 10, Body: bodyOf("0123456789"), Header: hdr.Header{hdr.Expect: []string{"100-continue"}}}
	h := &fakeHandler{req: req, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	st := stateOf(conn)

	ph.Timeout(conn)
	if conn.timeoutMs != 30000 {
		t.Fatalf("saved timeout not restored after 100-continue timeout: %d", conn.timeoutMs)
	}
	if st.RequestState() != BodyStream {
		t.Fatalf("requestState = %v, want BodyStream", st.RequestState())
	}
	if conn.closeN != 0 || conn.shutdownN != 0 {
		t.Fatalf("connection must stay open: close=%d shutdown=%d", conn.closeN, conn.shutdownN)
	}
	for _, c := range h.calls {
		if c == "failed" {
			t.Fatalf("handler.Failed must not be called on 100-continue timeout: %v", h.calls)
		}
	}
}

// 4. Early response during body invalidates the connection.
func TestProtocolHandler_EarlyResponseInvalidatesConnection(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	req := &httpcore.Request{Method: httpcore.POST, ContentLength: 10, Body: bodyOf("0123456789")}
	h := &fakeHandler{req: req, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	st := stateOf(conn)
	if st.RequestState() != BodyStream {
		t.Fatalf("requestState = %v, want BodyStream", st.RequestState())
	}

	conn.resp = &httpcore.Response{StatusCode: 413, Header: hdr.Header{}}
	ph.ResponseReceived(conn)

	if st.Valid() {
		t.Fatal("state must be invalidated by an early response")
	}
	if st.RequestState() != Completed {
		t.Fatalf("requestState = %v, want Completed", st.RequestState())
	}
	if conn.resetOutputN == 0 || conn.suspendOutputN == 0 {
		t.Fatalf("expected resetOutput and suspendOutput, got %d/%d", conn.resetOutputN, conn.suspendOutputN)
	}

	dec := &fakeDecoder{done: true}
	ph.InputReady(conn, dec)
	if conn.closeN != 1 {
		t.Fatalf("connection must be closed regardless of reuse policy, closeN=%d", conn.closeN)
	}
}

// 5. HEAD response with content-length skips consumeContent entirely.
func TestProtocolHandler_HeadResponseSkipsBody(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.HEAD}, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	conn.resp = &httpcore.Response{StatusCode: 200, Header: hdr.Header{}, ContentLength: 123}
	ph.ResponseReceived(conn)

	if conn.resetInputN != 1 {
		t.Fatalf("expected resetInput, got %d", conn.resetInputN)
	}
	for _, c := range h.calls {
		if c == "consumeContent" {
			t.Fatal("consumeContent must not be invoked for a HEAD response")
		}
	}
	if h.calls[len(h.calls)-1] != "responseCompleted" {
		t.Fatalf("expected processResponse to run immediately, calls=%v", h.calls)
	}
}

// 6. Successful CONNECT tunnel: reuse strategy is skipped, connection
// stays open.
func TestProtocolHandler_SuccessfulConnectTunnel(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.CONNECT}, strat: alwaysKeepAlive{keep: false}}
	attachHandler(conn, h)

	ph.Connected(conn)
	conn.resp = &httpcore.Response{StatusCode: 200, Header: hdr.Header{}}
	ph.ResponseReceived(conn)

	if conn.closeN != 0 {
		t.Fatalf("tunnel must not be closed even though reuse strategy returns false, closeN=%d", conn.closeN)
	}
	if h.calls[len(h.calls)-1] != "responseCompleted" {
		t.Fatalf("expected responseCompleted, calls=%v", h.calls)
	}
}

// 7. Idle timeout outside ACK_EXPECTED fails the handler and closes.
func TestProtocolHandler_IdleTimeout(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.GET}, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	ph.Timeout(conn)

	foundFailed, foundClose := false, false
	for _, c := range h.calls {
		if c == "failed" {
			foundFailed = true
		}
		if c == "close" {
			foundClose = true
		}
	}
	if !foundFailed || !foundClose {
		t.Fatalf("expected failed+close on idle timeout, calls=%v", h.calls)
	}
	if conn.closeN == 0 && conn.shutdownN == 0 {
		t.Fatal("expected the connection to be closed or shut down")
	}
}

// Idle timeout against a connection that supports a half-close opens
// the 250ms grace window instead of shutting down immediately; a
// second timeout before the peer drains forces the hard shutdown.
func TestProtocolHandler_GraceCloseWindow(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.GET}, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	ph.Timeout(conn)

	if conn.status != StatusClosing {
		t.Fatalf("expected first timeout to leave the connection CLOSING, got %v", conn.status)
	}
	if conn.shutdownN != 0 {
		t.Fatalf("expected no shutdown while the grace window is open, shutdownN=%d", conn.shutdownN)
	}
	if conn.timeoutMs != int(GraceCloseTimeout/time.Millisecond) {
		t.Fatalf("expected the grace-close timeout to be armed, timeoutMs=%d", conn.timeoutMs)
	}

	ph.Timeout(conn)

	if conn.status != StatusClosed {
		t.Fatalf("expected the grace window elapsing to force a hard shutdown, got %v", conn.status)
	}
	if conn.shutdownN == 0 {
		t.Fatal("expected Shutdown to be called once the grace window elapsed")
	}
}

// 8. Unexpected 1xx raises a protocol error.
func TestProtocolHandler_UnexpectedIntermediateResponse(t *testing.T) {
	ph := NewProtocolHandler(nil, newTestHandlerConfig())
	conn := newFakeConn()
	h := &fakeHandler{req: &httpcore.Request{Method: httpcore.GET}, strat: alwaysKeepAlive{keep: true}}
	attachHandler(conn, h)

	ph.Connected(conn)
	conn.resp = &httpcore.Response{StatusCode: 199}
	ph.ResponseReceived(conn)

	if conn.shutdownN == 0 {
		t.Fatal("unexpected intermediate response must hard-shutdown the connection")
	}
	found := false
	for _, c := range h.calls {
		if c == "failed" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected handler.Failed for an unexpected intermediate response")
	}
}

func TestExchangeState_ResetPostconditions(t *testing.T) {
	st := NewExchangeState()
	st.mu.Lock()
	st.handler = &fakeHandler{}
	st.requestState = BodyStream
	st.responseState = BodyStream
	st.valid = false
	st.reset()
	st.mu.Unlock()

	if st.Handler() != nil {
		t.Fatal("reset must clear the handler")
	}
	if st.RequestState() != READY || st.ResponseState() != READY {
		t.Fatal("reset must return both sides to READY")
	}
	if st.Valid() {
		t.Fatal("reset must not restore valid")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
