/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package tport

import (
	"fmt"
	"io"
	"time"

	httpcore "github.com/badu/httpnio"
	"github.com/badu/httpnio/hdr"
	"github.com/badu/httpnio/nio"
)

func discard(r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}

// Context returns the connection's shared attribute bag (spec §4.1,
// §6): the entries the Protocol Handler reads and writes
// (nio.ExchangeHandlerKey, nio.ExchangeStateKey).
func (c *Conn) Context() map[nio.ContextKey]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// SubmitRequest writes req's request line and headers to the
// connection's buffered writer and flushes them (spec §4.1
// submitRequest). Body bytes, if any, are written separately through
// the bodyEncoder handed to ProduceContent via NewBodyEncoder.
func (c *Conn) SubmitRequest(req nio.HttpRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw == nil || c.closed {
		return fmt.Errorf("tport: connection closed")
	}

	path := "/"
	if req.URL != nil {
		path = req.URL.RequestURI()
	}
	proto := req.Proto
	if proto == "" {
		proto = httpcore.HTTP1_1
	}
	if _, err := fmt.Fprintf(c.bw, "%s %s %s\r\n", req.Method, path, proto); err != nil {
		return err
	}

	h := req.Header
	if h == nil {
		h = make(hdr.Header)
	}
	c.chunkedRequest = false
	for _, te := range req.TransferEncoding {
		if te == httpcore.DoChunked {
			c.chunkedRequest = true
		}
	}
	if err := h.Write(c.bw); err != nil {
		return err
	}
	if _, err := c.bw.WriteString("\r\n"); err != nil {
		return err
	}
	return c.bw.Flush()
}

// NewBodyEncoder returns the nio.ContentEncoder for the request
// currently being submitted, framing writes as chunks if SubmitRequest
// saw a chunked Transfer-Encoding.
func (c *Conn) NewBodyEncoder() nio.ContentEncoder {
	c.mu.Lock()
	chunked := c.chunkedRequest
	c.mu.Unlock()
	return newBodyEncoder(c.bw, chunked)
}

// NewBodyDecoder returns the nio.ContentDecoder draining the current
// response's body, transparently decompressing per its
// Content-Encoding header.
func (c *Conn) NewBodyDecoder() (nio.ContentDecoder, error) {
	c.mu.Lock()
	resp := c.response
	c.mu.Unlock()
	if resp == nil || resp.Body == nil {
		return &bodyDecoder{r: httpcore.NoBody}, nil
	}
	return newBodyDecoder(resp.Body, resp.Header.Get(hdr.ContentEncoding))
}

// ReadResponseHead blocks until a full response head has been parsed
// off the connection's buffered reader, records it, and returns it.
// It is the connection-side half of "response received" wire parsing
// (spec §1's "delegated to the connection object"); the reactor loop
// calls it, then signals ResponseReceived to the Protocol Handler.
func (c *Conn) ReadResponseHead(req *httpcore.Request) (*httpcore.Response, error) {
	resp, err := httpcore.ReadResponse(c.br, req)
	if err != nil {
		return nil, transportReadFromServerError{err: err}
	}
	c.mu.Lock()
	c.response = resp
	c.mu.Unlock()
	return resp, nil
}

// GetHttpResponse returns the most recently parsed response head.
func (c *Conn) GetHttpResponse() nio.HttpResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.response
}

// GetStatus reports the connection's lifecycle state (spec §4.1).
func (c *Conn) GetStatus() nio.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// GetSocketTimeout returns the socket timeout currently in effect, in
// milliseconds.
func (c *Conn) GetSocketTimeout() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeoutMs
}

// SetSocketTimeout changes the connection's idle read timeout (spec
// §4.1, used by the 100-continue override and the grace-close
// timeout).
func (c *Conn) SetSocketTimeout(ms int) {
	c.mu.Lock()
	c.timeoutMs = ms
	raw := c.raw
	c.mu.Unlock()
	if raw == nil {
		return
	}
	if ms <= 0 {
		_ = raw.SetReadDeadline(time.Time{})
		return
	}
	_ = raw.SetReadDeadline(time.Now().Add(time.Duration(ms) * time.Millisecond))
}

// SuspendOutput marks output events suspended; the reactor consults
// this before raising the next OutputReady (spec §4.1).
func (c *Conn) SuspendOutput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputSuspended = true
	return nil
}

// RequestOutput clears a prior SuspendOutput.
func (c *Conn) RequestOutput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputSuspended = false
	return nil
}

// ResetOutput discards any pending outbound body framing state (spec
// §4.1): the next SubmitRequest starts fresh.
func (c *Conn) ResetOutput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunkedRequest = false
	return nil
}

// ResetInput discards the remaining inbound body by draining it
// (spec §4.1 resetInput).
func (c *Conn) ResetInput() error {
	c.mu.Lock()
	resp := c.response
	c.mu.Unlock()
	if resp == nil || resp.Body == nil {
		return nil
	}
	_, err := discard(resp.Body)
	return err
}

// SuspendInput and RequestInput complete the IOControl method set a
// Conn offers when passed as ioctrl to ConsumeContent/ProduceContent
// (spec §4.2).
func (c *Conn) SuspendInput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputSuspended = true
	return nil
}

func (c *Conn) RequestInput() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputSuspended = false
	return nil
}

// Shutdown tears the connection down immediately, whether or not a
// graceful Close half-close is already in progress (spec §4.3's
// "regardless" clause).
func (c *Conn) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}
