/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package tport

import (
	"bufio"
	"net"

	"github.com/badu/httpnio/nio"
)

// NewConn wraps raw in a buffered Conn ready to be handed to a protocol
// handler.
func NewConn(raw net.Conn) *Conn {
	return &Conn{
		raw:       raw,
		br:        bufio.NewReader(raw),
		bw:        bufio.NewWriter(raw),
		ctx:       make(map[nio.ContextKey]interface{}),
		timeoutMs: 0,
		status:    nio.StatusActive,
	}
}

// closeWriter is implemented by *net.TCPConn and *tls.Conn: it lets
// Close half-close the write side instead of tearing the socket down
// immediately, so the peer can still finish writing a response we
// haven't read yet.
type closeWriter interface {
	CloseWrite() error
}

// Close begins a graceful close (spec §4.3 timeout's "regardless"
// clause): if the underlying connection supports a half-close, it
// closes the write side and reports StatusClosing until a later
// Shutdown forces the hard close; otherwise it closes outright. It is
// idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nio.StatusClosed || c.status == nio.StatusClosing {
		return nil
	}
	if cw, ok := c.raw.(closeWriter); ok {
		c.status = nio.StatusClosing
		return cw.CloseWrite()
	}
	return c.closeLocked()
}

// closeLocked tears the raw connection down and marks the Conn
// StatusClosed. Callers must hold c.mu.
func (c *Conn) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.status = nio.StatusClosed
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
