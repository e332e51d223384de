/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package tport

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/bytebufferpool"
)

// bodyEncoder is the nio.ContentEncoder a Conn hands to
// ExchangeHandler.ProduceContent. When chunked is true it frames every
// Write as one RFC 7230 §4.1 chunk; otherwise bytes pass straight
// through, relying on the request's declared Content-Length.
type bodyEncoder struct {
	bw        *bufio.Writer
	chunked   bool
	completed bool
}

func newBodyEncoder(bw *bufio.Writer, chunked bool) *bodyEncoder {
	return &bodyEncoder{bw: bw, chunked: chunked}
}

func (e *bodyEncoder) Write(p []byte) (int, error) {
	if e.completed || len(p) == 0 {
		return 0, nil
	}
	if !e.chunked {
		n, err := e.bw.Write(p)
		if err == nil {
			err = e.bw.Flush()
		}
		return n, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "%x\r\n", len(p))
	buf.Write(p)
	buf.WriteString("\r\n")

	if _, err := e.bw.Write(buf.B); err != nil {
		return 0, err
	}
	return len(p), e.bw.Flush()
}

// Complete writes the terminating chunk, if chunked, and marks the
// encoder done. Safe to call more than once.
func (e *bodyEncoder) Complete() error {
	if e.completed {
		return nil
	}
	e.completed = true
	if !e.chunked {
		return nil
	}
	if _, err := e.bw.WriteString("0\r\n\r\n"); err != nil {
		return err
	}
	return e.bw.Flush()
}

func (e *bodyEncoder) IsCompleted() bool { return e.completed }

// bodyDecoder is the nio.ContentDecoder wrapping a parsed response's
// Body. readTransferResponse (utils_transfer.go) has already stripped
// chunk framing, so this only layers content-coding decompression on
// top, per Content-Encoding.
type bodyDecoder struct {
	r         io.Reader
	completed bool
}

// newBodyDecoder wraps body, transparently decompressing it according
// to contentEncoding ("gzip" or "br"); any other value (including
// "identity" or empty) passes bytes through unchanged.
func newBodyDecoder(body io.Reader, contentEncoding string) (*bodyDecoder, error) {
	r := body
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		gr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		r = gr
	case "br":
		r = brotli.NewReader(body)
	}
	return &bodyDecoder{r: r}, nil
}

func (d *bodyDecoder) Read(p []byte) (int, error) {
	if d.completed {
		return 0, io.EOF
	}
	n, err := d.r.Read(p)
	if err == io.EOF {
		d.completed = true
	}
	return n, err
}

func (d *bodyDecoder) IsCompleted() bool { return d.completed }
