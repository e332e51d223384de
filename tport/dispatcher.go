/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package tport

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/badu/httpnio/nio"
)

// Dispatcher bounds the number of connections a process drives
// concurrently through a single ProtocolHandler. This lives outside
// the single-connection core (spec §1 excludes connection pooling
// from the core itself) but every real caller needs some cap on
// concurrent exchange handlers in flight.
type Dispatcher struct {
	handler *nio.ProtocolHandler
	sem     *semaphore.Weighted
}

// NewDispatcher returns a Dispatcher that runs at most maxConcurrent
// connections' worth of work through handler at once.
func NewDispatcher(handler *nio.ProtocolHandler, maxConcurrent int64) *Dispatcher {
	return &Dispatcher{handler: handler, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Run blocks until a slot is free, then invokes fn with the
// dispatcher's ProtocolHandler. It returns ctx.Err() without running
// fn if ctx is cancelled first.
func (d *Dispatcher) Run(ctx context.Context, fn func(*nio.ProtocolHandler)) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer d.sem.Release(1)
	fn(d.handler)
	return nil
}
