/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package trc

import "context"

// WithClientTrace returns a new context based on the provided parent
// ctx, with a client trace configured using the hooks in trace. Any
// previously configured trace hooks are composed with the new hooks:
// both will be called, with the hooks in trace called first.
func WithClientTrace(ctx context.Context, trace *ClientTrace) context.Context {
	if trace == nil {
		panic("nil trace")
	}
	old := ContextClientTrace(ctx)
	trace.compose(old)
	return context.WithValue(ctx, clientEventContextKey{}, trace)
}

// ContextClientTrace returns the ClientTrace associated with the
// provided context, or nil if none is associated.
func ContextClientTrace(ctx context.Context) *ClientTrace {
	trace, _ := ctx.Value(clientEventContextKey{}).(*ClientTrace)
	return trace
}
