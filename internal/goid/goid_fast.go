// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build gc && go1.23 && !go1.26 && (amd64 || arm64)

package goid

import "unsafe"

const haveFast = true

// getg returns the current goroutine's g pointer. Implemented in
// goid_amd64.s and goid_arm64.s.
//
//go:noescape
func getg() uintptr

// fastID reads the goid field of the current g.
//
//go:nosplit
//go:nocheckptr
func fastID() int64 {
	g := getg()
	if g == 0 {
		return slowID()
	}
	//nolint:gosec // G103: reads a field of the runtime's g struct
	return *(*int64)(unsafe.Pointer(g + goidOffset))
}
