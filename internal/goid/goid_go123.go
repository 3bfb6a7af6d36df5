// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build gc && go1.23 && !go1.25 && (amd64 || arm64)

package goid

// goidOffset is the offset of runtime.g.goid in Go 1.23 and 1.24, where
// gobuf has seven words (sp, pc, g, ctxt, ret, lr, bp):
//
//	stack           16    0
//	stackguard0/1   16    16
//	_panic, _defer  16    32
//	m               8     48
//	sched           56    56
//	syscallsp/pc/bp 24    112
//	stktopsp        8     136
//	param           8     144
//	atomicstatus    4     152
//	stackLock       4     156
//	goid            8     160
const goidOffset = 160
