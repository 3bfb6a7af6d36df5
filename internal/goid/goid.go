// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goid reports the identity of the calling goroutine.
//
// Goroutine ids are the "thread identity" of this module: RecursiveMutex
// records the id of its owner and compares it against the caller on every
// reentrant Lock and on Unlock.
//
// On amd64 and arm64 with the gc toolchain the id is read straight from
// the runtime's g struct at a per-Go-version offset. The offset is
// checked against the slow path once at start-up; if they disagree, or on
// any other platform, the id is extracted by parsing the first line of
// runtime.Stack output:
//
//	goroutine 123 [running]:
//
// The slow path works on every Go version and architecture but costs
// roughly a microsecond per call.
package goid

import "runtime"

// ID is a goroutine identifier. Zero is never a valid id and is used to
// mean "no goroutine".
type ID int64

// useFast is set when fastID agrees with the stack-parsed id.
var useFast = haveFast && verifyFast()

// Current returns the id of the calling goroutine.
func Current() ID {
	if useFast {
		return ID(fastID())
	}
	return ID(slowID())
}

// verifyFast compares both paths on the initializing goroutine and on a
// fresh one.
func verifyFast() bool {
	if fastID() != slowID() {
		return false
	}
	same := make(chan bool)
	go func() { same <- fastID() == slowID() }()
	return <-same
}

func slowID() int64 {
	// 64 bytes is plenty for "goroutine 18446744073709551615 [".
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the goroutine id from stack trace bytes.
//
// Returns 0 if buf does not start with "goroutine ".
func parse(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
