// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !gc || !go1.23 || go1.26 || !(amd64 || arm64)

package goid

const haveFast = false

func fastID() int64 {
	return slowID()
}
