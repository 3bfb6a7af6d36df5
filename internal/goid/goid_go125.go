// Copyright 2025 The parksync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build gc && go1.25 && !go1.26 && (amd64 || arm64)

package goid

// goidOffset is the offset of runtime.g.goid in Go 1.25. gobuf lost its
// ret word, moving every later field down by 8 bytes.
const goidOffset = 152
