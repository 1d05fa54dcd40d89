// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/embedbag/internal/backend/cpu"
	"github.com/born-ml/embedbag/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/embedbag/backend/cpu"
//	    "github.com/born-ml/embedbag/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    table := tensor.Randn[float32](tensor.Shape{10, 4}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
