// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides embedding layers, their options and functional forms.
//
// # Overview
//
// This package contains:
//   - Options: EmbeddingOptions, EmbeddingBagOptions with cross-field validation
//   - Layers: Embedding, EmbeddingBag (plus FromPretrained constructors)
//   - Functional: EmbeddingLookup, EmbeddingBagLookup
//   - Utilities: Module interface, Parameter, Randn, Zeros
//   - Errors: ErrConstruction, ErrConfigConflict, ErrInvalidInput, OptionError
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/embedbag/nn"
//	    "github.com/born-ml/embedbag/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    opts, err := nn.NewEmbeddingBagOptions[*cpu.Backend](10000, 64)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    opts.WithMode(nn.ModeSum).WithSparse(true)
//
//	    bag, err := nn.NewEmbeddingBag(opts, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    out, err := bag.Forward(indices, offsets, nil)
//	}
//
// # Validation
//
// Setters never fail. Cross-field rules are checked by Validate, which
// constructors and the functional forms call before doing any work.
// Every error wraps one of the sentinel errors and can be inspected with
// errors.Is and errors.As:
//
//	var oe *nn.OptionError
//	if errors.As(err, &oe) && errors.Is(err, nn.ErrConfigConflict) {
//	    fmt.Println(oe.Field)
//	}
package nn
