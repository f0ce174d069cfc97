// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"context"

	"github.com/bitmark-inc/termstore/identifier"
)

// Reasoner - an EL++ reasoner instance
//
// axioms only accumulate in one instance; a retraction is handled by
// starting a new instance and loading everything again
type Reasoner interface {
	// Load - add axioms to the instance
	Load(axioms []Axiom) error

	// Classify - saturate, returning the named concepts whose direct
	// parents changed since the previous call plus those named on the
	// left of an axiom loaded since then
	Classify(ctx context.Context) ([]identifier.Nid, error)

	// Parents - direct inferred parents of a named concept
	Parents(concept identifier.Nid) []identifier.Nid
}

// ReasonerFactory - creates fresh reasoner instances
type ReasonerFactory func() Reasoner
