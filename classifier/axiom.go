// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitmark-inc/termstore/identifier"
)

// Class - an EL++ class expression
//
// the set of implementations is closed: Named, Conjunction, Existential
type Class interface {
	key() string
	String() string
}

// Named - an atomic concept
type Named struct {
	Concept identifier.Nid
}

// Conjunction - intersection of classes
type Conjunction struct {
	Operands []Class
}

// Existential - some values of a role from a filler class
type Existential struct {
	Role   identifier.Nid
	Filler Class
}

func (n Named) key() string { return fmt.Sprintf("%d", n.Concept) }

func (c Conjunction) key() string {
	keys := make([]string, len(c.Operands))
	for i, o := range c.Operands {
		keys[i] = o.key()
	}
	sort.Strings(keys)
	return "(and " + strings.Join(keys, " ") + ")"
}

func (e Existential) key() string {
	return fmt.Sprintf("(some %d %s)", e.Role, e.Filler.key())
}

func (n Named) String() string       { return n.key() }
func (c Conjunction) String() string { return c.key() }
func (e Existential) String() string { return e.key() }

// Axiom - Sub is subsumed by Super
type Axiom struct {
	Sub   Class
	Super Class
}

func (a Axiom) String() string {
	return a.Sub.String() + " <= " + a.Super.String()
}
