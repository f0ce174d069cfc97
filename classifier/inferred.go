// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/stamp"
	"github.com/bitmark-inc/termstore/taxonomy"
)

// WriteInferred - write the inferred definition and inferred taxonomy
// edges of each affected concept under the transaction
//
// nothing is visible until the transaction commits; a concept whose
// inferred definition is unchanged is skipped and one left with nothing
// to say has its previous inferred definition retired
func (c *Classifier) WriteInferred(ctx context.Context, affected []identifier.Nid, tx *datastore.Transaction) (int, error) {
	calc, err := c.calculator()
	if nil != err {
		return 0, err
	}

	written := 0
	for _, concept := range affected {
		if nil != ctx.Err() {
			return written, fault.CancelledByContext
		}

		c.Lock()
		stated := c.stated[concept]
		c.Unlock()
		parents := c.Parents(concept)

		expression, err := inferredExpression(concept, parents, stated)
		if nil != err {
			return written, err
		}

		ch, err := c.inferredChronicle(concept)
		if nil != err {
			return written, err
		}
		previous, err := latestExpression(calc, ch)
		if nil != err {
			return written, err
		}
		if expression.Equal(previous) {
			continue
		}

		if nil != expression {
			_, err = tx.AddVersion(ch, chronicle.LogicGraphPayload{Expression: expression})
		} else {
			_, err = tx.RetireVersion(ch, chronicle.LogicGraphPayload{Expression: previous})
		}
		if nil != err {
			return written, err
		}

		err = c.writeEdges(tx, concept, previous.DirectConcepts(), parents)
		if nil != err {
			return written, err
		}
		written += 1
	}

	c.log.Debugf("inferred definitions written: %d of %d", written, len(affected))
	return written, nil
}

// the inferred chronicle of a concept has a UUID derived from the
// concept and the inferred assemblage so every pass finds the same one
func (c *Classifier) inferredChronicle(concept identifier.Nid) (*chronicle.Chronicle, error) {
	ids := c.store.Identifiers()
	conceptUUID, ok, err := ids.UUIDForNid(concept)
	if nil != err {
		return nil, err
	}
	if !ok {
		return nil, fault.NidNotFound
	}
	assemblageUUID, ok, err := ids.UUIDForNid(c.logic.InferredAssemblage)
	if nil != err {
		return nil, err
	}
	if !ok {
		return nil, fault.NidNotFound
	}

	id := identifier.FromName(conceptUUID, "inferred definition in "+assemblageUUID.String())
	nid, found, err := ids.NidForUUID(id)
	if nil != err {
		return nil, err
	}
	if found {
		ch, ok, err := c.store.GetChronicle(nid)
		if nil != err {
			return nil, err
		}
		if ok {
			return ch, nil
		}
	}
	return c.store.Factory().CreateComponentWithUUID(id, chronicle.LogicGraphKind, concept, c.logic.InferredAssemblage)
}

// added parents get edges under the transaction sequence, removed
// parents get edges under its retraction sequence
func (c *Classifier) writeEdges(tx *datastore.Transaction, concept identifier.Nid, before []identifier.Nid, after []identifier.Nid) error {
	assemblage := c.options.InferredTaxonomy
	if identifier.NoNid == assemblage {
		return nil
	}

	old := make(map[identifier.Nid]struct{}, len(before))
	for _, p := range before {
		old[p] = struct{}{}
	}
	current := make(map[identifier.Nid]struct{}, len(after))
	for _, p := range after {
		current[p] = struct{}{}
		if _, ok := old[p]; ok {
			continue
		}
		if err := addEdgePair(c.store, assemblage, concept, p, tx.Sequence()); nil != err {
			return err
		}
	}

	for _, p := range before {
		if _, ok := current[p]; ok {
			continue
		}
		retraction, err := tx.Retraction()
		if nil != err {
			return err
		}
		if err := addEdgePair(c.store, assemblage, concept, p, retraction); nil != err {
			return err
		}
	}
	return nil
}

func addEdgePair(store *datastore.Store, assemblage identifier.Nid, child identifier.Nid, parent identifier.Nid, seq stamp.Sequence) error {
	err := store.AddTaxonomyEdges(assemblage, child, taxonomy.Edge{
		Destination: parent,
		Sequence:    seq,
		Flags:       taxonomy.Inferred | taxonomy.Parent,
	})
	if nil != err {
		return err
	}
	return store.AddTaxonomyEdges(assemblage, parent, taxonomy.Edge{
		Destination: child,
		Sequence:    seq,
		Flags:       taxonomy.Inferred | taxonomy.Child,
	})
}

// NECESSARY_SET(AND(parents..., stated roles...)), nil when there is
// nothing to say
func inferredExpression(concept identifier.Nid, parents []identifier.Nid, stated *logic.Expression) (*logic.Expression, error) {
	b := logic.NewBuilder(concept)
	terms := []logic.Ref{}
	for _, p := range parents {
		terms = append(terms, b.Concept(p))
	}

	if nil != stated {
		seen := map[string]struct{}{}
		for _, index := range statedRoles(stated) {
			key := nodeKey(stated, index)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			terms = append(terms, copyNode(b, stated, index))
		}
	}

	if 0 == len(terms) {
		return nil, nil
	}
	b.NecessarySet(b.And(terms...))
	return b.Build()
}

// role restrictions directly under the AND of each set
func statedRoles(e *logic.Expression) []int {
	roles := []int{}
	for _, set := range e.Node(e.Root()).Children {
		for _, and := range e.Node(set).Children {
			for _, child := range e.Node(and).Children {
				switch e.Node(child).Semantic {
				case logic.RoleSome, logic.RoleAll:
					roles = append(roles, child)
				}
			}
		}
	}
	return roles
}

func copyNode(b *logic.Builder, e *logic.Expression, index int) logic.Ref {
	n := e.Node(index)
	children := make([]logic.Ref, len(n.Children))
	for i, child := range n.Children {
		children[i] = copyNode(b, e, child)
	}
	switch n.Semantic {
	case logic.Concept:
		return b.Concept(n.Concept)
	case logic.RoleSome:
		return b.Some(n.Concept, children[0])
	case logic.RoleAll:
		return b.All(n.Concept, children[0])
	default:
		return b.And(children...)
	}
}

func nodeKey(e *logic.Expression, index int) string {
	n := e.Node(index)
	parts := make([]string, len(n.Children))
	for i, child := range n.Children {
		parts[i] = nodeKey(e, child)
	}
	return fmt.Sprintf("%s:%d(%s)", n.Semantic, n.Concept, strings.Join(parts, ","))
}
