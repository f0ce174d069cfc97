// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

type semanticItem struct {
	Nid        identifier.Nid `json:"nid"`
	Kind       string         `json:"kind"`
	Assemblage string         `json:"assemblage"`
}

type showReply struct {
	Name             string                 `json:"name"`
	Coordinate       string                 `json:"coordinate"`
	Chronicle        *chronicleItem         `json:"chronicle"`
	Latest           map[string]interface{} `json:"latest,omitempty"`
	Semantics        []semanticItem         `json:"semantics"`
	StatedParents    []string               `json:"statedParents,omitempty"`
	InferredParents  []string               `json:"inferredParents,omitempty"`
	InferredChildren []string               `json:"inferredChildren,omitempty"`
}

func runShow(c *cli.Context) error {

	s := getSession(c)
	ctx := context.Background()

	nid, err := parseComponent(s.store, s.concepts, c.String("component"))
	if nil != err {
		return err
	}

	calc, err := newCalculator(s, c.Int64("time"))
	if nil != err {
		return err
	}
	sc := calc.Coordinate()
	if s.verbose {
		fmt.Fprintf(s.e, "component: %s  coordinate: %s\n", nid, sc)
	}

	ch, found, err := s.store.GetChronicle(nid)
	if nil != err {
		return err
	}
	if !found {
		return fmt.Errorf("component: %s: %w", nid, fault.ChronicleNotFound)
	}

	item, err := renderChronicle(s.store, s.concepts, ch)
	if nil != err {
		return err
	}
	reply := showReply{
		Coordinate: sc.String(),
		Chronicle:  item,
		Semantics:  make([]semanticItem, 0),
	}

	renderer := newPayloadRenderer(s.concepts)
	latest, ok, err := calc.Latest(ch)
	if nil != err {
		return err
	}
	if ok {
		reply.Latest, err = renderer.render(latest.Payload())
		if nil != err {
			return err
		}
	}

	err = s.store.ForEachSemanticOfComponent(ctx, nid, func(semantic *chronicle.Chronicle) error {
		e := semantic.Envelope()
		reply.Semantics = append(reply.Semantics, semanticItem{
			Nid:        e.Nid,
			Kind:       e.Kind.String(),
			Assemblage: renderer.name(e.Assemblage),
		})
		return nil
	})
	if nil != err {
		return err
	}

	reply.Name = renderer.name(nid)
	if chronicle.ConceptKind != ch.Kind() {
		return printJson(s.w, reply)
	}

	reply.Name, err = s.preferredName(ctx, nid, calc)
	if nil != err {
		return err
	}

	stated, err := s.store.TaxonomySnapshot(s.concepts.StatedTaxonomy, calc).Parents(nid)
	if nil != err {
		return err
	}
	inferred := s.store.TaxonomySnapshot(s.concepts.InferredTaxonomy, calc)
	parents, err := inferred.Parents(nid)
	if nil != err {
		return err
	}
	children, err := inferred.Children(nid)
	if nil != err {
		return err
	}

	if reply.StatedParents, err = s.names(ctx, stated, calc); nil != err {
		return err
	}
	if reply.InferredParents, err = s.names(ctx, parents, calc); nil != err {
		return err
	}
	if reply.InferredChildren, err = s.names(ctx, children, calc); nil != err {
		return err
	}

	return printJson(s.w, reply)
}
