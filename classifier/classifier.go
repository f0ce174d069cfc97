// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package classifier drives an EL++ reasoner over stated definitions
//
// one Classifier exists per (stamp coordinate, logic coordinate) pair,
// held by an explicit Registry; a classifier reloads everything into a
// fresh reasoner unless every edit since the last pass only grew the
// definitions, in which case only the delta is loaded
package classifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/chronicle"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/datastore"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
	"github.com/bitmark-inc/termstore/logic"
	"github.com/bitmark-inc/termstore/metrics"
	"github.com/bitmark-inc/termstore/stamp"
)

// State - classification state of one coordinate pair
type State int

// the states
const (
	Unclassified State = iota
	Complete
	Incremental
)

func (s State) String() string {
	switch s {
	case Unclassified:
		return "UNCLASSIFIED"
	case Complete:
		return "COMPLETE"
	case Incremental:
		return "INCREMENTAL"
	default:
		return "STATE(?)"
	}
}

// Options - classifier settings shared by a registry
type Options struct {
	NeverGroup       []identifier.Nid // roles not wrapped in a role group
	StatedTaxonomy   identifier.Nid
	InferredTaxonomy identifier.Nid
	Author           identifier.Nid // stamp author of inferred writes
	Module           identifier.Nid // stamp module of inferred writes
	Workers          int            // parallel latest version resolution
	Reasoner         ReasonerFactory
}

// Classifier - classification of one coordinate pair
type Classifier struct {
	// one pass at a time
	run sync.Mutex

	// guards the fields below
	sync.Mutex
	state       State
	incremental bool
	reasoner    Reasoner
	stated      map[identifier.Nid]*logic.Expression
	pending     map[identifier.Nid]*logic.Expression

	store      *datastore.Store
	stamp      coordinate.StampCoordinate
	logic      coordinate.LogicCoordinate
	options    Options
	translator *Translator
	log        *logger.L
}

func newClassifier(store *datastore.Store, sc coordinate.StampCoordinate, lc coordinate.LogicCoordinate, options Options, log *logger.L) *Classifier {
	if nil == options.Reasoner {
		options.Reasoner = NewStructuralReasoner
	}
	if options.Workers <= 0 {
		options.Workers = 4
	}
	return &Classifier{
		state:      Unclassified,
		stated:     make(map[identifier.Nid]*logic.Expression),
		pending:    make(map[identifier.Nid]*logic.Expression),
		store:      store,
		stamp:      sc,
		logic:      lc,
		options:    options,
		translator: NewTranslator(lc.RoleGroup, options.NeverGroup, log),
		log:        log,
	}
}

// State - current state
func (c *Classifier) State() State {
	c.Lock()
	defer c.Unlock()
	return c.state
}

// IncrementalEnabled - false once a retracting edit was seen since the
// last full pass
func (c *Classifier) IncrementalEnabled() bool {
	c.Lock()
	defer c.Unlock()
	return c.incremental
}

// Pending - concepts whose definitions will load on the next
// incremental pass
func (c *Classifier) Pending() []identifier.Nid {
	c.Lock()
	defer c.Unlock()
	return sortedKeys(c.pending)
}

func (c *Classifier) calculator() (*coordinate.Calculator, error) {
	return coordinate.NewCalculator(c.stamp, c.store.Stamps(), c.store)
}

// latest stated definition of a logic graph chronicle, nil if none is
// visible
func latestExpression(calc *coordinate.Calculator, ch *chronicle.Chronicle) (*logic.Expression, error) {
	v, found, err := calc.Latest(ch)
	if nil != err || !found {
		return nil, err
	}
	return v.Payload().(chronicle.LogicGraphPayload).Expression, nil
}

// Committed - compare each changed definition with the one last seen
//
// growth keeps incremental mode; a shrink, a same size change or a
// retirement disables it until the next full pass
func (c *Classifier) Committed(changes []datastore.Change) {
	calc, err := c.calculator()
	if nil != err {
		c.log.Errorf("listener: calculator error: %s", err)
		c.downgrade("calculator error")
		return
	}

	for _, change := range changes {
		if chronicle.LogicGraphKind != change.Chronicle.Kind() {
			continue
		}
		nid := change.Chronicle.Nid()
		stored, found, err := c.store.GetChronicle(nid)
		if nil != err || !found {
			c.log.Errorf("listener: nid: %d  found: %t  error: %v", nid, found, err)
			c.downgrade("unreadable definition")
			continue
		}
		expression, err := latestExpression(calc, stored)
		if nil != err {
			c.log.Errorf("listener: nid: %d  error: %s", nid, err)
			c.downgrade("unreadable definition")
			continue
		}
		c.observe(stored.Envelope().Referenced, expression)
	}
}

func (c *Classifier) observe(concept identifier.Nid, expression *logic.Expression) {
	c.Lock()
	defer c.Unlock()

	prior := c.stated[concept]
	switch {
	case expression.Equal(prior):
		return
	case nil == prior:
		c.pending[concept] = expression
	case nil != expression && expression.NodeCount() > prior.NodeCount():
		c.pending[concept] = expression
	default:
		c.downgradeLocked("definition of %d changed without growing", concept)
	}

	if nil == expression {
		delete(c.stated, concept)
	} else {
		c.stated[concept] = expression
	}
}

func (c *Classifier) downgrade(reason string) {
	c.Lock()
	c.downgradeLocked(reason)
	c.Unlock()
}

func (c *Classifier) downgradeLocked(format string, arguments ...interface{}) {
	if c.incremental {
		metrics.ReasonerDowngrades.Inc()
		c.log.Warnf("incremental classification disabled: "+format, arguments...)
	}
	c.incremental = false
	c.pending = make(map[identifier.Nid]*logic.Expression)
}

// Classify - run one pass, returning the affected concepts
//
// a full pass affects every loaded concept; an incremental pass affects
// what the reasoner reports
func (c *Classifier) Classify(ctx context.Context) ([]identifier.Nid, error) {
	c.run.Lock()
	defer c.run.Unlock()
	return c.classify(ctx)
}

// Reclassify - classify then write the inferred results under one
// transaction committed at instant
func (c *Classifier) Reclassify(ctx context.Context, instant int64) ([]identifier.Nid, error) {
	c.run.Lock()
	defer c.run.Unlock()

	affected, err := c.classify(ctx)
	if nil != err || 0 == len(affected) {
		return affected, err
	}

	tx, err := c.store.OpenTransaction(stamp.Active, c.options.Author, c.options.Module, c.stamp.Position().Path)
	if nil != err {
		return nil, err
	}
	written, err := c.WriteInferred(ctx, affected, tx)
	if nil != err {
		if e := tx.Cancel(); nil != e {
			c.log.Errorf("cancel inferred transaction error: %s", e)
		}
		return nil, err
	}
	if _, err := tx.Commit(fmt.Sprintf("classified %d concepts", written), instant); nil != err {
		return nil, err
	}
	return affected, nil
}

func (c *Classifier) classify(ctx context.Context) ([]identifier.Nid, error) {
	c.Lock()
	full := Unclassified == c.state || !c.incremental || nil == c.reasoner
	c.Unlock()

	mode := "incremental"
	if full {
		mode = "full"
	}
	start := time.Now()
	defer metrics.Since(metrics.ClassifierDuration.WithLabelValues(mode), start)

	var affected []identifier.Nid
	var err error
	if full {
		affected, err = c.classifyFull(ctx)
	} else {
		affected, err = c.classifyIncremental(ctx)
	}
	if nil != err {
		c.log.Errorf("%s pass error: %s", mode, err)
		c.Lock()
		c.incremental = false
		c.Unlock()
		return nil, err
	}

	metrics.ClassifierPasses.WithLabelValues(mode).Inc()
	metrics.AffectedConcepts.Observe(float64(len(affected)))
	c.log.Infof("%s pass: affected: %d  time: %s", mode, len(affected), time.Since(start))
	return affected, nil
}

func (c *Classifier) classifyFull(ctx context.Context) ([]identifier.Nid, error) {
	// edits from here on are reloaded by the next incremental pass
	c.Lock()
	c.pending = make(map[identifier.Nid]*logic.Expression)
	c.incremental = true
	c.Unlock()

	loaded, err := c.loadStated(ctx)
	if nil != err {
		return nil, err
	}

	reasoner := c.options.Reasoner()
	concepts := sortedKeys(loaded)
	for _, concept := range concepts {
		if nil != ctx.Err() {
			return nil, fault.CancelledByContext
		}
		axioms, err := c.translator.Translate(loaded[concept])
		if nil != err {
			return nil, err
		}
		if err := reasoner.Load(axioms); nil != err {
			return nil, err
		}
	}
	if _, err := reasoner.Classify(ctx); nil != err {
		return nil, err
	}

	// concepts that lost their definition still show an inferred one
	retired, err := c.staleInferred(ctx, loaded)
	if nil != err {
		return nil, err
	}

	c.Lock()
	stated := loaded
	for concept := range c.pending {
		if e, ok := c.stated[concept]; ok {
			stated[concept] = e
		}
	}
	c.stated = stated
	c.reasoner = reasoner
	c.state = Complete
	c.Unlock()

	if 0 == len(retired) {
		return concepts, nil
	}
	affected := append(concepts, retired...)
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	return affected, nil
}

func (c *Classifier) classifyIncremental(ctx context.Context) ([]identifier.Nid, error) {
	c.Lock()
	delta := c.pending
	c.pending = make(map[identifier.Nid]*logic.Expression)
	reasoner := c.reasoner
	c.Unlock()

	for _, concept := range sortedKeys(delta) {
		axioms, err := c.translator.Translate(delta[concept])
		if nil != err {
			return nil, err
		}
		if err := reasoner.Load(axioms); nil != err {
			return nil, err
		}
	}
	affected, err := reasoner.Classify(ctx)
	if nil != err {
		return nil, err
	}

	c.Lock()
	c.state = Incremental
	c.Unlock()
	return affected, nil
}

// latest visible stated definition per concept
func (c *Classifier) loadStated(ctx context.Context) (map[identifier.Nid]*logic.Expression, error) {
	chronicles := []*chronicle.Chronicle{}
	err := c.store.ForEachChronicleOfAssemblage(ctx, c.logic.StatedAssemblage, func(ch *chronicle.Chronicle) error {
		if chronicle.LogicGraphKind == ch.Kind() {
			chronicles = append(chronicles, ch)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	calc, err := c.calculator()
	if nil != err {
		return nil, err
	}
	resolved, err := calc.ParallelLatest(ctx, chronicles, c.options.Workers)
	if nil != err {
		return nil, err
	}

	loaded := make(map[identifier.Nid]*logic.Expression, len(resolved))
	for _, r := range resolved {
		if !r.Found {
			continue
		}
		loaded[r.Chronicle.Envelope().Referenced] = r.Version.Payload().(chronicle.LogicGraphPayload).Expression
	}
	return loaded, nil
}

// concepts without a stated definition whose inferred definition is
// still visible
func (c *Classifier) staleInferred(ctx context.Context, loaded map[identifier.Nid]*logic.Expression) ([]identifier.Nid, error) {
	chronicles := []*chronicle.Chronicle{}
	err := c.store.ForEachChronicleOfAssemblage(ctx, c.logic.InferredAssemblage, func(ch *chronicle.Chronicle) error {
		if chronicle.LogicGraphKind != ch.Kind() {
			return nil
		}
		if _, ok := loaded[ch.Envelope().Referenced]; !ok {
			chronicles = append(chronicles, ch)
		}
		return nil
	})
	if nil != err || 0 == len(chronicles) {
		return nil, err
	}

	calc, err := c.calculator()
	if nil != err {
		return nil, err
	}
	resolved, err := calc.ParallelLatest(ctx, chronicles, c.options.Workers)
	if nil != err {
		return nil, err
	}
	stale := []identifier.Nid{}
	for _, r := range resolved {
		if r.Found {
			stale = append(stale, r.Chronicle.Envelope().Referenced)
		}
	}
	return stale, nil
}

// Parents - direct inferred parents as of the last pass
func (c *Classifier) Parents(concept identifier.Nid) []identifier.Nid {
	c.Lock()
	reasoner := c.reasoner
	c.Unlock()
	if nil == reasoner {
		return nil
	}
	return reasoner.Parents(concept)
}

func sortedKeys(m map[identifier.Nid]*logic.Expression) []identifier.Nid {
	keys := make([]identifier.Nid, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
