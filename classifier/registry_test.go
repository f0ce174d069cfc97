// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/background"
	"github.com/bitmark-inc/termstore/classifier"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

func TestRegistryIdentity(t *testing.T) {
	s, c := setupStore(t)
	r := classifier.NewRegistry(s, classifier.MetadataOptions(c))

	first := r.Classifier(c.StampCoordinate(), c.LogicCoordinate())
	again := r.Classifier(c.StampCoordinate(), c.LogicCoordinate())
	assert.Same(t, first, again, "equal coordinates share one classifier")
	assert.Equal(t, 1, r.Len())

	other := r.Classifier(c.StampCoordinate().WithTime(5000), c.LogicCoordinate())
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, r.Len())

	separate := classifier.NewRegistry(s, classifier.MetadataOptions(c))
	assert.NotSame(t, first, separate.Classifier(c.StampCoordinate(), c.LogicCoordinate()), "registries do not share state")
}

func TestWorker(t *testing.T) {
	s, c := setupStore(t)

	e := begin(t, s, c)
	c1 := e.concept()
	e.define(c1, isA(c.Root))
	e.commit(2000)

	r := classifier.NewRegistry(s, classifier.MetadataOptions(c))
	w := classifier.NewWorker(r)
	bg := background.Start(background.Processes{w}, nil)
	defer bg.Stop()

	select {
	case result := <-w.Submit(context.Background(), c.StampCoordinate(), c.LogicCoordinate()):
		require.NoError(t, result.Err)
		assert.Contains(t, result.Affected, c1)
	case <-time.After(10 * time.Second):
		t.Fatal("no result")
	}

	cl := r.Classifier(c.StampCoordinate(), c.LogicCoordinate())
	assert.Equal(t, classifier.Complete, cl.State())
	assert.Equal(t, []identifier.Nid{c.Root}, cl.Parents(c1))
	assert.NotNil(t, inferred(t, s, c, c1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := <-w.Submit(ctx, c.StampCoordinate(), c.LogicCoordinate())
	assert.Equal(t, fault.CancelledByContext, result.Err)
	assert.Zero(t, w.Waiting())
}

type blockingReasoner struct {
	started chan<- struct{}
}

func (b *blockingReasoner) Load(axioms []classifier.Axiom) error {
	return nil
}

func (b *blockingReasoner) Classify(ctx context.Context) ([]identifier.Nid, error) {
	close(b.started)
	<-ctx.Done()
	return nil, fault.CancelledByContext
}

func (b *blockingReasoner) Parents(concept identifier.Nid) []identifier.Nid {
	return nil
}

func TestWorkerStopCancelsRunningPass(t *testing.T) {
	s, c := setupStore(t)

	e := begin(t, s, c)
	c1 := e.concept()
	e.define(c1, isA(c.Root))
	e.commit(2000)

	started := make(chan struct{})
	options := classifier.MetadataOptions(c)
	options.Reasoner = func() classifier.Reasoner {
		return &blockingReasoner{started: started}
	}
	w := classifier.NewWorker(classifier.NewRegistry(s, options))
	bg := background.Start(background.Processes{w}, nil)

	reply := w.Submit(context.Background(), c.StampCoordinate(), c.LogicCoordinate())
	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("pass did not start")
	}

	stopped := make(chan struct{})
	go func() {
		bg.Stop()
		close(stopped)
	}()

	select {
	case result := <-reply:
		assert.Equal(t, fault.CancelledByContext, result.Err)
	case <-time.After(10 * time.Second):
		t.Fatal("running pass not cancelled by stop")
	}
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Zero(t, w.Waiting())
}
