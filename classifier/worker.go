// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package classifier

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/coordinate"
	"github.com/bitmark-inc/termstore/counter"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/identifier"
)

const queueSize = 16

// Result - outcome of one reclassification request
type Result struct {
	Affected []identifier.Nid
	Err      error
}

type request struct {
	ctx        context.Context
	classifier *Classifier
	reply      chan<- Result
}

// Worker - background process running reclassification requests in
// arrival order
type Worker struct {
	registry *Registry
	queue    chan request
	waiting  counter.Counter
	log      *logger.L
}

// NewWorker - worker over a registry, start it with background.Start
func NewWorker(registry *Registry) *Worker {
	return &Worker{
		registry: registry,
		queue:    make(chan request, queueSize),
		log:      logger.New("classify-worker"),
	}
}

// Submit - queue a reclassification of a coordinate pair
//
// the result channel receives exactly one value; a full queue blocks
// until ctx is done
func (w *Worker) Submit(ctx context.Context, sc coordinate.StampCoordinate, lc coordinate.LogicCoordinate) <-chan Result {
	reply := make(chan Result, 1)
	r := request{
		ctx:        ctx,
		classifier: w.registry.Classifier(sc, lc),
		reply:      reply,
	}
	w.waiting.Increment()
	select {
	case w.queue <- r:
	case <-ctx.Done():
		w.waiting.Decrement()
		reply <- Result{Err: fault.CancelledByContext}
	}
	return reply
}

// Waiting - requests submitted but not yet answered
func (w *Worker) Waiting() uint64 {
	return w.waiting.Uint64()
}

func (w *Worker) answer(r request, result Result) {
	w.waiting.Decrement()
	r.reply <- result
}

func (w *Worker) reclassify(running context.Context, r request) ([]identifier.Nid, error) {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	stop := context.AfterFunc(running, cancel)
	defer stop()
	return r.classifier.Reclassify(ctx, time.Now().UnixMilli())
}

// Run - background.Process
func (w *Worker) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log

	// a running pass is cancelled by shutdown
	running, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-running.Done():
		}
	}()

	log.Info("starting…")
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case r := <-w.queue:
			if nil != r.ctx.Err() {
				w.answer(r, Result{Err: fault.CancelledByContext})
				continue loop
			}
			affected, err := w.reclassify(running, r)
			if nil != err {
				log.Errorf("reclassify error: %s", err)
			}
			w.answer(r, Result{Affected: affected, Err: err})
		}
	}

	// anything still queued is answered rather than dropped
	for {
		select {
		case r := <-w.queue:
			w.answer(r, Result{Err: fault.StoreClosed})
		default:
			log.Info("stopped")
			return
		}
	}
}
