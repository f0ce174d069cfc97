// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics holds the prometheus collectors shared by the store
// and the classifier
//
// collectors register with the default registry on package load; the
// daemon exposes them with promhttp
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "termstore"

var (
	// StorageOperations - engine calls by operation and outcome
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Engine operations by type and result",
	}, []string{"op", "result"})

	// UpdateRetries - optimistic transaction conflicts retried by an engine
	UpdateRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "update_retries_total",
		Help:      "Per-key updates retried after a transaction conflict",
	})

	// CacheLookups - read cache hits and misses for write-once pools
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "cache_lookups_total",
		Help:      "Read cache lookups by result",
	}, []string{"result"})

	// SyncDuration - time from sync request to completed fsync
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "sync_duration_seconds",
		Help:      "Duration of flush, commit and fsync",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	// NidsAllocated - nids handed out since start
	NidsAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "identifier",
		Name:      "nids_allocated_total",
		Help:      "Nids allocated for new UUIDs",
	})

	// StampsAllocated - stamp sequences by origin
	StampsAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stamp",
		Name:      "sequences_allocated_total",
		Help:      "Stamp sequences allocated by kind",
	}, []string{"kind"})

	// ChroniclesWritten - chronicle merges by outcome
	ChroniclesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "datastore",
		Name:      "chronicles_written_total",
		Help:      "Chronicle writes by result",
	}, []string{"result"})

	// Transactions - transactions by outcome
	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "datastore",
		Name:      "transactions_total",
		Help:      "Transactions by result",
	}, []string{"result"})

	// ClassifierPasses - classification passes by mode
	ClassifierPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "passes_total",
		Help:      "Classification passes by mode",
	}, []string{"mode"})

	// ClassifierDuration - classification duration by mode
	ClassifierDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "pass_duration_seconds",
		Help:      "Duration of a classification pass",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"mode"})

	// ReasonerDowngrades - incremental mode disabled by a retracting edit
	ReasonerDowngrades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "downgrades_total",
		Help:      "Edits that forced a full classification",
	})

	// AffectedConcepts - size of the affected set returned by a pass
	AffectedConcepts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "affected_concepts",
		Help:      "Concepts affected by a classification pass",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
)

// Outcome - label value for an error result
func Outcome(err error) string {
	if nil == err {
		return "ok"
	}
	return "error"
}

// Since - observe elapsed seconds on a histogram
func Since(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
