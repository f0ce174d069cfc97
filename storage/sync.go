// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"time"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/metrics"
)

// Flusher - a component holding state that must be written before a sync
type Flusher interface {
	Flush() error
}

// RegisterFlusher - add a component to be flushed before each sync
func (db *DB) RegisterFlusher(f Flusher) {
	db.flushLock.Lock()
	db.flushers = append(db.flushers, f)
	db.flushLock.Unlock()
}

func (db *DB) flush() error {
	db.flushLock.Lock()
	flushers := make([]Flusher, len(db.flushers))
	copy(flushers, db.flushers)
	db.flushLock.Unlock()

	for _, f := range flushers {
		err := f.Flush()
		if nil != err {
			return err
		}
	}
	return nil
}

// Sync - asynchronously flush, commit and fsync
//
// the channel receives the result then closes
func (db *DB) Sync() <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- db.syncNow(context.Background())
		close(done)
	}()
	return done
}

// SyncContext - synchronous form of Sync that gives up waiting for
// the rate limiter when ctx is done
func (db *DB) SyncContext(ctx context.Context) error {
	return db.syncNow(ctx)
}

func (db *DB) syncNow(ctx context.Context) error {
	err := db.limiter.Wait(ctx)
	if nil != err {
		return fault.CancelledByContext
	}

	db.syncLock.Lock()
	defer db.syncLock.Unlock()

	db.RLock()
	defer db.RUnlock()
	if db.closed {
		return fault.StoreClosed
	}

	start := time.Now()
	defer metrics.Since(metrics.SyncDuration, start)

	err = db.flush()
	if nil != err {
		db.log.Errorf("sync: flush error: %s", err)
		return err
	}

	// engine writes are committed when Put or Update returns, so the
	// only remaining step is the fsync
	err = db.engine.Sync()
	metrics.StorageOperations.WithLabelValues("sync", metrics.Outcome(err)).Inc()
	return err
}

// Compact - explicit compaction, never run implicitly by a write
func (db *DB) Compact() error {
	db.RLock()
	defer db.RUnlock()
	if db.closed {
		return fault.StoreClosed
	}

	db.log.Info("compaction started")
	err := db.engine.Compact()
	metrics.StorageOperations.WithLabelValues("compact", metrics.Outcome(err)).Inc()
	if nil != err {
		db.log.Errorf("compaction error: %s", err)
		return err
	}
	db.log.Info("compaction finished")
	return nil
}

// Shutdown - flush, optionally compact, then close
//
// the store is closed even when an earlier step fails; the first
// error is returned
func (db *DB) Shutdown(compact bool) error {
	db.bg.Stop()

	db.RLock()
	closed := db.closed
	db.RUnlock()
	if closed {
		return fault.StoreClosed
	}

	db.syncLock.Lock()
	defer db.syncLock.Unlock()

	err := db.flush()
	if nil == err {
		err = db.engine.Sync()
	}
	if nil == err && compact {
		db.log.Info("compact on shutdown")
		err = db.engine.Compact()
	}

	db.Lock()
	defer db.Unlock()
	if db.closed {
		return fault.StoreClosed
	}
	db.closed = true
	db.cache.clear()

	closeErr := db.engine.Close()
	if nil == err {
		err = closeErr
	}
	if nil != err {
		db.log.Errorf("shutdown error: %s", err)
	} else {
		db.log.Info("shutdown complete")
	}
	return err
}

// background process for periodic sync
type syncer struct {
	db       *DB
	interval time.Duration
}

func (s *syncer) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-shutdown
		cancel()
	}()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			err := s.db.syncNow(ctx)
			if nil != err && fault.CancelledByContext != err {
				s.db.log.Errorf("periodic sync error: %s", err)
			}
		}
	}
}
