// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/storage"
	"github.com/bitmark-inc/termstore/storage/mocks"
)

type recordingFlusher struct {
	sync.Mutex
	name  string
	trace *[]string
	err   error
}

func (f *recordingFlusher) Flush() error {
	f.Lock()
	defer f.Unlock()
	*f.trace = append(*f.trace, f.name)
	return f.err
}

func TestSyncOrder(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	trace := []string{}
	engine := mocks.NewMockEngine(ctl)
	engine.EXPECT().Sync().DoAndReturn(func() error {
		trace = append(trace, "fsync")
		return nil
	}).Times(1)

	db, err := storage.Attach(engine, 0)
	require.NoError(t, err)

	db.RegisterFlusher(&recordingFlusher{name: "nids", trace: &trace})
	db.RegisterFlusher(&recordingFlusher{name: "stamps", trace: &trace})

	assert.NoError(t, <-db.Sync())
	assert.Equal(t, []string{"nids", "stamps", "fsync"}, trace)
}

func TestSyncFlushFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	engine := mocks.NewMockEngine(ctl)
	engine.EXPECT().Sync().Times(0)

	db, err := storage.Attach(engine, 0)
	require.NoError(t, err)

	trace := []string{}
	flushErr := errors.New("flush failed")
	db.RegisterFlusher(&recordingFlusher{name: "nids", trace: &trace, err: flushErr})

	assert.Equal(t, flushErr, <-db.Sync(), "fsync must not run after a failed flush")
}

func TestStorageFailureSurfaces(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	ioErr := errors.New("disk on fire")
	engine := mocks.NewMockEngine(ctl)
	engine.EXPECT().Get(gomock.Any()).Return(nil, false, fault.Storage("get", ioErr)).Times(1)
	engine.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, fault.Storage("update", ioErr)).Times(1)

	db, err := storage.Attach(engine, 0)
	require.NoError(t, err)

	_, _, err = db.Pool.Chronicles.Get([]byte("k"))
	assert.True(t, fault.IsErrStorage(err), "get error class")
	assert.True(t, errors.Is(err, ioErr), "cause reachable")

	_, err = db.Pool.ReverseIndex.Update([]byte("k"), func(current []byte) ([]byte, error) {
		return []byte("v"), nil
	})
	assert.True(t, fault.IsErrStorage(err), "update error class")
}

func TestPutIfAbsentRetriedMerge(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// a conflict retry: first run sees no value, second sees the winner
	engine := mocks.NewMockEngine(ctl)
	engine.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(key []byte, fn storage.MergeFunc) ([]byte, error) {
		if _, err := fn(nil); nil != err {
			return nil, err
		}
		return fn([]byte("B"))
	}).Times(1)

	db, err := storage.Attach(engine, 0)
	require.NoError(t, err)

	value, stored, err := db.Pool.Scalars.PutIfAbsent([]byte("k"), []byte("A"))
	require.NoError(t, err)
	assert.Equal(t, []byte("B"), value)
	assert.False(t, stored, "lost race must not report a store")
}

func TestShutdownCompacts(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	engine := mocks.NewMockEngine(ctl)
	gomock.InOrder(
		engine.EXPECT().Sync().Return(nil),
		engine.EXPECT().Compact().Return(nil),
		engine.EXPECT().Close().Return(nil),
	)

	db, err := storage.Attach(engine, 0)
	require.NoError(t, err)
	assert.NoError(t, db.Shutdown(true))
}

func TestSyncThrottled(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	engine := mocks.NewMockEngine(ctl)
	engine.EXPECT().Sync().Return(nil).Times(2)

	gap := 100 * time.Millisecond
	db, err := storage.Attach(engine, gap)
	require.NoError(t, err)

	start := time.Now()
	assert.NoError(t, <-db.Sync())
	assert.NoError(t, <-db.Sync())
	assert.True(t, time.Since(start) >= gap-10*time.Millisecond, "second sync must wait")
}

func TestPeriodicSync(t *testing.T) {
	db, err := storage.Open(storage.Configuration{
		Directory:    t.TempDir(),
		Name:         "test",
		Engine:       storage.LevelDB,
		SyncInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	flushed := make(chan struct{}, 1)
	db.RegisterFlusher(flusherFunc(func() error {
		select {
		case flushed <- struct{}{}:
		default:
		}
		return nil
	}))

	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Error("periodic sync did not run")
	}
	assert.NoError(t, db.Shutdown(false))
}

type flusherFunc func() error

func (f flusherFunc) Flush() error { return f() }
