// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/termstore/fault"
)

// MergeFunc - compute the new value of a key from its current value
//
// current is nil when the key is absent; returning an error abandons
// the update and leaves the key unchanged; returning a value equal to
// current skips the write
type MergeFunc func(current []byte) ([]byte, error)

// Iterator - ordered walk over a key range
//
// keys and values returned are copies and remain valid after Next
type Iterator interface {
	// advance to the next key, the first call moves to the first key
	Next() bool
	// reposition so that the next call to Next returns the first key >= key
	Seek(key []byte)
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Engine - a key value engine that the pools are built on
//
// Update is atomic for a single key and is the only synchronisation
// point between writers; there is no global write lock
type Engine interface {
	Get(key []byte) ([]byte, bool, error)
	Has(key []byte) (bool, error)
	Put(key []byte, value []byte) error
	Update(key []byte, fn MergeFunc) ([]byte, error)
	NewIterator(start []byte, limit []byte) Iterator
	Last(start []byte, limit []byte) ([]byte, []byte, bool, error)
	Sync() error
	Compact() error
	Close() error
}

// EngineKind - the available engine implementations
type EngineKind int

// engine kinds
const (
	LevelDB EngineKind = iota
	Badger
)

var engineNames = []string{
	LevelDB: "leveldb",
	Badger:  "badger",
}

// ParseEngineKind - convert configuration text to an engine kind
func ParseEngineKind(s string) (EngineKind, error) {
	for i, name := range engineNames {
		if strings.EqualFold(s, name) {
			return EngineKind(i), nil
		}
	}
	return LevelDB, fault.InvalidEngine
}

// String - engine name, also the suffix of its directory
func (kind EngineKind) String() string {
	if kind < 0 || int(kind) >= len(engineNames) {
		return fmt.Sprintf("engine(%d)", int(kind))
	}
	return engineNames[kind]
}

//go:generate mockgen -destination=mocks/engine.go -package=mocks github.com/bitmark-inc/termstore/storage Engine,Iterator
