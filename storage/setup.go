// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/termstore/background"
	"github.com/bitmark-inc/termstore/fault"
	"github.com/bitmark-inc/termstore/util"
)

// Pools - the set of exported pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
//
// cache:"true" is only for pools whose values never change once written
type Pools struct {
	UUIDToNid       *PoolHandle `prefix:"U" cache:"true"`
	NidToUUID       *PoolHandle `prefix:"u" cache:"true"`
	NidToAssemblage *PoolHandle `prefix:"A" cache:"true"`
	StampToSequence *PoolHandle `prefix:"s" cache:"true"`
	SequenceToStamp *PoolHandle `prefix:"S"`
	StampComments   *PoolHandle `prefix:"K"`
	ObjectTypes     *PoolHandle `prefix:"O" cache:"true"`
	VersionTypes    *PoolHandle `prefix:"V" cache:"true"`
	ReverseIndex    *PoolHandle `prefix:"R"`
	Taxonomy        *PoolHandle `prefix:"T"`
	Scalars         *PoolHandle `prefix:"M"`
	PathOrigins     *PoolHandle `prefix:"P"`
	Chronicles      *PoolHandle `prefix:"C"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
	idFileName       = "datastore.id"
)

// StartState - what Open found on disk
type StartState int

// start states
const (
	NotYetChecked StartState = iota
	NoDataStore
	ExistingDataStore
)

func (s StartState) String() string {
	switch s {
	case NotYetChecked:
		return "not yet checked"
	case NoDataStore:
		return "no data store"
	case ExistingDataStore:
		return "existing data store"
	default:
		return fmt.Sprintf("start state(%d)", int(s))
	}
}

// Configuration - where and how to open a store
type Configuration struct {
	Directory    string
	Name         string
	Engine       EngineKind
	ReadOnly     bool
	SyncInterval time.Duration // zero disables periodic sync
	MinSyncGap   time.Duration // zero disables sync throttling
}

// DB - an open store
type DB struct {
	sync.RWMutex

	Pool Pools

	engine  Engine
	cache   *readCache
	log     *logger.L
	state   StartState
	id      uuid.UUID
	closed  bool
	bg      *background.T
	limiter *rate.Limiter

	syncLock  sync.Mutex
	flushLock sync.Mutex
	flushers  []Flusher
}

// Open - open or create a store
func Open(configuration Configuration) (*DB, error) {
	log := logger.New("storage")

	if "" == configuration.Name {
		return nil, fault.MissingParameters
	}

	directory := configuration.Directory
	if !configuration.ReadOnly {
		if err := util.EnsureDirectory(directory); nil != err {
			return nil, fault.Storage("open", err)
		}
	}

	state, id, err := readOrCreateID(directory, configuration.ReadOnly)
	if nil != err {
		return nil, err
	}

	engineDirectory := engineDirectoryName(directory, configuration.Name, configuration.Engine)
	if ExistingDataStore == state {
		if _, err := os.Stat(engineDirectory); os.IsNotExist(err) {
			for kind := range engineNames {
				other := engineDirectoryName(directory, configuration.Name, EngineKind(kind))
				if _, err := os.Stat(other); nil == err {
					log.Criticalf("store: %q was created with engine: %s", directory, EngineKind(kind))
					return nil, fault.EngineMismatch
				}
			}
		}
	}

	var engine Engine
	processes := background.Processes{}
	switch configuration.Engine {
	case LevelDB:
		e, err := openLevelDB(engineDirectory, configuration.ReadOnly)
		if nil != err {
			return nil, err
		}
		engine = e
	case Badger:
		e, err := openBadger(engineDirectory, configuration.ReadOnly, log)
		if nil != err {
			return nil, err
		}
		engine = e
		if !configuration.ReadOnly {
			processes = append(processes, &valueLogGC{db: e.db, log: log, interval: gcInterval})
		}
	default:
		return nil, fault.InvalidEngine
	}

	db, err := newDB(engine, log, configuration.MinSyncGap)
	if nil != err {
		engine.Close()
		return nil, err
	}
	db.state = state
	db.id = id

	err = db.checkVersion(configuration.ReadOnly)
	if nil != err {
		engine.Close()
		return nil, err
	}

	if configuration.SyncInterval > 0 && !configuration.ReadOnly {
		processes = append(processes, &syncer{db: db, interval: configuration.SyncInterval})
	}
	db.bg = background.Start(processes, nil)

	log.Infof("opened: %s  engine: %s  state: %s  id: %s", directory, configuration.Engine, state, id)
	return db, nil
}

// Attach - build pools over an already open engine
//
// no datastore id is read and no background processes are started
func Attach(engine Engine, minSyncGap time.Duration) (*DB, error) {
	return newDB(engine, logger.New("storage"), minSyncGap)
}

func newDB(engine Engine, log *logger.L, minSyncGap time.Duration) (*DB, error) {
	limit := rate.Inf
	if minSyncGap > 0 {
		limit = rate.Every(minSyncGap)
	}

	db := &DB{
		engine:  engine,
		log:     log,
		limiter: rate.NewLimiter(limit, 1),
		bg:      background.Start(nil, nil),
	}

	err := db.setupPools()
	if nil != err {
		return nil, err
	}
	return db, nil
}

// scan the tagged fields of Pools and give each a handle
func (db *DB) setupPools() error {

	// this will be a struct type
	poolType := reflect.TypeOf(db.Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&db.Pool).Elem()

	db.cache = newReadCache()

	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) || 0 == prefixTag[0] {
			db.log.Criticalf("pool: %s has invalid prefix: %q", fieldInfo.Name, prefixTag)
			return fault.InvalidPoolPrefix
		}

		p := newPoolHandle(db, []byte{prefixTag[0]})
		if "true" == fieldInfo.Tag.Get("cache") {
			p.cache = db.cache
		}

		poolValue.Field(i).Set(reflect.ValueOf(p))
	}
	return nil
}

// ensure no database downgrade
func (db *DB) checkVersion(readOnly bool) error {
	value, found, err := db.engine.Get(versionKey)
	if nil != err {
		return err
	}
	if !found {
		if readOnly {
			return nil
		}
		currentVersion := make([]byte, 4)
		binary.BigEndian.PutUint32(currentVersion, currentDBVersion)
		return db.engine.Put(versionKey, currentVersion)
	}

	if 4 != len(value) {
		db.log.Criticalf("incompatible database version length: expected: %d  actual: %d", 4, len(value))
		return fault.IncompatibleDatabase
	}

	version := binary.BigEndian.Uint32(value)
	if version > currentDBVersion {
		db.log.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return fault.IncompatibleDatabase
	}
	return nil
}

// State - what was found on disk when the store was opened
func (db *DB) State() StartState {
	return db.state
}

// ID - the persisted datastore id
func (db *DB) ID() uuid.UUID {
	return db.id
}

func engineDirectoryName(directory string, name string, kind EngineKind) string {
	return filepath.Join(directory, name+"."+kind.String())
}

// the id is written once at first startup and never changes
func readOrCreateID(directory string, readOnly bool) (StartState, uuid.UUID, error) {
	fileName := filepath.Join(directory, idFileName)

	data, err := os.ReadFile(fileName)
	if nil == err {
		id, err := uuid.Parse(strings.TrimSpace(string(data)))
		if nil != err {
			return NotYetChecked, uuid.Nil, fault.DatastoreIdCorrupt
		}
		return ExistingDataStore, id, nil
	}
	if !os.IsNotExist(err) {
		return NotYetChecked, uuid.Nil, fault.Storage("read id", err)
	}
	if readOnly {
		return NotYetChecked, uuid.Nil, fault.NotInitialised
	}

	id := uuid.New()
	err = os.WriteFile(fileName, []byte(id.String()+"\n"), 0o600)
	if nil != err {
		return NotYetChecked, uuid.Nil, fault.Storage("write id", err)
	}
	return NoDataStore, id, nil
}
