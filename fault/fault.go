// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ConsistencyError GenericError
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type StorageError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised        = ExistsError("already initialised")
	AssemblageConflict        = ConsistencyError("nid is already bound to a different assemblage")
	BuilderAlreadyCommitted   = ConsistencyError("version builder has already been committed")
	BuilderPayloadMissing     = InvalidError("version builder has no payload")
	CancelledByContext        = ProcessError("cancelled")
	ChronicleEnvelopeMismatch = ConsistencyError("chronicle envelope does not match stored envelope")
	ChronicleNotFound         = NotFoundError("chronicle not found")
	ConfigurationNotFound     = NotFoundError("configuration file does not exist")
	ConfigurationNotTable     = InvalidError("configuration file did not return a table")
	DatastoreIdCorrupt        = InvalidError("datastore id file is corrupt")
	DatastoreNotStarted       = ProcessError("datastore has not been started")
	EngineMismatch            = InvalidError("engine does not match existing store")
	ExpressionAlreadyBuilt    = ConsistencyError("logical expression builder has already built an expression")
	ExpressionEmpty           = InvalidError("logical expression has no root")
	ExpressionMalformed       = InvalidError("logical expression is malformed")
	IncompatibleDatabase      = InvalidError("incompatible database version")
	InvalidCount              = InvalidError("invalid count")
	InvalidCursor             = InvalidError("invalid cursor")
	InvalidEngine             = InvalidError("invalid storage engine")
	InvalidLoggerChannel      = InvalidError("invalid logger channel")
	InvalidNid                = InvalidError("invalid nid")
	InvalidPoolPrefix         = InvalidError("invalid pool prefix")
	InvalidStampSequence      = InvalidError("invalid stamp sequence")
	InvalidStructPointer      = InvalidError("invalid struct pointer")
	InvalidTaxonomyRecord     = InvalidError("invalid taxonomy record")
	MissingParameters         = InvalidError("missing parameters")
	NidNotFound               = NotFoundError("nid has no uuid")
	NotInitialised            = NotFoundError("not initialised")
	NotPendingStamp           = ConsistencyError("stamp is not pending")
	ObjectTypeConflict        = ConsistencyError("assemblage object type cannot change")
	PayloadKindMismatch       = ConsistencyError("payload kind does not match chronicle kind")
	RecordTruncated           = InvalidError("record is truncated")
	ScalarTypeMismatch        = InvalidError("scalar holds a different type")
	StampNotFound             = NotFoundError("stamp not found")
	StoreClosed               = ProcessError("store is closed")
	TransactionClosed         = ProcessError("transaction is already committed or cancelled")
	UncommittedStampTime      = InvalidError("uncommitted time is reserved for transactions")
	UnknownFormatVersion      = ConsistencyError("unknown chronicle format version")
	UnknownNodeSemantic       = ConsistencyError("unknown logical expression node semantic")
	UnknownPayloadKind        = ConsistencyError("unknown payload kind")
	UnknownStatus             = ConsistencyError("unknown stamp status")
	UnsupportedConstructor    = InvalidError("constructor is not supported by the description logic profile")
	VersionTypeConflict       = ConsistencyError("assemblage version type cannot change")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ConsistencyError) Error() string { return string(e) }
func (e ExistsError) Error() string      { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e ProcessError) Error() string     { return string(e) }
func (e StorageError) Error() string     { return string(e) }

// determine the class of an error
// wrapped errors are unwrapped so that a class survives fmt.Errorf("%w")
func IsErrConsistency(e error) bool { var t ConsistencyError; return errors.As(e, &t) }
func IsErrExists(e error) bool      { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool     { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool    { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool     { var t ProcessError; return errors.As(e, &t) }
func IsErrStorage(e error) bool     { var t StorageError; return errors.As(e, &t) }

// StorageFailure - an engine error tagged with the operation that failed
type StorageFailure struct {
	Op  string
	Err error
}

// Storage - wrap an engine error as a storage failure, nil stays nil
func Storage(op string, err error) error {
	if nil == err {
		return nil
	}
	return &StorageFailure{Op: op, Err: err}
}

func (e *StorageFailure) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageFailure) Unwrap() error { return e.Err }

// As - allow errors.As(err, &StorageError) to match a failure
func (e *StorageFailure) As(target interface{}) bool {
	if t, ok := target.(*StorageError); ok {
		*t = StorageError(e.Error())
		return true
	}
	return false
}
