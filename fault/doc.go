// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
//
// classes:
//   ConsistencyError - an invariant of the data model was violated,
//                      fatal for the operation and never retried
//   StorageError     - the storage engine failed, fatal for the
//                      current operation only
//   ExistsError, InvalidError, NotFoundError, ProcessError - as usual
package fault
