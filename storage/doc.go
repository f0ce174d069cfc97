// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage maintains the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// The store is a single goleveldb or badger database split into a
// series of pools.  Each pool is defined by a prefix byte that is
// obtained from the prefix tag in the struct defining the available
// pools.
//
// Notes:
// 1. each separate pool has a single byte prefix
// 2. ++           = concatenation of byte data
// 3. nid          = sortable int32 (big endian, sign bit flipped, 4 bytes)
// 4. sequence     = stamp sequence as sortable int32
// 5. uuid         = 16 raw bytes
// 6. *others*     = byte values of various length
//
// Identifiers:
//
//   U ++ uuid                  - nid bound to a uuid
//                                data: nid
//   u ++ nid                   - uuid of a nid
//                                data: uuid
//   A ++ nid                   - assemblage of a nid
//                                data: assemblage nid
//
// Stamps:
//
//   s ++ stamp tuple           - content addressed sequence
//                                data: sequence
//   S ++ sequence              - stamp of a sequence
//                                data: status ++ time ++ author ++ module ++ path
//   K ++ sequence              - commit comment
//                                data: text
//
// Registries:
//
//   O ++ assemblage            - object type, written once
//   V ++ assemblage            - version type, written once
//   P ++ path                  - path origins
//                                data: count(varint) ++ [ path ++ time ]
//   M ++ name                  - scalar metadata
//                                data: type byte ++ value
//
// Chronicles:
//
//   C ++ assemblage ++ nid     - chronicle, partitioned by assemblage
//                                data: envelope ++ [ version record ]
//   R ++ component nid         - reverse index of referencing semantics
//                                data: [ nid ] sorted
//   T ++ assemblage ++ concept - taxonomy record
//                                data: [ destination ++ sequence ++ flags ]
//
// Reserved:
//
//   0x00 ++ VERSION            - database version (big endian uint32)
//   0x00 ++ SYNC               - synchronous write marker
package storage
