// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"encoding/binary"
)

// SortableInt32 - 4 byte key form of a signed value
//
// the sign bit is flipped so that the byte order of keys matches the
// numeric order, i.e. math.MinInt32 is all zero bytes
func SortableInt32(value int32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(value)^0x80000000)
	return key
}

// FromSortableInt32 - inverse of SortableInt32
//
// panics if the key is shorter than 4 bytes
func FromSortableInt32(key []byte) int32 {
	return int32(binary.BigEndian.Uint32(key[:4]) ^ 0x80000000)
}

// Int32sToBytes - pack an int32 slice as fixed big endian values
func Int32sToBytes(values []int32) []byte {
	buffer := make([]byte, 0, 4*len(values))
	for _, v := range values {
		buffer = AppendInt32(buffer, v)
	}
	return buffer
}

// BytesToInt32s - unpack fixed big endian values, a trailing partial
// value is ignored
func BytesToInt32s(buffer []byte) []int32 {
	values := make([]int32, 0, len(buffer)/4)
	for i := 0; i+4 <= len(buffer); i += 4 {
		values = append(values, int32(binary.BigEndian.Uint32(buffer[i:])))
	}
	return values
}
