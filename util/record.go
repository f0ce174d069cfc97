// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"encoding/binary"

	"github.com/bitmark-inc/termstore/fault"
)

// AppendBytes - append a Varint64 length followed by the bytes
func AppendBytes(buffer []byte, data []byte) []byte {
	buffer = AppendVarint64(buffer, uint64(len(data)))
	return append(buffer, data...)
}

// AppendString - append a Varint64 length followed by the utf-8 bytes
func AppendString(buffer []byte, s string) []byte {
	buffer = AppendVarint64(buffer, uint64(len(s)))
	return append(buffer, s...)
}

// AppendInt32 - append a fixed 4 byte big endian value
func AppendInt32(buffer []byte, value int32) []byte {
	return append(buffer, byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

// AppendInt64 - append a signed value as a zig-zag Varint64
func AppendInt64(buffer []byte, value int64) []byte {
	return AppendVarint64(buffer, ZigZag(value))
}

// Reader - sequential decoder for records produced by the Append functions
//
// the first decoding error is latched; subsequent reads return zero
// values so a caller can check Err() once at the end
type Reader struct {
	buffer []byte
	n      int
	err    error
}

// NewReader - start reading at the beginning of buffer
func NewReader(buffer []byte) *Reader {
	return &Reader{buffer: buffer}
}

// Err - first error encountered
func (r *Reader) Err() error {
	return r.err
}

// Offset - number of bytes consumed
func (r *Reader) Offset() int {
	return r.n
}

// Remaining - number of bytes not yet consumed
func (r *Reader) Remaining() int {
	return len(r.buffer) - r.n
}

// Byte - read a single byte
func (r *Reader) Byte() byte {
	if nil != r.err {
		return 0
	}
	if r.n >= len(r.buffer) {
		r.err = fault.RecordTruncated
		return 0
	}
	b := r.buffer[r.n]
	r.n += 1
	return b
}

// Varint64 - read an unsigned Varint64
func (r *Reader) Varint64() uint64 {
	if nil != r.err {
		return 0
	}
	value, count := FromVarint64(r.buffer[r.n:])
	if 0 == count {
		r.err = fault.RecordTruncated
		return 0
	}
	r.n += count
	return value
}

// Int64 - read a zig-zag Varint64
func (r *Reader) Int64() int64 {
	return UnZigZag(r.Varint64())
}

// Int32 - read a fixed 4 byte big endian value
func (r *Reader) Int32() int32 {
	if nil != r.err {
		return 0
	}
	if r.n+4 > len(r.buffer) {
		r.err = fault.RecordTruncated
		return 0
	}
	value := int32(binary.BigEndian.Uint32(r.buffer[r.n:]))
	r.n += 4
	return value
}

// Fixed - read exactly count bytes, the result is a copy
func (r *Reader) Fixed(count int) []byte {
	if nil != r.err {
		return nil
	}
	if count < 0 || r.n+count > len(r.buffer) {
		r.err = fault.RecordTruncated
		return nil
	}
	data := make([]byte, count)
	copy(data, r.buffer[r.n:r.n+count])
	r.n += count
	return data
}

// Bytes - read a Varint64 length followed by that many bytes
func (r *Reader) Bytes() []byte {
	length := r.Varint64()
	if nil != r.err {
		return nil
	}
	if length > uint64(r.Remaining()) {
		r.err = fault.RecordTruncated
		return nil
	}
	return r.Fixed(int(length))
}

// String - read a Varint64 length followed by utf-8 bytes
func (r *Reader) String() string {
	return string(r.Bytes())
}
