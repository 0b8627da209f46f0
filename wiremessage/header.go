// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package wiremessage implements the 16-byte MongoDB wire-protocol header
// and its op-code constants, shared by every request and reply frame.
package wiremessage

import (
	"fmt"

	"github.com/driftmongo/corewire/rope"
)

// OpCode identifies the kind of a wire message.
type OpCode int32

// Op-code constants as specified by the MongoDB wire protocol.
const (
	OpReply       OpCode = 1
	OpMsg         OpCode = 1000
	OpUpdate      OpCode = 2001
	OpInsert      OpCode = 2002
	opReserved    OpCode = 2003
	OpQuery       OpCode = 2004
	OpGetMore     OpCode = 2005
	OpDelete      OpCode = 2006
	OpKillCursors OpCode = 2007
)

func (c OpCode) String() string {
	switch c {
	case OpReply:
		return "REPLY"
	case OpMsg:
		return "MSG"
	case OpUpdate:
		return "UPDATE"
	case OpInsert:
		return "INSERT"
	case OpQuery:
		return "QUERY"
	case OpGetMore:
		return "GET_MORE"
	case OpDelete:
		return "DELETE"
	case OpKillCursors:
		return "KILL_CURSORS"
	default:
		return fmt.Sprintf("OpCode(%d)", int32(c))
	}
}

// HeaderLen is the fixed size, in bytes, of every wire message header.
const HeaderLen = 16

// Header is the 16-byte prefix shared by every wire frame.
type Header struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	OpCode        OpCode
}

// AppendHeader appends h onto b using a *rope.Builder, so the header is
// written without an intermediate allocation separate from the frame body.
func AppendHeader(b *rope.Builder, h Header) {
	b.AppendI32LE(h.MessageLength)
	b.AppendI32LE(h.RequestID)
	b.AppendI32LE(h.ResponseTo)
	b.AppendI32LE(int32(h.OpCode))
}

// ErrTruncatedHeader is returned by ReadHeader when fewer than HeaderLen
// bytes are available, and by a Connection that receives a frame whose
// messageLength is below HeaderLen.
var ErrTruncatedHeader = fmt.Errorf("wiremessage: frame shorter than the %d-byte header", HeaderLen)

// ReadHeader parses the 16-byte header from the front of r.
func ReadHeader(r *rope.Reader) (Header, error) {
	var h Header
	var err error
	if h.MessageLength, err = r.ReadI32LE(); err != nil {
		return Header{}, ErrTruncatedHeader
	}
	if h.RequestID, err = r.ReadI32LE(); err != nil {
		return Header{}, ErrTruncatedHeader
	}
	if h.ResponseTo, err = r.ReadI32LE(); err != nil {
		return Header{}, ErrTruncatedHeader
	}
	var opCode int32
	if opCode, err = r.ReadI32LE(); err != nil {
		return Header{}, ErrTruncatedHeader
	}
	h.OpCode = OpCode(opCode)
	return h, nil
}

// FrameTooLargeError is returned when an encoded frame's messageLength would
// exceed the configured limit, or a received frame's messageLength does.
type FrameTooLargeError struct {
	Length  int
	MaxSize int
}

func (e FrameTooLargeError) Error() string {
	return fmt.Sprintf("wiremessage: frame of %d bytes exceeds max_frame_bytes of %d", e.Length, e.MaxSize)
}

// DefaultMaxFrameBytes is the default max_frame_bytes (48 MiB).
const DefaultMaxFrameBytes = 48 * 1024 * 1024

// LittleEndianInt32 decodes a little-endian int32 from the front of b. It is
// used by readers that must learn a frame's messageLength from its raw
// 4-byte prefix before enough bytes exist to build a rope.Reader over it.
func LittleEndianInt32(b []byte) int32 {
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}
