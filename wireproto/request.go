// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package wireproto implements the closed set of MongoDB wire-protocol
// request variants (UPDATE, INSERT, QUERY, GET_MORE, DELETE, KILL_CURSORS)
// and OP_REPLY decoding. Encoding is dispatched per variant, never through
// open polymorphism.
package wireproto

import (
	"github.com/driftmongo/corewire/rope"
	"github.com/driftmongo/corewire/wiremessage"
)

// Request is implemented by every wire-protocol request variant.
type Request interface {
	// OpCode reports the op-code this variant encodes as.
	OpCode() wiremessage.OpCode
	// Encode serializes the request body and header into a single frame
	// carrying requestID, failing with wiremessage.FrameTooLargeError if
	// maxFrameBytes is exceeded (maxFrameBytes <= 0 means unbounded).
	Encode(requestID int32, maxFrameBytes int) (rope.Rope, error)
}

// encodeFrame writes body via fill, then prefixes it with a wire header
// carrying requestID and opCode, enforcing maxFrameBytes.
func encodeFrame(requestID int32, opCode wiremessage.OpCode, maxFrameBytes int, fill func(*rope.Builder) error) (rope.Rope, error) {
	bb := rope.NewBuilder()
	if err := fill(bb); err != nil {
		return rope.Rope{}, err
	}
	body := bb.Build()

	total := wiremessage.HeaderLen + body.Len()
	if maxFrameBytes > 0 && total > maxFrameBytes {
		return rope.Rope{}, wiremessage.FrameTooLargeError{Length: total, MaxSize: maxFrameBytes}
	}

	out := rope.NewBuilder()
	wiremessage.AppendHeader(out, wiremessage.Header{
		MessageLength: int32(total),
		RequestID:     requestID,
		ResponseTo:    0,
		OpCode:        opCode,
	})
	out.AppendRope(body)
	return out.Build(), nil
}
