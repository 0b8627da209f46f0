// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bson implements a zero-copy BSON codec: a Builder that writes
// directly into a rope.Rope and a Reader that interprets BSON lazily in
// place, without materializing an intermediate document tree.
package bson

import "fmt"

// Type is a BSON element tag byte, matching the BSON specification exactly.
type Type byte

// Element tags, see bsonspec.org.
const (
	TypeDouble     Type = 0x01
	TypeString     Type = 0x02
	TypeDocument   Type = 0x03
	TypeArray      Type = 0x04
	TypeBinary     Type = 0x05
	TypeUndefined  Type = 0x06
	TypeObjectID   Type = 0x07
	TypeBoolean    Type = 0x08
	TypeDateTime   Type = 0x09
	TypeNull       Type = 0x0A
	TypeRegex      Type = 0x0B
	TypeDBPointer  Type = 0x0C
	TypeJavaScript Type = 0x0D
	TypeSymbol     Type = 0x0E
	TypeScopedJS   Type = 0x0F
	TypeInt32      Type = 0x10
	TypeTimestamp  Type = 0x11
	TypeInt64      Type = 0x12
)

func (t Type) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeDocument:
		return "document"
	case TypeArray:
		return "array"
	case TypeBinary:
		return "binary"
	case TypeUndefined:
		return "undefined"
	case TypeObjectID:
		return "objectID"
	case TypeBoolean:
		return "boolean"
	case TypeDateTime:
		return "datetime"
	case TypeNull:
		return "null"
	case TypeRegex:
		return "regex"
	case TypeDBPointer:
		return "dbPointer"
	case TypeJavaScript:
		return "javascript"
	case TypeSymbol:
		return "symbol"
	case TypeScopedJS:
		return "scopedJavascript"
	case TypeInt32:
		return "int32"
	case TypeTimestamp:
		return "timestamp"
	case TypeInt64:
		return "int64"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// ObjectID is a 12-byte MongoDB identifier.
type ObjectID [12]byte

// validRegexOptions are the only option letters BSON regex values may carry,
// and they must be supplied in ascending order.
const validRegexOptions = "ilmsux"

func validateRegexOptions(options string) error {
	last := -1
	for _, r := range options {
		idx := -1
		for i, c := range validRegexOptions {
			if c == r {
				idx = i
				break
			}
		}
		if idx == -1 || idx <= last {
			return InvalidRegexOptionsError{Options: options}
		}
		last = idx
	}
	return nil
}
