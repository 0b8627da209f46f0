// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package rope implements an immutable, append-only byte rope used as the
// backing store for the BSON codec and wire frames. Concatenating two ropes
// is O(1): the chunk slices are shared, never copied.
package rope

import "io"

// Rope is an immutable ordered sequence of byte chunks. The zero value is an
// empty Rope.
type Rope struct {
	chunks [][]byte
	length int
}

// Len returns the total number of bytes across all chunks.
func (r Rope) Len() int { return r.length }

// IsEmpty reports whether the rope has no bytes.
func (r Rope) IsEmpty() bool { return r.length == 0 }

// Append returns a new Rope with r's chunks followed by other's chunks. No
// byte is copied; both ropes may keep being used afterwards since chunks are
// never mutated in place once shared.
func (r Rope) Append(other Rope) Rope {
	if other.length == 0 {
		return r
	}
	if r.length == 0 {
		return other
	}
	chunks := make([][]byte, 0, len(r.chunks)+len(other.chunks))
	chunks = append(chunks, r.chunks...)
	chunks = append(chunks, other.chunks...)
	return Rope{chunks: chunks, length: r.length + other.length}
}

// AppendChunk returns a new Rope with b appended as a single additional
// chunk. b is not copied; the caller must not mutate it afterwards.
func (r Rope) AppendChunk(b []byte) Rope {
	if len(b) == 0 {
		return r
	}
	chunks := make([][]byte, len(r.chunks), len(r.chunks)+1)
	copy(chunks, r.chunks)
	chunks = append(chunks, b)
	return Rope{chunks: chunks, length: r.length + len(b)}
}

// Bytes materializes the rope into a single contiguous slice. This copies;
// prefer streaming via WriteTo or Reader when a copy is avoidable.
func (r Rope) Bytes() []byte {
	out := make([]byte, 0, r.length)
	for _, c := range r.chunks {
		out = append(out, c...)
	}
	return out
}

// WriteTo writes the rope's chunks to w in order without an intermediate
// concatenation, satisfying io.WriterTo.
func (r Rope) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, c := range r.chunks {
		n, err := w.Write(c)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Slice returns a view of the bytes in [from, to). It shares chunks with r
// and allocates only the small slice-of-slices header, never the payload.
func (r Rope) Slice(from, to int) Rope {
	if from < 0 || to > r.length || from > to {
		panic("rope: slice out of range")
	}
	if from == to {
		return Rope{}
	}
	var chunks [][]byte
	pos := 0
	for _, c := range r.chunks {
		cStart, cEnd := pos, pos+len(c)
		pos = cEnd
		if cEnd <= from || cStart >= to {
			continue
		}
		lo, hi := 0, len(c)
		if cStart < from {
			lo = from - cStart
		}
		if cEnd > to {
			hi = to - cStart
		}
		chunks = append(chunks, c[lo:hi])
	}
	return Rope{chunks: chunks, length: to - from}
}

// Reader returns a forward-only cursor over r's bytes.
func (r Rope) Reader() *Reader {
	return &Reader{rope: r}
}
