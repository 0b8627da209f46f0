package bson

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// machineProcess is a 5-byte value unique to this process, seeded once from
// a random UUID rather than hand-rolled crypto/rand plumbing: it only needs
// to differ across processes, which a UUID's randomness already guarantees.
var machineProcess = func() [5]byte {
	var mp [5]byte
	id := uuid.New()
	copy(mp[:], id[:5])
	return mp
}()

var objectIDCounter uint32

// NewObjectID generates a fresh ObjectID: a 4-byte Unix timestamp, the
// process-wide 5-byte machine/process value, and a 3-byte counter that
// increments atomically across the process.
func NewObjectID() ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(time.Now().Unix()))
	copy(id[4:9], machineProcess[:])
	c := atomic.AddUint32(&objectIDCounter, 1)
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)
	return id
}

// Hex returns the lowercase hexadecimal representation of the ObjectID.
func (id ObjectID) Hex() string {
	const digits = "0123456789abcdef"
	out := make([]byte, 24)
	for i, b := range id {
		out[i*2] = digits[b>>4]
		out[i*2+1] = digits[b&0x0f]
	}
	return string(out)
}
