package wiremessage

// QueryFlags are the bits of an OP_QUERY request's flags field. Bit 0 is
// reserved and must stay clear; bit 3 (oplogReplay) is never set by this
// package.
type QueryFlags int32

const (
	QueryTailableCursor  QueryFlags = 1 << 1
	QuerySlaveOK         QueryFlags = 1 << 2
	QueryNoCursorTimeout QueryFlags = 1 << 4
	QueryAwaitData       QueryFlags = 1 << 5
	QueryExhaust         QueryFlags = 1 << 6
	QueryPartial         QueryFlags = 1 << 7
)

// UpdateFlags are the bits of an OP_UPDATE request's flags field.
type UpdateFlags int32

const (
	UpdateUpsert      UpdateFlags = 1 << 0
	UpdateMultiUpdate UpdateFlags = 1 << 1
)

// InsertFlags are the bits of an OP_INSERT request's flags field.
type InsertFlags int32

const (
	InsertContinueOnError InsertFlags = 1 << 0
)

// DeleteFlags are the bits of an OP_DELETE request's flags field.
type DeleteFlags int32

const (
	DeleteSingleRemove DeleteFlags = 1 << 0
)

// ReplyFlags are the bits of an OP_REPLY response's responseFlags field.
type ReplyFlags int32

const (
	ReplyCursorNotFound   ReplyFlags = 1 << 0
	ReplyQueryFailure     ReplyFlags = 1 << 1
	ReplyShardConfigStale ReplyFlags = 1 << 2
	ReplyAwaitCapable     ReplyFlags = 1 << 3
)

// Has reports whether all of want's bits are set in f.
func (f ReplyFlags) Has(want ReplyFlags) bool { return f&want == want }
