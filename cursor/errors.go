package cursor

import (
	"fmt"

	"github.com/driftmongo/corewire/bson"
)

// CursorInvalid is returned by Next/HasNext once the server reports
// CursorNotFound for this stream's cursorID.
type CursorInvalid struct {
	CursorID int64
}

func (e CursorInvalid) Error() string {
	return fmt.Sprintf("cursor: server reports cursor %d invalid", e.CursorID)
}

// ServerError is returned when a reply carries the QueryFailure flag. Doc
// is the reply's sole document, expected to carry an "$err" field.
type ServerError struct {
	Doc *bson.Document
}

func (e ServerError) Error() string {
	if e.Doc == nil {
		return "cursor: server reported query failure"
	}
	if msg, err := e.Doc.GetUTF8("$err"); err == nil {
		return fmt.Sprintf("cursor: server reported query failure: %s", msg)
	}
	return "cursor: server reported query failure"
}

// ErrClosed is returned by Next/HasNext once Close has been called.
type ErrClosed struct{}

func (ErrClosed) Error() string { return "cursor: stream is closed" }
