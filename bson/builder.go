package bson

import (
	"strconv"

	"github.com/driftmongo/corewire/rope"
)

// Val is a field-name-less BSON payload, used as the entries of an array.
type Val struct {
	Type  Type
	write func(*rope.Builder) error
}

// Elem is a named BSON field, the unit NewDocument assembles a document
// from. EC below is the constructor namespace, one method per BSON tag.
type Elem struct {
	Type  Type
	Name  string
	write func(*rope.Builder) error
}

func elemOf(name string, v Val) Elem {
	return Elem{Type: v.Type, Name: name, write: v.write}
}

// ecNamespace is the constructor namespace for document fields. EC is its
// only instance.
type ecNamespace struct{}

// EC constructs named document fields, one method per BSON tag.
var EC ecNamespace

// avNamespace is the constructor namespace for array entries (same tags,
// no field name). AV is its only instance.
type avNamespace struct{}

// AV constructs array entries, one method per BSON tag.
var AV avNamespace

func (avNamespace) Double(v float64) Val {
	return Val{Type: TypeDouble, write: func(b *rope.Builder) error {
		b.AppendF64LE(v)
		return nil
	}}
}

func (ecNamespace) Double(name string, v float64) Elem { return elemOf(name, AV.Double(v)) }

func (avNamespace) String(v string) Val {
	return Val{Type: TypeString, write: func(b *rope.Builder) error {
		return b.AppendUTF8String(v)
	}}
}

func (ecNamespace) String(name string, v string) Elem { return elemOf(name, AV.String(v)) }

func (avNamespace) SubDocument(doc rope.Rope) Val {
	return Val{Type: TypeDocument, write: func(b *rope.Builder) error {
		b.AppendRope(doc)
		return nil
	}}
}

func (ecNamespace) SubDocument(name string, doc rope.Rope) Elem {
	return elemOf(name, AV.SubDocument(doc))
}

func (avNamespace) Array(vals ...Val) Val {
	return Val{Type: TypeArray, write: func(b *rope.Builder) error {
		arr, err := buildArray(vals)
		if err != nil {
			return err
		}
		b.AppendRope(arr)
		return nil
	}}
}

func (ecNamespace) Array(name string, vals ...Val) Elem {
	return elemOf(name, AV.Array(vals...))
}

func (avNamespace) Binary(subtype byte, data []byte) Val {
	return Val{Type: TypeBinary, write: func(b *rope.Builder) error {
		b.AppendI32LE(int32(len(data)))
		b.AppendU8(subtype)
		b.AppendBytes(data)
		return nil
	}}
}

func (ecNamespace) Binary(name string, subtype byte, data []byte) Elem {
	return elemOf(name, AV.Binary(subtype, data))
}

func (avNamespace) Undefined() Val {
	return Val{Type: TypeUndefined, write: func(b *rope.Builder) error { return nil }}
}

func (ecNamespace) Undefined(name string) Elem { return elemOf(name, AV.Undefined()) }

func (avNamespace) ObjectID(id ObjectID) Val {
	return Val{Type: TypeObjectID, write: func(b *rope.Builder) error {
		b.AppendBytes(id[:])
		return nil
	}}
}

func (ecNamespace) ObjectID(name string, id ObjectID) Elem { return elemOf(name, AV.ObjectID(id)) }

func (avNamespace) Boolean(v bool) Val {
	return Val{Type: TypeBoolean, write: func(b *rope.Builder) error {
		if v {
			b.AppendU8(0x01)
		} else {
			b.AppendU8(0x00)
		}
		return nil
	}}
}

func (ecNamespace) Boolean(name string, v bool) Elem { return elemOf(name, AV.Boolean(v)) }

func (avNamespace) DateTime(unixMilli int64) Val {
	return Val{Type: TypeDateTime, write: func(b *rope.Builder) error {
		b.AppendI64LE(unixMilli)
		return nil
	}}
}

func (ecNamespace) DateTime(name string, unixMilli int64) Elem {
	return elemOf(name, AV.DateTime(unixMilli))
}

func (avNamespace) Null() Val {
	return Val{Type: TypeNull, write: func(b *rope.Builder) error { return nil }}
}

func (ecNamespace) Null(name string) Elem { return elemOf(name, AV.Null()) }

func (avNamespace) Regex(pattern, options string) Val {
	return Val{Type: TypeRegex, write: func(b *rope.Builder) error {
		if err := validateRegexOptions(options); err != nil {
			return err
		}
		if err := b.AppendCString(pattern); err != nil {
			return err
		}
		return b.AppendCString(options)
	}}
}

func (ecNamespace) Regex(name, pattern, options string) Elem {
	return elemOf(name, AV.Regex(pattern, options))
}

func (avNamespace) DBPointer(ns string, id ObjectID) Val {
	return Val{Type: TypeDBPointer, write: func(b *rope.Builder) error {
		if err := b.AppendUTF8String(ns); err != nil {
			return err
		}
		b.AppendBytes(id[:])
		return nil
	}}
}

func (ecNamespace) DBPointer(name, ns string, id ObjectID) Elem {
	return elemOf(name, AV.DBPointer(ns, id))
}

func (avNamespace) JavaScript(code string) Val {
	return Val{Type: TypeJavaScript, write: func(b *rope.Builder) error {
		return b.AppendUTF8String(code)
	}}
}

func (ecNamespace) JavaScript(name, code string) Elem { return elemOf(name, AV.JavaScript(code)) }

func (avNamespace) Symbol(sym string) Val {
	return Val{Type: TypeSymbol, write: func(b *rope.Builder) error {
		return b.AppendUTF8String(sym)
	}}
}

func (ecNamespace) Symbol(name, sym string) Elem { return elemOf(name, AV.Symbol(sym)) }

func (avNamespace) CodeWithScope(code string, scope rope.Rope) Val {
	return Val{Type: TypeScopedJS, write: func(b *rope.Builder) error {
		inner := rope.NewBuilder()
		if err := inner.AppendUTF8String(code); err != nil {
			return err
		}
		inner.AppendRope(scope)
		payload := inner.Build()
		b.AppendI32LE(int32(4 + payload.Len()))
		b.AppendRope(payload)
		return nil
	}}
}

func (ecNamespace) CodeWithScope(name, code string, scope rope.Rope) Elem {
	return elemOf(name, AV.CodeWithScope(code, scope))
}

func (avNamespace) Int32(v int32) Val {
	return Val{Type: TypeInt32, write: func(b *rope.Builder) error {
		b.AppendI32LE(v)
		return nil
	}}
}

func (ecNamespace) Int32(name string, v int32) Elem { return elemOf(name, AV.Int32(v)) }

func (avNamespace) Timestamp(v int64) Val {
	return Val{Type: TypeTimestamp, write: func(b *rope.Builder) error {
		b.AppendI64LE(v)
		return nil
	}}
}

func (ecNamespace) Timestamp(name string, v int64) Elem { return elemOf(name, AV.Timestamp(v)) }

func (avNamespace) Int64(v int64) Val {
	return Val{Type: TypeInt64, write: func(b *rope.Builder) error {
		b.AppendI64LE(v)
		return nil
	}}
}

func (ecNamespace) Int64(name string, v int64) Elem { return elemOf(name, AV.Int64(v)) }

// buildFields writes elems' tag+cstring-name+payload triples into a fresh
// rope.Builder and returns the accumulated field bytes (no outer length
// prefix or trailing terminator).
func buildFields(elems []Elem) (rope.Rope, error) {
	b := rope.NewBuilder()
	for _, e := range elems {
		b.AppendU8(byte(e.Type))
		if err := b.AppendCString(e.Name); err != nil {
			return rope.Rope{}, InvalidFieldNameError{Name: e.Name}
		}
		if err := e.write(b); err != nil {
			if err == rope.ErrStringTooLarge {
				return rope.Rope{}, ValueTooLargeError{Field: e.Name}
			}
			return rope.Rope{}, err
		}
	}
	return b.Build(), nil
}

// buildArray writes vals as a document whose field names are "0","1",...
func buildArray(vals []Val) (rope.Rope, error) {
	elems := make([]Elem, len(vals))
	for i, v := range vals {
		elems[i] = Elem{Type: v.Type, Name: strconv.Itoa(i), write: v.write}
	}
	return wrapDocument(elems)
}

// wrapDocument wraps elems' serialized fields with the leading int32 length
// (including itself and the trailing 0x00) and the trailing 0x00.
func wrapDocument(elems []Elem) (rope.Rope, error) {
	fields, err := buildFields(elems)
	if err != nil {
		return rope.Rope{}, err
	}
	total := int64(4) + int64(fields.Len()) + 1
	if total > int64(maxInt32()) {
		return rope.Rope{}, ValueTooLargeError{Field: "<document>"}
	}
	out := rope.NewBuilder()
	out.AppendI32LE(int32(total))
	out.AppendRope(fields)
	out.AppendU8(0x00)
	return out.Build(), nil
}

func maxInt32() int32 { return 1<<31 - 1 }

// NewDocument builds a top-level BSON document from elems, producing a
// single immutable rope.Rope ready to be written to the wire.
func NewDocument(elems ...Elem) (rope.Rope, error) {
	return wrapDocument(elems)
}
