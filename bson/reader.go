package bson

import (
	"fmt"

	"github.com/driftmongo/corewire/rope"
)

// Document is a lazily-parsed view over a serialized BSON document. Opening
// it only checks the length prefix and trailing terminator; each field is
// decoded on demand as the caller iterates or calls Get.
type Document struct {
	fields rope.Rope
	raw    rope.Rope
}

// OpenDocument validates a document's length and trailing terminator and
// returns a lazy view over its fields. No field is decoded yet.
func OpenDocument(r rope.Rope) (*Document, error) {
	rd := r.Reader()
	length, err := rd.ReadI32LE()
	if err != nil {
		return nil, err
	}
	if int(length) != r.Len() {
		return nil, LengthMismatchError{Declared: length, Actual: r.Len()}
	}
	if length < 5 {
		return nil, LengthMismatchError{Declared: length, Actual: r.Len()}
	}
	fields, err := rd.Slice(int(length) - 5)
	if err != nil {
		return nil, err
	}
	term, err := rd.ReadBytes(1)
	if err != nil {
		return nil, err
	}
	if term[0] != 0x00 {
		return nil, LengthMismatchError{Declared: length, Actual: r.Len()}
	}
	return &Document{fields: fields, raw: r}, nil
}

// Raw returns the document's exact on-wire bytes, including the length
// prefix and trailing terminator.
func (d *Document) Raw() rope.Rope { return d.raw }

// Element is one decoded (name, value) pair produced while iterating.
type Element struct {
	Name  string
	Value Value
}

// Iterator walks a Document's fields in on-wire order.
type Iterator struct {
	rd  *rope.Reader
	err error
}

// Iterator returns a fresh forward-only iterator over d's fields.
func (d *Document) Iterator() *Iterator {
	return &Iterator{rd: d.fields.Reader()}
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Next advances to the next element, returning false at the end of the
// document or on decode error (check Err to distinguish).
func (it *Iterator) Next() (Element, bool) {
	if it.err != nil || it.rd.Remaining() == 0 {
		return Element{}, false
	}
	tagByte, err := it.rd.ReadBytes(1)
	if err != nil {
		it.err = err
		return Element{}, false
	}
	tag := Type(tagByte[0])
	if !isKnownTag(tag) {
		it.err = BadTagError{Tag: tagByte[0]}
		return Element{}, false
	}
	name, err := it.rd.ReadCString()
	if err != nil {
		it.err = err
		return Element{}, false
	}
	val, err := readValue(it.rd, tag)
	if err != nil {
		it.err = err
		return Element{}, false
	}
	return Element{Name: name, Value: val}, true
}

func isKnownTag(t Type) bool {
	switch t {
	case TypeDouble, TypeString, TypeDocument, TypeArray, TypeBinary, TypeUndefined,
		TypeObjectID, TypeBoolean, TypeDateTime, TypeNull, TypeRegex, TypeDBPointer,
		TypeJavaScript, TypeSymbol, TypeScopedJS, TypeInt32, TypeTimestamp, TypeInt64:
		return true
	default:
		return false
	}
}

// Contains reports whether the document has a field named name.
func (d *Document) Contains(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Get returns the first field named name, in on-wire order.
func (d *Document) Get(name string) (Value, bool) {
	it := d.Iterator()
	for {
		elem, ok := it.Next()
		if !ok {
			return Value{}, false
		}
		if elem.Name == name {
			return elem.Value, true
		}
	}
}

// All decodes every element eagerly into a slice, in on-wire order,
// duplicate names included.
func (d *Document) All() ([]Element, error) {
	it := d.Iterator()
	var out []Element
	for {
		elem, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, elem)
	}
	if it.Err() != nil {
		return nil, it.Err()
	}
	return out, nil
}

// GetDouble looks up name and returns it as a float64.
func (d *Document) GetDouble(name string) (float64, error) {
	v, ok := d.Get(name)
	if !ok {
		return 0, KeyNotFoundError{Name: name}
	}
	return v.Double(name)
}

// GetInt32 looks up name and returns it as an int32.
func (d *Document) GetInt32(name string) (int32, error) {
	v, ok := d.Get(name)
	if !ok {
		return 0, KeyNotFoundError{Name: name}
	}
	return v.Int32(name)
}

// GetInt64 looks up name and returns it as an int64.
func (d *Document) GetInt64(name string) (int64, error) {
	v, ok := d.Get(name)
	if !ok {
		return 0, KeyNotFoundError{Name: name}
	}
	return v.Int64(name)
}

// GetUTF8 looks up name and returns it as a string.
func (d *Document) GetUTF8(name string) (string, error) {
	v, ok := d.Get(name)
	if !ok {
		return "", KeyNotFoundError{Name: name}
	}
	return v.UTF8(name)
}

// GetBool looks up name and returns it as a bool.
func (d *Document) GetBool(name string) (bool, error) {
	v, ok := d.Get(name)
	if !ok {
		return false, KeyNotFoundError{Name: name}
	}
	return v.Bool(name)
}

// GetDateTimeMillis looks up name and returns milliseconds since the epoch.
func (d *Document) GetDateTimeMillis(name string) (int64, error) {
	v, ok := d.Get(name)
	if !ok {
		return 0, KeyNotFoundError{Name: name}
	}
	return v.DateTimeMillis(name)
}

// GetObjectID looks up name and returns it as an ObjectID.
func (d *Document) GetObjectID(name string) (ObjectID, error) {
	v, ok := d.Get(name)
	if !ok {
		return ObjectID{}, KeyNotFoundError{Name: name}
	}
	return v.ObjectIDValue(name)
}

// GetBinary looks up name and returns its subtype and payload.
func (d *Document) GetBinary(name string) (byte, []byte, error) {
	v, ok := d.Get(name)
	if !ok {
		return 0, nil, KeyNotFoundError{Name: name}
	}
	return v.Binary(name)
}

// GetArray looks up name and returns it as a Document of index fields.
func (d *Document) GetArray(name string) (*Document, error) {
	v, ok := d.Get(name)
	if !ok {
		return nil, KeyNotFoundError{Name: name}
	}
	return v.Array(name)
}

// GetDocument looks up name and returns it as an embedded Document.
func (d *Document) GetDocument(name string) (*Document, error) {
	v, ok := d.Get(name)
	if !ok {
		return nil, KeyNotFoundError{Name: name}
	}
	return v.Document(name)
}

// KeyNotFoundError is returned by the GetXxx convenience accessors when no
// field with the requested name exists.
type KeyNotFoundError struct {
	Name string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("bson: no such key %q", e.Name)
}

// readValue decodes the tag-dictated payload width starting at rd's current
// position and returns a Value wrapping the raw (still undecoded) payload
// bytes, advancing rd past the value.
func readValue(rd *rope.Reader, tag Type) (Value, error) {
	switch tag {
	case TypeDouble, TypeDateTime, TypeTimestamp, TypeInt64:
		raw, err := rd.Slice(8)
		return Value{Type: tag, raw: raw}, err
	case TypeInt32:
		raw, err := rd.Slice(4)
		return Value{Type: tag, raw: raw}, err
	case TypeBoolean:
		raw, err := rd.Slice(1)
		return Value{Type: tag, raw: raw}, err
	case TypeNull, TypeUndefined:
		return Value{Type: tag}, nil
	case TypeObjectID:
		raw, err := rd.Slice(12)
		return Value{Type: tag, raw: raw}, err
	case TypeString, TypeJavaScript, TypeSymbol:
		n, err := rd.ReadI32LE()
		if err != nil {
			return Value{}, err
		}
		if n < 1 {
			return Value{}, TruncatedError{}
		}
		raw, err := rd.Slice(int(n))
		return Value{Type: tag, raw: raw}, err
	case TypeDocument, TypeArray:
		peek := *rd
		length, err := peek.ReadI32LE()
		if err != nil {
			return Value{}, err
		}
		raw, err := rd.Slice(int(length))
		return Value{Type: tag, raw: raw}, err
	case TypeBinary:
		n, err := rd.ReadI32LE()
		if err != nil {
			return Value{}, err
		}
		raw, err := rd.Slice(1 + int(n))
		return Value{Type: tag, raw: raw}, err
	case TypeRegex:
		peek := *rd
		if _, err := peek.ReadCString(); err != nil {
			return Value{}, err
		}
		if _, err := peek.ReadCString(); err != nil {
			return Value{}, err
		}
		width := peek.Pos() - rd.Pos()
		raw, err := rd.Slice(width)
		return Value{Type: tag, raw: raw}, err
	case TypeDBPointer:
		peek := *rd
		if _, err := peek.ReadUTF8String(); err != nil {
			return Value{}, err
		}
		if _, err := peek.ReadBytes(12); err != nil {
			return Value{}, err
		}
		width := peek.Pos() - rd.Pos()
		raw, err := rd.Slice(width)
		return Value{Type: tag, raw: raw}, err
	case TypeScopedJS:
		peek := *rd
		total, err := peek.ReadI32LE()
		if err != nil {
			return Value{}, err
		}
		raw, err := rd.Slice(int(total))
		return Value{Type: tag, raw: raw}, err
	default:
		return Value{}, BadTagError{Tag: byte(tag)}
	}
}
