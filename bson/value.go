package bson

import "github.com/driftmongo/corewire/rope"

// Value is a lazily-decodable BSON value: its tag is known immediately, but
// the payload is only interpreted when a typed accessor is called.
type Value struct {
	Type Type
	raw  rope.Rope
}

func (v Value) mismatch(field string, want Type) error {
	return TypeMismatchError{Field: field, Want: want, Got: v.Type}
}

// Double returns the value as a float64.
func (v Value) Double(field string) (float64, error) {
	if v.Type != TypeDouble {
		return 0, v.mismatch(field, TypeDouble)
	}
	return v.raw.Reader().ReadF64LE()
}

// Int32 returns the value as an int32.
func (v Value) Int32(field string) (int32, error) {
	if v.Type != TypeInt32 {
		return 0, v.mismatch(field, TypeInt32)
	}
	return v.raw.Reader().ReadI32LE()
}

// Int64 returns the value as an int64. Accepts Int64 and Timestamp tags,
// since both are 8-byte integers on the wire.
func (v Value) Int64(field string) (int64, error) {
	if v.Type != TypeInt64 && v.Type != TypeTimestamp {
		return 0, v.mismatch(field, TypeInt64)
	}
	return v.raw.Reader().ReadI64LE()
}

// UTF8 returns the value as a Go string. Accepts String, JavaScript, and
// Symbol tags, which all share the utf8-string wire encoding.
func (v Value) UTF8(field string) (string, error) {
	switch v.Type {
	case TypeString, TypeJavaScript, TypeSymbol:
	default:
		return "", v.mismatch(field, TypeString)
	}
	b := v.raw.Bytes()
	if len(b) == 0 || b[len(b)-1] != 0x00 {
		return "", TruncatedError{Field: field}
	}
	return string(b[:len(b)-1]), nil
}

// Bool returns the value as a bool.
func (v Value) Bool(field string) (bool, error) {
	if v.Type != TypeBoolean {
		return false, v.mismatch(field, TypeBoolean)
	}
	b := v.raw.Bytes()
	if len(b) != 1 {
		return false, TruncatedError{Field: field}
	}
	return b[0] != 0x00, nil
}

// DateTimeMillis returns the value as milliseconds since the Unix epoch.
func (v Value) DateTimeMillis(field string) (int64, error) {
	if v.Type != TypeDateTime {
		return 0, v.mismatch(field, TypeDateTime)
	}
	return v.raw.Reader().ReadI64LE()
}

// ObjectIDValue returns the value as an ObjectID.
func (v Value) ObjectIDValue(field string) (ObjectID, error) {
	if v.Type != TypeObjectID {
		return ObjectID{}, v.mismatch(field, TypeObjectID)
	}
	b := v.raw.Bytes()
	if len(b) != 12 {
		return ObjectID{}, TruncatedError{Field: field}
	}
	var id ObjectID
	copy(id[:], b)
	return id, nil
}

// Binary returns the value's subtype byte and payload.
func (v Value) Binary(field string) (byte, []byte, error) {
	if v.Type != TypeBinary {
		return 0, nil, v.mismatch(field, TypeBinary)
	}
	b := v.raw.Bytes()
	if len(b) < 1 {
		return 0, nil, TruncatedError{Field: field}
	}
	return b[0], b[1:], nil
}

// Array returns the value as a Document whose field names are the decimal
// indices "0","1",...
func (v Value) Array(field string) (*Document, error) {
	if v.Type != TypeArray {
		return nil, v.mismatch(field, TypeArray)
	}
	return OpenDocument(v.raw)
}

// Document returns the value as an embedded Document.
func (v Value) Document(field string) (*Document, error) {
	if v.Type != TypeDocument {
		return nil, v.mismatch(field, TypeDocument)
	}
	return OpenDocument(v.raw)
}

// Regex returns the value's pattern and options.
func (v Value) Regex(field string) (pattern, options string, err error) {
	if v.Type != TypeRegex {
		return "", "", v.mismatch(field, TypeRegex)
	}
	r := v.raw.Reader()
	pattern, err = r.ReadCString()
	if err != nil {
		return "", "", err
	}
	options, err = r.ReadCString()
	if err != nil {
		return "", "", err
	}
	return pattern, options, nil
}

// DBPointer returns the value's namespace and referenced ObjectID.
func (v Value) DBPointer(field string) (string, ObjectID, error) {
	if v.Type != TypeDBPointer {
		return "", ObjectID{}, v.mismatch(field, TypeDBPointer)
	}
	r := v.raw.Reader()
	ns, err := r.ReadUTF8String()
	if err != nil {
		return "", ObjectID{}, err
	}
	idBytes, err := r.ReadBytes(12)
	if err != nil {
		return "", ObjectID{}, err
	}
	var id ObjectID
	copy(id[:], idBytes)
	return ns, id, nil
}

// RawBytes returns the exact on-wire payload bytes for the value, without
// interpreting them. Useful for pass-through (e.g. copying a sub-document
// field into another document without decoding it).
func (v Value) RawBytes() []byte { return v.raw.Bytes() }
