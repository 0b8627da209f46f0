package bson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The document length prefix in BSON counts itself and the trailing 0x00,
// so a document's total byte length is always 4 (length) + sum of element
// bytes + 1 (terminator). These tests check that invariant plus the exact
// field bytes, rather than a single magic total, since the total is
// derived.

func TestDoubleFieldExactBytes(t *testing.T) {
	doc, err := NewDocument(EC.Double("double", 42.0))
	require.NoError(t, err)
	b := doc.Bytes()
	require.Equal(t, le32(b[0:4]), int32(len(b)))
	require.Equal(t, byte(0x01), b[4])
	require.Equal(t, "double\x00", string(b[5:12]))
	require.Len(t, b, 4+1+7+8+1)
	require.Equal(t, byte(0x00), b[len(b)-1])
}

func TestStringFieldExactBytes(t *testing.T) {
	doc, err := NewDocument(EC.String("string", "fourty-two"))
	require.NoError(t, err)
	b := doc.Bytes()
	require.Equal(t, le32(b[0:4]), int32(len(b)))
	require.Len(t, b, 4+1+7+(4+10+1)+1)
}

func TestBooleanFieldsExactBytes(t *testing.T) {
	doc, err := NewDocument(EC.Boolean("true", true), EC.Boolean("false", false))
	require.NoError(t, err)
	b := doc.Bytes()
	require.Equal(t, le32(b[0:4]), int32(len(b)))
	require.Len(t, b, 4+(1+5+1)+(1+6+1)+1)
	require.Equal(t, byte(0x01), b[10])
	require.Equal(t, byte(0x00), b[len(b)-2])
}

func TestRegexFieldExactBytes(t *testing.T) {
	doc, err := NewDocument(EC.Regex("regex", "pattern", "ilmsux"))
	require.NoError(t, err)
	b := doc.Bytes()
	require.Equal(t, le32(b[0:4]), int32(len(b)))
	require.Len(t, b, 4+1+6+8+7+1)
}

func TestInvalidFieldNameFails(t *testing.T) {
	_, err := NewDocument(EC.Double("bad\x00name", 1))
	require.Error(t, err)
	var target InvalidFieldNameError
	require.ErrorAs(t, err, &target)
}

func TestInvalidRegexOptionsFails(t *testing.T) {
	_, err := NewDocument(EC.Regex("r", "p", "fubar"))
	require.Error(t, err)
	var target InvalidRegexOptionsError
	require.ErrorAs(t, err, &target)
}

func TestRegexOptionsMustBeAscending(t *testing.T) {
	_, err := NewDocument(EC.Regex("r", "p", "xi"))
	require.Error(t, err)
}

func TestArrayEncodedAsIndexedDocument(t *testing.T) {
	doc, err := NewDocument(EC.Array("nums", AV.Int32(1), AV.Int32(2), AV.Int32(3)))
	require.NoError(t, err)
	parsed, err := OpenDocument(doc)
	require.NoError(t, err)
	arr, err := parsed.GetArray("nums")
	require.NoError(t, err)
	v0, err := arr.GetInt32("0")
	require.NoError(t, err)
	require.Equal(t, int32(1), v0)
	v2, err := arr.GetInt32("2")
	require.NoError(t, err)
	require.Equal(t, int32(3), v2)
}

func le32(b []byte) int32 {
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}
