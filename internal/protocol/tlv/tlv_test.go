package tlv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

func TestEncodeDecodeFieldsPreservesUnknown(t *testing.T) {
	testlog.Start(t)

	in := []Field{
		String(1, "alice"),
		{ID: 9999, Type: TypeBytes, Value: []byte{0xAA, 0xBB}},
	}
	out, err := DecodeFields(EncodeFields(in))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 9999 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[1])
	}
}

func TestTypedAccessors(t *testing.T) {
	testlog.Start(t)

	fields, err := DecodeFields(EncodeFields([]Field{U8(1, 4), U16(2, 513), String(3, "bob")}))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	f, _ := GetField(fields, 1)
	if v, err := AsU8(f); err != nil || v != 4 {
		t.Fatalf("unexpected u8: got=%d err=%v", v, err)
	}
	f, _ = GetField(fields, 2)
	if v, err := AsU16(f); err != nil || v != 513 {
		t.Fatalf("unexpected u16: got=%d err=%v", v, err)
	}
	f, _ = GetField(fields, 3)
	if _, err := AsU8(f); err == nil {
		t.Fatalf("expected type mismatch for string field")
	}
	if _, ok := GetField(fields, 77); ok {
		t.Fatalf("unexpected field 77")
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)

	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	testlog.Start(t)

	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}
