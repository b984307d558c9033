package schema

import (
	"errors"
	"testing"

	"github.com/danmuck/cribbage/internal/protocol/tlv"
	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

func TestValidateJoinNotificationRequiredFields(t *testing.T) {
	testlog.Start(t)
	fields := []tlv.Field{
		tlv.String(FieldName, "alice"),
		tlv.U8(FieldNumber, 1),
		tlv.U8(FieldOf, 2),
	}
	if err := Validate(MsgPlayerJoinNotification, fields); err != nil {
		t.Fatalf("validate join notification: %v", err)
	}
}

func TestValidateEmptyMessages(t *testing.T) {
	testlog.Start(t)
	for _, msg := range []uint32{MsgGreeting, MsgAck, MsgWaitName, MsgDisconnect} {
		if err := Validate(msg, nil); err != nil {
			t.Fatalf("validate message_type=%d: %v", msg, err)
		}
	}
}

func TestValidateUnknownFieldsIgnored(t *testing.T) {
	testlog.Start(t)
	fields := []tlv.Field{
		tlv.String(FieldName, "bob"),
		{ID: 9999, Type: tlv.TypeBytes, Value: []byte{0x01}},
	}
	if err := Validate(MsgName, fields); err != nil {
		t.Fatalf("validate with unknown field: %v", err)
	}
}

func TestValidateMissingRequiredDeterministic(t *testing.T) {
	testlog.Start(t)
	err := Validate(MsgDiscardTwo, []tlv.Field{tlv.U8(FieldIndex1, 0)})
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != FieldIndex2 || ve.Reason != "missing required field" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateTypeMismatchDeterministic(t *testing.T) {
	testlog.Start(t)
	err := Validate(MsgDiscardOne, []tlv.Field{tlv.String(FieldIndex1, "0")})
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.FieldID != FieldIndex1 || ve.Reason != "type mismatch" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestValidateUnknownMessageType(t *testing.T) {
	testlog.Start(t)
	if Known(4242) {
		t.Fatalf("unexpected known message type")
	}
	err := Validate(4242, nil)
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Reason != "unknown message_type" {
		t.Fatalf("unexpected error: %v", err)
	}
}
