package schema

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/protocol/tlv"
)

// Client -> server message types.
const (
	MsgGreeting     uint32 = 1
	MsgConfirmation uint32 = 2
	MsgName         uint32 = 3
	MsgDiscardOne   uint32 = 4
	MsgDiscardTwo   uint32 = 5
	MsgAck          uint32 = 6
)

// Server -> client message types.
const (
	MsgDeniedTableFull        uint32 = 100
	MsgWaitName               uint32 = 101
	MsgPlayerJoinNotification uint32 = 102
	MsgWaitInitialCut         uint32 = 103
	MsgInitialCutResult       uint32 = 104
	MsgInitialCutSuccess      uint32 = 105
	MsgInitialCutFailure      uint32 = 106
	MsgWaitDeal               uint32 = 107
	MsgDealing                uint32 = 108
	MsgDealtHand              uint32 = 109
	MsgWaitDiscardOne         uint32 = 110
	MsgWaitDiscardTwo         uint32 = 111
	MsgDiscardPlacedOne       uint32 = 112
	MsgDiscardPlacedTwo       uint32 = 113
	MsgAllDiscards            uint32 = 114
	MsgError                  uint32 = 115
	MsgDisconnect             uint32 = 116
	MsgWaitCutStarter         uint32 = 117
	MsgCutStarter             uint32 = 118
	MsgNibs                   uint32 = 119
)

const (
	FieldName   uint16 = 1
	FieldNumber uint16 = 2
	FieldOf     uint16 = 3
	FieldCard   uint16 = 4
	FieldCards  uint16 = 5
	FieldIndex1 uint16 = 6
	FieldIndex2 uint16 = 7
	FieldReason uint16 = 8
)

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

// Message types with an empty requirement list carry no payload.
var requirements = map[uint32][]Requirement{
	MsgGreeting:     nil,
	MsgConfirmation: nil,
	MsgName:         {{FieldName, tlv.TypeString}},
	MsgDiscardOne:   {{FieldIndex1, tlv.TypeU8}},
	MsgDiscardTwo:   {{FieldIndex1, tlv.TypeU8}, {FieldIndex2, tlv.TypeU8}},
	MsgAck:          nil,

	MsgDeniedTableFull: nil,
	MsgWaitName:        nil,
	MsgPlayerJoinNotification: {
		{FieldName, tlv.TypeString},
		{FieldNumber, tlv.TypeU8},
		{FieldOf, tlv.TypeU8},
	},
	MsgWaitInitialCut:    nil,
	MsgInitialCutResult:  {{FieldName, tlv.TypeString}, {FieldCard, tlv.TypeBytes}},
	MsgInitialCutSuccess: {{FieldName, tlv.TypeString}},
	MsgInitialCutFailure: nil,
	MsgWaitDeal:          nil,
	MsgDealing:           nil,
	MsgDealtHand:         {{FieldCards, tlv.TypeBytes}},
	MsgWaitDiscardOne:    nil,
	MsgWaitDiscardTwo:    nil,
	MsgDiscardPlacedOne:  {{FieldName, tlv.TypeString}},
	MsgDiscardPlacedTwo:  {{FieldName, tlv.TypeString}},
	MsgAllDiscards:       nil,
	MsgError:             {{FieldReason, tlv.TypeString}},
	MsgDisconnect:        nil,
	MsgWaitCutStarter:    nil,
	MsgCutStarter:        {{FieldName, tlv.TypeString}, {FieldCard, tlv.TypeBytes}},
	MsgNibs:              {{FieldName, tlv.TypeString}},
}

// Known reports whether messageType belongs to the contract.
func Known(messageType uint32) bool {
	_, ok := requirements[messageType]
	return ok
}

// Validate enforces required fields and required field types for a message type.
// Unknown fields are ignored.
func Validate(messageType uint32, fields []tlv.Field) error {
	reqs, ok := requirements[messageType]
	if !ok {
		log.Debug().Uint32("message_type", messageType).Msg("schema.Validate unknown message_type")
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Msg("schema.Validate missing field")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Debug().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema.Validate type mismatch")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	return nil
}
