package protocol

import (
	"fmt"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/protocol/frame"
	"github.com/danmuck/cribbage/internal/protocol/schema"
	"github.com/danmuck/cribbage/internal/protocol/tlv"
)

var clientTypes = map[ClientKind]uint32{
	ClientGreeting:     schema.MsgGreeting,
	ClientConfirmation: schema.MsgConfirmation,
	ClientName:         schema.MsgName,
	ClientDiscardOne:   schema.MsgDiscardOne,
	ClientDiscardTwo:   schema.MsgDiscardTwo,
	ClientAck:          schema.MsgAck,
}

var serverTypes = map[ServerKind]uint32{
	ServerDeniedTableFull:        schema.MsgDeniedTableFull,
	ServerWaitName:               schema.MsgWaitName,
	ServerPlayerJoinNotification: schema.MsgPlayerJoinNotification,
	ServerWaitInitialCut:         schema.MsgWaitInitialCut,
	ServerInitialCutResult:       schema.MsgInitialCutResult,
	ServerInitialCutSuccess:      schema.MsgInitialCutSuccess,
	ServerInitialCutFailure:      schema.MsgInitialCutFailure,
	ServerWaitDeal:               schema.MsgWaitDeal,
	ServerDealing:                schema.MsgDealing,
	ServerDealtHand:              schema.MsgDealtHand,
	ServerWaitDiscardOne:         schema.MsgWaitDiscardOne,
	ServerWaitDiscardTwo:         schema.MsgWaitDiscardTwo,
	ServerDiscardPlacedOne:       schema.MsgDiscardPlacedOne,
	ServerDiscardPlacedTwo:       schema.MsgDiscardPlacedTwo,
	ServerAllDiscards:            schema.MsgAllDiscards,
	ServerError:                  schema.MsgError,
	ServerDisconnect:             schema.MsgDisconnect,
	ServerWaitCutStarter:         schema.MsgWaitCutStarter,
	ServerCutStarter:             schema.MsgCutStarter,
	ServerNibs:                   schema.MsgNibs,
}

var (
	clientKinds = invert(clientTypes)
	serverKinds = invert(serverTypes)
)

func invert[K comparable](m map[K]uint32) map[uint32]K {
	out := make(map[uint32]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// EncodeClient builds the frame for one client message. Acknowledgments are
// built with AckFrame instead so they echo the server message id.
func EncodeClient(id uint64, msg ClientMessage) (frame.Frame, error) {
	msgType, ok := clientTypes[msg.Kind]
	if !ok {
		return frame.Frame{}, fmt.Errorf("%w: %s", ErrUnknownKind, msg.Kind)
	}
	var fields []tlv.Field
	switch msg.Kind {
	case ClientName:
		fields = append(fields, tlv.String(schema.FieldName, msg.Name))
	case ClientDiscardOne:
		idx, err := indexByte(msg.Index1)
		if err != nil {
			return frame.Frame{}, err
		}
		fields = append(fields, tlv.U8(schema.FieldIndex1, idx))
	case ClientDiscardTwo:
		idx1, err := indexByte(msg.Index1)
		if err != nil {
			return frame.Frame{}, err
		}
		idx2, err := indexByte(msg.Index2)
		if err != nil {
			return frame.Frame{}, err
		}
		fields = append(fields, tlv.U8(schema.FieldIndex1, idx1), tlv.U8(schema.FieldIndex2, idx2))
	}
	var flags uint32
	if msg.Kind == ClientAck {
		flags = frame.FlagIsResponse
	}
	return build(id, msgType, flags, fields)
}

// AckFrame acknowledges the server frame with the given id.
func AckFrame(id uint64) frame.Frame {
	f, _ := build(id, schema.MsgAck, frame.FlagIsResponse, nil)
	return f
}

func DecodeClient(f frame.Frame) (ClientMessage, error) {
	kind, ok := clientKinds[f.Header.MessageType]
	if !ok {
		return ClientMessage{}, fmt.Errorf("%w: message_type=%d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	fields, err := parse(f)
	if err != nil {
		return ClientMessage{}, err
	}
	msg := ClientMessage{Kind: kind}
	switch kind {
	case ClientName:
		field, _ := tlv.GetField(fields, schema.FieldName)
		msg.Name, err = tlv.AsString(field)
	case ClientDiscardOne:
		msg.Index1, err = readIndex(fields, schema.FieldIndex1)
	case ClientDiscardTwo:
		msg.Index1, err = readIndex(fields, schema.FieldIndex1)
		if err == nil {
			msg.Index2, err = readIndex(fields, schema.FieldIndex2)
		}
	}
	if err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return msg, nil
}

func EncodeServer(id uint64, msg ServerMessage) (frame.Frame, error) {
	msgType, ok := serverTypes[msg.Kind]
	if !ok {
		return frame.Frame{}, fmt.Errorf("%w: %s", ErrUnknownKind, msg.Kind)
	}
	var fields []tlv.Field
	switch msg.Kind {
	case ServerPlayerJoinNotification:
		if msg.Number < 0 || msg.Number > 255 || msg.Of < 0 || msg.Of > 255 {
			return frame.Frame{}, fmt.Errorf("%w: number=%d of=%d", ErrInvalidField, msg.Number, msg.Of)
		}
		fields = append(fields,
			tlv.String(schema.FieldName, msg.Name),
			tlv.U8(schema.FieldNumber, uint8(msg.Number)),
			tlv.U8(schema.FieldOf, uint8(msg.Of)),
		)
	case ServerInitialCutResult, ServerCutStarter:
		card, err := EncodeCards([]cards.Card{msg.Card})
		if err != nil {
			return frame.Frame{}, err
		}
		fields = append(fields, tlv.String(schema.FieldName, msg.Name), tlv.Bytes(schema.FieldCard, card))
	case ServerInitialCutSuccess, ServerDiscardPlacedOne, ServerDiscardPlacedTwo, ServerNibs:
		fields = append(fields, tlv.String(schema.FieldName, msg.Name))
	case ServerDealtHand:
		hand, err := EncodeCards(msg.Cards)
		if err != nil {
			return frame.Frame{}, err
		}
		fields = append(fields, tlv.Bytes(schema.FieldCards, hand))
	case ServerError:
		fields = append(fields, tlv.String(schema.FieldReason, msg.Reason))
	}
	return build(id, msgType, 0, fields)
}

func DecodeServer(f frame.Frame) (ServerMessage, error) {
	kind, ok := serverKinds[f.Header.MessageType]
	if !ok {
		return ServerMessage{}, fmt.Errorf("%w: message_type=%d", ErrUnexpectedMessage, f.Header.MessageType)
	}
	fields, err := parse(f)
	if err != nil {
		return ServerMessage{}, err
	}
	msg := ServerMessage{Kind: kind}
	if field, ok := tlv.GetField(fields, schema.FieldName); ok {
		msg.Name = string(field.Value)
	}
	if field, ok := tlv.GetField(fields, schema.FieldReason); ok {
		msg.Reason = string(field.Value)
	}
	switch kind {
	case ServerPlayerJoinNotification:
		if msg.Number, err = readIndex(fields, schema.FieldNumber); err == nil {
			msg.Of, err = readIndex(fields, schema.FieldOf)
		}
	case ServerInitialCutResult, ServerCutStarter:
		field, _ := tlv.GetField(fields, schema.FieldCard)
		var hand []cards.Card
		if hand, err = DecodeCards(field.Value); err == nil {
			if len(hand) != 1 {
				err = fmt.Errorf("%w: want one card got %d", ErrInvalidCardEncoding, len(hand))
			} else {
				msg.Card = hand[0]
			}
		}
	case ServerDealtHand:
		field, _ := tlv.GetField(fields, schema.FieldCards)
		msg.Cards, err = DecodeCards(field.Value)
	}
	if err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return msg, nil
}

// EncodeCards packs each card as rank byte then suit byte.
func EncodeCards(hand []cards.Card) ([]byte, error) {
	out := make([]byte, 0, 2*len(hand))
	for _, c := range hand {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: rank=%d suit=%d", ErrInvalidCardEncoding, c.Rank, c.Suit)
		}
		out = append(out, byte(c.Rank), byte(c.Suit))
	}
	return out, nil
}

func DecodeCards(b []byte) ([]cards.Card, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidCardEncoding, len(b))
	}
	out := make([]cards.Card, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		c, err := cards.New(cards.Rank(b[i]), cards.Suit(b[i+1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCardEncoding, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func build(id uint64, msgType, flags uint32, fields []tlv.Field) (frame.Frame, error) {
	if err := schema.Validate(msgType, fields); err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{
		Header: frame.Header{
			MessageID:   id,
			MessageType: msgType,
			Flags:       flags,
		},
		Payload: tlv.EncodeFields(fields),
	}, nil
}

func parse(f frame.Frame) ([]tlv.Field, error) {
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(f.Header.MessageType, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func indexByte(idx int) (uint8, error) {
	if idx < 0 || idx > 255 {
		return 0, fmt.Errorf("%w: index=%d", ErrInvalidField, idx)
	}
	return uint8(idx), nil
}

func readIndex(fields []tlv.Field, id uint16) (int, error) {
	field, _ := tlv.GetField(fields, id)
	v, err := tlv.AsU8(field)
	return int(v), err
}
