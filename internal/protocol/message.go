package protocol

import (
	"fmt"

	"github.com/danmuck/cribbage/internal/cards"
)

// ClientKind tags a session -> orchestrator message.
type ClientKind uint8

const (
	ClientGreeting ClientKind = iota + 1
	ClientConfirmation
	ClientName
	ClientDiscardOne
	ClientDiscardTwo
	ClientAck
)

var clientKindNames = map[ClientKind]string{
	ClientGreeting:     "greeting",
	ClientConfirmation: "confirmation",
	ClientName:         "name",
	ClientDiscardOne:   "discard_one",
	ClientDiscardTwo:   "discard_two",
	ClientAck:          "acknowledgment",
}

func (k ClientKind) String() string {
	if s, ok := clientKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("client_kind(%d)", uint8(k))
}

// ClientMessage is one inbound value. Only the fields of its Kind are set:
// Name for ClientName, Index1 for ClientDiscardOne, Index1 and Index2 for
// ClientDiscardTwo.
type ClientMessage struct {
	Kind   ClientKind
	Name   string
	Index1 int
	Index2 int
}

func (m ClientMessage) IsAck() bool { return m.Kind == ClientAck }

func Greeting() ClientMessage          { return ClientMessage{Kind: ClientGreeting} }
func Confirmation() ClientMessage      { return ClientMessage{Kind: ClientConfirmation} }
func Acknowledgment() ClientMessage    { return ClientMessage{Kind: ClientAck} }
func Name(name string) ClientMessage   { return ClientMessage{Kind: ClientName, Name: name} }
func DiscardOne(idx int) ClientMessage { return ClientMessage{Kind: ClientDiscardOne, Index1: idx} }

func DiscardTwo(idx1, idx2 int) ClientMessage {
	return ClientMessage{Kind: ClientDiscardTwo, Index1: idx1, Index2: idx2}
}

// ServerKind tags an orchestrator -> session message.
type ServerKind uint8

const (
	ServerDeniedTableFull ServerKind = iota + 1
	ServerWaitName
	ServerPlayerJoinNotification
	ServerWaitInitialCut
	ServerInitialCutResult
	ServerInitialCutSuccess
	ServerInitialCutFailure
	ServerWaitDeal
	ServerDealing
	ServerDealtHand
	ServerWaitDiscardOne
	ServerWaitDiscardTwo
	ServerDiscardPlacedOne
	ServerDiscardPlacedTwo
	ServerAllDiscards
	ServerError
	ServerDisconnect
	ServerWaitCutStarter
	ServerCutStarter
	ServerNibs
)

var serverKindNames = map[ServerKind]string{
	ServerDeniedTableFull:        "denied_table_full",
	ServerWaitName:               "wait_name",
	ServerPlayerJoinNotification: "player_join_notification",
	ServerWaitInitialCut:         "wait_initial_cut",
	ServerInitialCutResult:       "initial_cut_result",
	ServerInitialCutSuccess:      "initial_cut_success",
	ServerInitialCutFailure:      "initial_cut_failure",
	ServerWaitDeal:               "wait_deal",
	ServerDealing:                "dealing",
	ServerDealtHand:              "dealt_hand",
	ServerWaitDiscardOne:         "wait_discard_one",
	ServerWaitDiscardTwo:         "wait_discard_two",
	ServerDiscardPlacedOne:       "discard_placed_one",
	ServerDiscardPlacedTwo:       "discard_placed_two",
	ServerAllDiscards:            "all_discards",
	ServerError:                  "error",
	ServerDisconnect:             "disconnect",
	ServerWaitCutStarter:         "wait_cut_starter",
	ServerCutStarter:             "cut_starter",
	ServerNibs:                   "nibs",
}

func (k ServerKind) String() string {
	if s, ok := serverKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("server_kind(%d)", uint8(k))
}

// ServerMessage is one outbound value.
//
//	PlayerJoinNotification: Name, Number, Of
//	InitialCutResult, CutStarter: Name, Card
//	InitialCutSuccess, DiscardPlaced*, Nibs: Name
//	DealtHand: Cards
//	Error: Reason
type ServerMessage struct {
	Kind   ServerKind
	Name   string
	Number int
	Of     int
	Card   cards.Card
	Cards  []cards.Card
	Reason string
}

// Signal builds a message that carries no fields.
func Signal(kind ServerKind) ServerMessage { return ServerMessage{Kind: kind} }

func PlayerJoined(name string, number, of int) ServerMessage {
	return ServerMessage{Kind: ServerPlayerJoinNotification, Name: name, Number: number, Of: of}
}

func CutResult(name string, card cards.Card) ServerMessage {
	return ServerMessage{Kind: ServerInitialCutResult, Name: name, Card: card}
}

func CutSuccess(dealer string) ServerMessage {
	return ServerMessage{Kind: ServerInitialCutSuccess, Name: dealer}
}

func DealtHand(hand []cards.Card) ServerMessage {
	return ServerMessage{Kind: ServerDealtHand, Cards: append([]cards.Card(nil), hand...)}
}

func DiscardPlaced(name string, count int) ServerMessage {
	if count == 2 {
		return ServerMessage{Kind: ServerDiscardPlacedTwo, Name: name}
	}
	return ServerMessage{Kind: ServerDiscardPlacedOne, Name: name}
}

func ErrorReply(reason string) ServerMessage {
	return ServerMessage{Kind: ServerError, Reason: reason}
}

func StarterCut(name string, card cards.Card) ServerMessage {
	return ServerMessage{Kind: ServerCutStarter, Name: name, Card: card}
}

func Nibs(dealer string) ServerMessage {
	return ServerMessage{Kind: ServerNibs, Name: dealer}
}

// WaitDiscard solicits count cards for the crib.
func WaitDiscard(count int) ServerMessage {
	if count == 2 {
		return Signal(ServerWaitDiscardTwo)
	}
	return Signal(ServerWaitDiscardOne)
}
