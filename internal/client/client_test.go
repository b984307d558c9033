package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/frame"
	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

type scriptedServer struct {
	t    *testing.T
	conn net.Conn
	id   uint64
}

func (s *scriptedServer) expect(kind protocol.ClientKind) protocol.ClientMessage {
	s.t.Helper()
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := frame.ReadFrame(s.conn, frame.DefaultLimits())
	if err != nil {
		s.t.Errorf("server read: %v", err)
		return protocol.ClientMessage{}
	}
	msg, err := protocol.DecodeClient(f)
	if err != nil {
		s.t.Errorf("server decode: %v", err)
		return protocol.ClientMessage{}
	}
	if msg.Kind != kind {
		s.t.Errorf("unexpected client message: got=%s want=%s", msg.Kind, kind)
	}
	if msg.IsAck() && f.Header.MessageID != s.id {
		s.t.Errorf("ack id mismatch: got=%d want=%d", f.Header.MessageID, s.id)
	}
	return msg
}

func (s *scriptedServer) send(msg protocol.ServerMessage) {
	s.t.Helper()
	s.id++
	f, err := protocol.EncodeServer(s.id, msg)
	if err != nil {
		s.t.Errorf("server encode: %v", err)
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := frame.WriteFrame(s.conn, f, frame.DefaultLimits()); err != nil {
		s.t.Errorf("server write: %v", err)
		return
	}
	s.expect(protocol.ClientAck)
}

func TestPlayAnswersSolicitations(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	hand := []cards.Card{
		{Rank: cards.King, Suit: cards.Clubs},
		{Rank: 2, Suit: cards.Hearts},
		{Rank: 9, Suit: cards.Spades},
		{Rank: cards.Ace, Suit: cards.Diamonds},
		{Rank: 5, Suit: cards.Clubs},
		{Rank: cards.Jack, Suit: cards.Hearts},
	}

	var discard protocol.ClientMessage
	done := make(chan struct{})
	go func() {
		defer close(done)
		s := &scriptedServer{t: t, conn: serverConn}
		s.expect(protocol.ClientGreeting)
		s.send(protocol.Signal(protocol.ServerWaitName))
		if msg := s.expect(protocol.ClientName); msg.Name != "alice" {
			t.Errorf("unexpected name: %q", msg.Name)
		}
		s.send(protocol.Signal(protocol.ServerWaitInitialCut))
		s.expect(protocol.ClientConfirmation)
		s.send(protocol.DealtHand(hand))
		s.send(protocol.Signal(protocol.ServerWaitDiscardTwo))
		discard = s.expect(protocol.ClientDiscardTwo)
		s.send(protocol.Signal(protocol.ServerDisconnect))
	}()

	ts, err := Play(context.Background(), clientConn, Strategy{Name: "alice", Discard: HighestFirst})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	<-done

	if ts.Count(protocol.ServerDisconnect) != 1 || len(ts.Messages) != 5 {
		t.Fatalf("unexpected transcript: %+v", ts.Messages)
	}
	if ts.Hand[0].Rank != cards.Ace || ts.Hand[5].Rank != cards.King {
		t.Fatalf("hand not sorted: %v", ts.Hand)
	}
	if discard.Index1 != 5 || discard.Index2 != 4 {
		t.Fatalf("unexpected discard: %+v", discard)
	}
}

func TestPlayStopsOnDenial(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	go func() {
		s := &scriptedServer{t: t, conn: serverConn}
		s.expect(protocol.ClientGreeting)
		s.send(protocol.Signal(protocol.ServerDeniedTableFull))
	}()

	ts, err := Play(context.Background(), clientConn, Strategy{Name: "late"})
	if !errors.Is(err, ErrDenied) || !ts.Denied {
		t.Fatalf("expected denial, got err=%v denied=%v", err, ts.Denied)
	}
}

func TestPlayServerClose(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()

	go func() {
		s := &scriptedServer{t: t, conn: serverConn}
		s.expect(protocol.ClientGreeting)
		_ = serverConn.Close()
	}()

	if _, err := Play(context.Background(), clientConn, Strategy{Name: "bob"}); !errors.Is(err, ErrServerClosed) {
		t.Fatalf("expected ErrServerClosed, got %v", err)
	}
}

func TestPlayCanceled(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		s := &scriptedServer{t: t, conn: serverConn}
		s.expect(protocol.ClientGreeting)
		cancel()
	}()

	if _, err := Play(ctx, clientConn, Strategy{Name: "carol"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiscardFallsBackToLowest(t *testing.T) {
	testlog.Start(t)
	p := &player{strategy: Strategy{Discard: func([]cards.Card, int) []int { return []int{9} }}}
	p.ts.Hand = make([]cards.Card, 5)
	if got := p.discard(1); got[0] != 0 {
		t.Fatalf("unexpected fallback: %v", got)
	}
}
