package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/cribbage/internal/client"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/session"
	"github.com/danmuck/cribbage/internal/rules"
	"github.com/danmuck/cribbage/internal/table"
	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

func TestServeTwoPlayerGame(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	game := rules.NewGame()
	served := make(chan error, 1)
	go func() {
		served <- Serve(ctx, Config{Table: table.Config{Players: 2}}, game, ln)
	}()

	names := []string{"Alice", "Bob"}
	transcripts := make([]client.Transcript, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				errs[i] = err
				return
			}
			defer conn.Close()
			transcripts[i], errs[i] = client.Play(ctx, conn, client.Strategy{Name: name})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("%s: play: %v", names[i], err)
		}
	}
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return")
	}

	if game.Phase() != rules.PhaseEnd {
		t.Fatalf("unexpected phase: got=%s want=%s", game.Phase(), rules.PhaseEnd)
	}
	for i, ts := range transcripts {
		if got := ts.Count(protocol.ServerDisconnect); got != 1 {
			t.Fatalf("%s: disconnects got=%d want=1", names[i], got)
		}
		if got := ts.Count(protocol.ServerDealtHand); got != 1 {
			t.Fatalf("%s: dealt hands got=%d want=1", names[i], got)
		}
		if len(ts.Hand) != 6 {
			t.Fatalf("%s: hand size got=%d want=6", names[i], len(ts.Hand))
		}
		last := ts.Messages[len(ts.Messages)-1]
		if last.Kind != protocol.ServerDisconnect {
			t.Fatalf("%s: last message got=%s want=%s", names[i], last.Kind, protocol.ServerDisconnect)
		}
	}
}

func TestServeRejectsBadPlayerCount(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	err = Serve(context.Background(), Config{Table: table.Config{Players: 7}}, rules.NewGame(), ln)
	if err == nil {
		t.Fatalf("expected player count error")
	}
	if _, err := net.Dial("tcp", ln.Addr().String()); err == nil {
		t.Fatalf("expected listener to be closed")
	}
}

func TestListenerReleasesUnclaimedPair(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	sessions := make(chan session.Pair)
	l := NewListener(session.DefaultConfig(), done)

	served := make(chan error, 1)
	go func() {
		served <- l.Serve(context.Background(), ln, sessions)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for l.Active() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if l.Active() != 1 {
		t.Fatalf("active got=%d want=1", l.Active())
	}
	close(done)

	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop")
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expected released connection to be closed")
	}
	if l.Active() != 0 {
		t.Fatalf("active got=%d want=0", l.Active())
	}
}

type fakeSource struct {
	snap table.Snapshot
	done chan struct{}
}

func (f *fakeSource) Snapshot() table.Snapshot { return f.snap }
func (f *fakeSource) Done() <-chan struct{}    { return f.done }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAdminRoutes(t *testing.T) {
	testlog.Start(t)
	src := &fakeSource{
		snap: table.Snapshot{
			GameID:  "game-1",
			Phase:   rules.PhaseDiscard.String(),
			Players: []table.PlayerView{{Handle: 0, Seat: 0, Name: "Alice", State: "WaitingForDiscards"}},
		},
		done: make(chan struct{}),
	}
	h := NewAdmin("test", nil, src).Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health status got=%d want=%d", rec.Code, http.StatusOK)
	}
	if rec := get(t, h, "/metrics"); rec.Code != http.StatusOK {
		t.Fatalf("metrics status got=%d want=%d", rec.Code, http.StatusOK)
	}

	rec := get(t, h, "/table")
	if rec.Code != http.StatusOK {
		t.Fatalf("table status got=%d want=%d", rec.Code, http.StatusOK)
	}
	var snap table.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.GameID != "game-1" || len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if rec := get(t, h, "/ready"); rec.Code != http.StatusOK {
		t.Fatalf("ready status got=%d want=%d", rec.Code, http.StatusOK)
	}
	close(src.done)
	if rec := get(t, h, "/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready after finish got=%d want=%d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestNormalizeOrigins(t *testing.T) {
	testlog.Start(t)
	got := normalizeOrigins([]string{" ", " http://a.test "})
	if len(got) != 1 || got[0] != "http://a.test" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if got := normalizeOrigins(nil); len(got) != 1 || got[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default origins: %v", got)
	}
}
