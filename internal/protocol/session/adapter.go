package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/observability"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/frame"
)

var ErrUnexpectedAck = errors.New("session: ack for unexpected message id")

// Pair is the orchestrator side of one connection. The orchestrator writes
// Out and reads In; In is closed when the transport fails or ends.
type Pair struct {
	Remote string
	Out    chan<- protocol.ServerMessage
	In     <-chan protocol.ClientMessage
}

// Adapter moves messages between one connection and its Pair.
type Adapter struct {
	conn   net.Conn
	remote string
	cfg    Config
	logger zerolog.Logger

	out chan protocol.ServerMessage
	in  chan protocol.ClientMessage

	nextID       uint64
	outstanding  atomic.Uint64
	disconnectID atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
	closing   atomic.Bool
}

func NewAdapter(conn net.Conn, cfg Config) *Adapter {
	cfg = cfg.WithDefaults()
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Adapter{
		conn:   conn,
		remote: remote,
		cfg:    cfg,
		logger: log.Logger.With().Str("remote", remote).Logger(),
		out:    make(chan protocol.ServerMessage, cfg.QueueDepth),
		in:     make(chan protocol.ClientMessage, cfg.QueueDepth),
		done:   make(chan struct{}),
	}
}

func (a *Adapter) Pair() Pair {
	return Pair{Remote: a.remote, Out: a.out, In: a.in}
}

// Serve runs the adapter until the connection ends, the orchestrator closes
// Out, or ctx is canceled. In is closed before Serve returns.
func (a *Adapter) Serve(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- a.readLoop(ctx)
	}()

	writeErr := a.writeLoop(ctx)
	a.close()
	rerr := <-readErr

	if writeErr != nil {
		return writeErr
	}
	return rerr
}

func (a *Adapter) close() {
	a.closeOnce.Do(func() {
		a.closing.Store(true)
		close(a.done)
		_ = a.conn.Close()
	})
}

func (a *Adapter) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return nil
		case msg, ok := <-a.out:
			if !ok {
				a.logger.Debug().Msg("session.Adapter.writeLoop out closed")
				return nil
			}
			if err := a.write(msg); err != nil {
				observability.RecordWireFailure("write")
				a.logger.Warn().Err(err).Str("kind", msg.Kind.String()).Msg("session.Adapter.write failed")
				return err
			}
		}
	}
}

func (a *Adapter) write(msg protocol.ServerMessage) error {
	a.nextID++
	id := a.nextID
	f, err := protocol.EncodeServer(id, msg)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", msg.Kind, err)
	}

	// the ack may arrive before Write returns
	a.outstanding.Store(id)
	if msg.Kind == protocol.ServerDisconnect {
		a.disconnectID.Store(id)
	}
	if a.cfg.AckTimeout > 0 {
		_ = a.conn.SetReadDeadline(time.Now().Add(a.cfg.AckTimeout))
	}
	if a.cfg.WriteTimeout > 0 {
		_ = a.conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteTimeout))
	}
	if err := frame.WriteFrame(a.conn, f, a.cfg.Limits); err != nil {
		return fmt.Errorf("session: write %s id=%d: %w", msg.Kind, id, err)
	}
	observability.RecordFrame("out", msg.Kind.String())
	a.logger.Trace().Uint64("id", id).Str("kind", msg.Kind.String()).Msg("session.Adapter.write")
	return nil
}

func (a *Adapter) readLoop(ctx context.Context) error {
	defer close(a.in)
	defer a.close()

	for {
		f, err := frame.ReadFrame(a.conn, a.cfg.Limits)
		if err != nil {
			if a.closing.Load() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				a.logger.Info().Msg("session.Adapter.readLoop peer closed")
				return fmt.Errorf("session: peer closed: %w", err)
			}
			observability.RecordWireFailure("read")
			a.logger.Warn().Err(err).Msg("session.Adapter.readLoop read failed")
			return fmt.Errorf("session: read frame: %w", err)
		}

		msg, err := protocol.DecodeClient(f)
		if err != nil {
			observability.RecordWireFailure("decode")
			a.logger.Warn().Err(err).Uint32("message_type", f.Header.MessageType).Msg("session.Adapter.readLoop decode failed")
			return fmt.Errorf("session: decode frame id=%d: %w", f.Header.MessageID, err)
		}

		final := false
		if msg.IsAck() {
			want := a.outstanding.Load()
			if want == 0 || f.Header.MessageID != want {
				observability.RecordWireFailure("ack")
				return fmt.Errorf("%w: got=%d want=%d", ErrUnexpectedAck, f.Header.MessageID, want)
			}
			a.outstanding.Store(0)
			if a.cfg.AckTimeout > 0 {
				_ = a.conn.SetReadDeadline(time.Time{})
			}
			final = want == a.disconnectID.Load()
		}
		observability.RecordFrame("in", msg.Kind.String())

		select {
		case a.in <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return nil
		}
		if final {
			a.logger.Debug().Msg("session.Adapter.readLoop disconnect acknowledged")
			return nil
		}
	}
}
