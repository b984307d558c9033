package table

import (
	"context"
	"errors"

	"github.com/danmuck/cribbage/internal/protocol"
)

// shutdown disconnects every live session through the reliable path, then
// closes its outbound queue.
func (o *Orchestrator) shutdown(ctx context.Context) error {
	for _, rec := range o.reg.live() {
		if err := o.notify(ctx, rec, protocol.Signal(protocol.ServerDisconnect)); err != nil {
			if errors.Is(err, ErrSessionRetired) {
				continue
			}
			return err
		}
		_ = rec.transition(StateDisconnected)
		close(rec.out)
	}
	o.logger.Info().Int("sessions", len(o.reg.records)).Msg("table.Orchestrator.shutdown")
	return nil
}

// teardown closes every remaining outbound queue without waiting.
func (o *Orchestrator) teardown(cause error) {
	o.logger.Error().Err(cause).Msg("table.Orchestrator.teardown")
	for _, rec := range o.reg.live() {
		_ = rec.transition(StateDisconnected)
		close(rec.out)
	}
}
