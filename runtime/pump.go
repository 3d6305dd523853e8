package runtime

import (
	"context"
	"log/slog"

	"render-host/contract"
	"render-host/domain"
	"render-host/messaging"
)

// PumpWorker drains the transport's inbound frames into the router.
//
// It is the only goroutine calling DispatchInbound, so handler invocation
// stays serial even though replies may come back later from anywhere. Each
// frame's response ID is bound into a one-shot reply token that writes the
// response frame back on the transport.
type PumpWorker struct {
	log       *slog.Logger
	router    *messaging.Router
	transport contract.Transport
}

func NewPumpWorker(log *slog.Logger, router *messaging.Router, transport contract.Transport) *PumpWorker {
	return &PumpWorker{log: log, router: router, transport: transport}
}

func (w *PumpWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping inbound pump")
			return nil
		case err := <-w.transport.Errors():
			w.log.Warn("Transport error", "error", err)
		case frame, open := <-w.transport.Frames():
			if !open {
				// Connection gone; nothing left to pump.
				w.log.Info("Transport closed, inbound pump finished")
				return nil
			}
			w.dispatch(frame)
		}
	}
}

func (w *PumpWorker) dispatch(frame domain.Frame) {
	responseID := frame.ResponseID
	token := w.router.BindReply(frame.Channel, func(payload []byte) error {
		if responseID == "" {
			// The engine did not ask for a response; dropping is correct.
			return nil
		}
		return w.transport.Send(domain.Frame{ResponseID: responseID, Payload: payload})
	})
	w.router.DispatchInbound(frame.Channel, frame.Payload, token)
}
