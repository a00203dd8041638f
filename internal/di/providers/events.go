package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/events"
	"github.com/answerhubapp/answerhub-server/internal/logger"
)

// EventBusHandle wraps the event bus with its run-loop context for
// lifecycle management.
type EventBusHandle struct {
	*events.Bus
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable. Stops intake and drains the queue.
func (h *EventBusHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Bus.Shutdown(ctx)
}

// ProvideEventBus provides the change-event bus, already running.
func ProvideEventBus(i do.Injector) (*EventBusHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	bus := events.NewBus(log)
	ctx, cancel := context.WithCancel(context.Background())
	go bus.Start(ctx)

	return &EventBusHandle{
		Bus:    bus,
		cancel: cancel,
	}, nil
}
