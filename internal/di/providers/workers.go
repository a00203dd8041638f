package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/answerhubapp/answerhub-server/internal/config"
	"github.com/answerhubapp/answerhub-server/internal/jobs"
	"github.com/answerhubapp/answerhub-server/internal/logger"
)

// RecorderHandle wraps the interaction recorder with its context for
// lifecycle management.
type RecorderHandle struct {
	*jobs.Recorder
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable. Cancels the run loop and waits for
// the queue to drain.
func (h *RecorderHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Wait(ctx)
}

// ProvideRecorder provides the interaction recorder, already running.
func ProvideRecorder(i do.Injector) (*RecorderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	recorder := jobs.NewRecorder(storeHandle.Store, log, cfg.Jobs.QueueSize)

	ctx, cancel := context.WithCancel(context.Background())
	go recorder.Run(ctx)

	return &RecorderHandle{
		Recorder: recorder,
		cancel:   cancel,
	}, nil
}
