package session

import (
	"context"

	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/world"
)

// StartInvalidator подписывается на EditCommitted других узлов и выгружает
// затронутые ими чанки, чтобы мир перечитал их из общего хранилища.
// События с Source == self пропускаются.
func StartInvalidator(ctx context.Context, bus eventbus.EventBus, w *world.World, self string) (eventbus.Subscription, error) {
	logger := logging.GetSessionLogger()
	filter := eventbus.Filter{Types: []string{eventbus.EventEditCommitted}}

	return bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		if ev.Source == self {
			return
		}
		var commit CommitEvent
		if err := ev.Decode(&commit); err != nil {
			logger.Warn("событие %s: %v", ev.ID, err)
			return
		}
		dropped := 0
		for _, c := range commit.Chunks {
			if w.Invalidate(c) {
				dropped++
			}
		}
		logger.Debug("сессия %s от %s: выгружено %d из %d чанков", commit.SessionID, ev.Source, dropped, len(commit.Chunks))
	})
}
