package orders

import (
	"context"

	"github.com/entrealas/orderdesk/pkg/logger"
)

// Store receives order snapshots. Failures are reported to the user but never
// discard session state.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
}

// LogStore records snapshots in the structured log only.
type LogStore struct {
	logg *logger.Logger
}

func NewLogStore(logg *logger.Logger) *LogStore {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogStore{logg: logg}
}

func (s *LogStore) Save(ctx context.Context, snap Snapshot) error {
	ctx = s.logg.WithOrderCode(ctx, snap.Code)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     snap.ID,
		"status":       snap.Status.String(),
		"lines":        len(snap.Lines),
		"total":        snap.Total.StringFixed(2),
		"client_name":  snap.Client.Name,
		"client_phone": snap.Client.Phone,
	})
	s.logg.Info(ctx, "order.saved")
	return nil
}
