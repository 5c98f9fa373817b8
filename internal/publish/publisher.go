package publish

import (
	"context"

	"github.com/bbernstein/tidecharts/internal/models"
	"github.com/rs/zerolog/log"
)

// Publisher receives finished artifacts. MarkUpdated reports whether the
// station's latest refresh succeeded.
type Publisher interface {
	Publish(ctx context.Context, slot models.Slot, artifact models.RenderedArtifact) error
	MarkUpdated(stationID string, ok bool)
}

// Multi publishes to a primary publisher and mirrors to the rest. Only the
// primary's errors are returned.
type Multi struct {
	primary Publisher
	mirrors []Publisher
}

var _ Publisher = (*Multi)(nil)

func NewMulti(primary Publisher, mirrors ...Publisher) *Multi {
	return &Multi{primary: primary, mirrors: mirrors}
}

func (m *Multi) Publish(ctx context.Context, slot models.Slot, artifact models.RenderedArtifact) error {
	if err := m.primary.Publish(ctx, slot, artifact); err != nil {
		return err
	}
	for _, mirror := range m.mirrors {
		if err := mirror.Publish(ctx, slot, artifact); err != nil {
			log.Error().Err(err).Str("slot", slot.String()).Msg("Failed to mirror artifact")
		}
	}
	return nil
}

func (m *Multi) MarkUpdated(stationID string, ok bool) {
	m.primary.MarkUpdated(stationID, ok)
	for _, mirror := range m.mirrors {
		mirror.MarkUpdated(stationID, ok)
	}
}
