package driver

import (
	"errors"

	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
)

// SimplePlanner is a minimal channel planner: it only verifies that
// the configured bands can be served by the current capability.
// Channel selection itself is left to the driver (ACS when offloaded).
type SimplePlanner struct{}

func (SimplePlanner) UpdateBandAndChannel(cfg *domain.ApConfiguration, capability *domain.Capability) error {
	if len(cfg.Bands) == 0 {
		return domain.NewStartError(domain.FailureUnsupportedConfiguration, errors.New("no band configured"))
	}
	for _, band := range cfg.Bands {
		if !capability.SupportsBand(band) {
			return domain.NewStartError(domain.FailureNoChannel, errors.New("no usable channel on requested band"))
		}
	}
	return nil
}

var _ ports.ChannelPlanner = SimplePlanner{}
