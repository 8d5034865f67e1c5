package handler

import (
	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/pkg/poll"
)

func pollConfig(cfg *config.ControllerConfig) poll.PollerConfig {
	return poll.PollerConfig{
		Interval:       cfg.SweepInterval,
		RunImmediately: true,
	}
}
