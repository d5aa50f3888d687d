// Package scheduler runs the periodic invitation expiry sweep. Lazy
// sweeps before stats reads cover freshness; this loop bounds how stale
// a PENDING row can get when nobody reads stats.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/invobase/invobase/internal/clock"
	invitationdomain "github.com/invobase/invobase/internal/invitation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	InvitationSvc invitationdomain.Service
	Config        Config `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	invitationSvc invitationdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.InvitationSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		invitationSvc: p.InvitationSvc,
	}, nil
}

// RunOnce executes a single sweep pass.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	now := s.clock.Now()
	count, err := s.invitationSvc.SweepExpired(ctx, now)
	if err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("sweep pass complete",
			zap.Int64("transitioned", count),
			zap.Time("now", now),
		)
	}
	return nil
}

// RunForever sweeps on the configured interval until ctx is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
