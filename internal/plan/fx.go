package plan

import (
	"github.com/invobase/invobase/internal/plan/repository"
	"github.com/invobase/invobase/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
