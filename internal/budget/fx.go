package budget

import (
	"github.com/invobase/invobase/internal/budget/repository"
	"github.com/invobase/invobase/internal/budget/service"
	"go.uber.org/fx"
)

var Module = fx.Module("budget.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
