package principal

import (
	"github.com/invobase/invobase/internal/principal/repository"
	"github.com/invobase/invobase/internal/principal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("principal.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
