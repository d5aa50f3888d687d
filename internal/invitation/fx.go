package invitation

import (
	"github.com/invobase/invobase/internal/invitation/repository"
	"github.com/invobase/invobase/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
