package organization

import (
	"github.com/invobase/invobase/internal/organization/repository"
	"github.com/invobase/invobase/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
