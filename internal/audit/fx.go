package audit

import (
	"github.com/invobase/invobase/internal/audit/repository"
	"github.com/invobase/invobase/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
