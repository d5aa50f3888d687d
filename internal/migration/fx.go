package migration

import (
	auditdomain "github.com/invobase/invobase/internal/audit/domain"
	budgetdomain "github.com/invobase/invobase/internal/budget/domain"
	"github.com/invobase/invobase/internal/config"
	invitationdomain "github.com/invobase/invobase/internal/invitation/domain"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"github.com/invobase/invobase/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if err := migrateSchema(conn, cfg); err != nil {
			return err
		}

		if err := seed.EnsurePlans(conn); err != nil {
			return err
		}
		if cfg.DefaultOrgID != 0 {
			if err := seed.EnsureMainOrgWithID(conn, cfg.DefaultOrgID); err != nil {
				return err
			}
		} else {
			if err := seed.EnsureMainOrg(conn); err != nil {
				return err
			}
		}
		return seed.EnsureMainOrgAndAdmin(conn)
	}),
)

// migrateSchema applies the versioned SQL migrations on postgres. The
// sqlite and mysql paths fall back to AutoMigrate, which loses the
// partial indexes but keeps single-binary deployments working.
func migrateSchema(conn *gorm.DB, cfg config.Config) error {
	if cfg.DBType == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}

	if err := conn.AutoMigrate(
		&plandomain.SubscriptionPlan{},
		&organizationdomain.Organization{},
		&principaldomain.User{},
		&invitationdomain.Invitation{},
		&budgetdomain.ExpenseCategory{},
		&budgetdomain.Budget{},
		&auditdomain.AuditLog{},
	); err != nil {
		return err
	}

	// The quota enforcer counts rows in tables owned by the wider
	// platform; they have no models here, only a schema.
	for _, table := range []string{"customers", "invoices", "expenses"} {
		stmt := `CREATE TABLE IF NOT EXISTS ` + table + ` (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
		if err := conn.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
