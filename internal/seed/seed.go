// Package seed bootstraps the catalog and default tenant so a fresh
// install is usable without manual setup.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/invobase/invobase/internal/organization/domain"
	plandomain "github.com/invobase/invobase/internal/plan/domain"
	principaldomain "github.com/invobase/invobase/internal/principal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultOrgName    = "Main"
	defaultOrgSlug    = "main"
	defaultPlanSlug   = "free"
	defaultAdminEmail = "admin@invobase.local"
)

var defaultPlans = []plandomain.SubscriptionPlan{
	{
		Slug:         "free",
		Name:         "Free",
		MaxUsers:     5,
		MaxInvoices:  100,
		MaxCustomers: 50,
		MaxExpenses:  500,
		Features:     datatypes.JSONMap{},
		IsActive:     true,
		IsPublic:     true,
	},
	{
		Slug:         "pro",
		Name:         "Pro",
		MaxUsers:     50,
		MaxInvoices:  10000,
		MaxCustomers: 5000,
		MaxExpenses:  50000,
		Features:     datatypes.JSONMap{},
		IsActive:     true,
		IsPublic:     true,
	},
	{
		Slug:         "enterprise",
		Name:         "Enterprise",
		MaxUsers:     plandomain.Unlimited,
		MaxInvoices:  plandomain.Unlimited,
		MaxCustomers: plandomain.Unlimited,
		MaxExpenses:  plandomain.Unlimited,
		Features:     datatypes.JSONMap{},
		IsActive:     true,
		IsPublic:     false,
	},
}

// EnsurePlans seeds the plan catalog.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, plan := range defaultPlans {
			if _, err := ensurePlanTx(ctx, tx, node, plan); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return ensureMainOrg(db, 0)
}

// EnsureMainOrgWithID seeds the default organization under a fixed ID.
func EnsureMainOrgWithID(db *gorm.DB, id int64) error {
	return ensureMainOrg(db, snowflake.ID(id))
}

func ensureMainOrg(db *gorm.DB, id snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureMainOrgTx(ctx, tx, node, id)
		return err
	})
}

// EnsureMainOrgAndAdmin seeds the default organization and admin user for
// self-hosted mode.
func EnsureMainOrgAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node, 0)
		if err != nil {
			return err
		}

		var user principaldomain.User
		err = tx.WithContext(ctx).
			Where("external_id = ?", defaultAdminEmail).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		orgID := org.ID
		user = principaldomain.User{
			ID:         node.Generate(),
			ExternalID: defaultAdminEmail,
			Email:      strings.ToLower(defaultAdminEmail),
			OrgID:      &orgID,
			Role:       principaldomain.RoleAdmin,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, plan plandomain.SubscriptionPlan) (*plandomain.SubscriptionPlan, error) {
	var existing plandomain.SubscriptionPlan
	err := tx.WithContext(ctx).Where("slug = ?", plan.Slug).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	plan.ID = node.Generate()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, id snowflake.ID) (*organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	plan, err := ensurePlanTx(ctx, tx, node, defaultPlans[0])
	if err != nil {
		return nil, err
	}

	if id == 0 {
		id = node.Generate()
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        id,
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		Status:    organizationdomain.StatusActive,
		PlanID:    plan.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
