package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvitationPolicy controls invitation lifecycle behavior that operators
// may tune without a redeploy.
type InvitationPolicy struct {
	TTLDays          int  `mapstructure:"ttlDays"`
	SweepOnStatsRead bool `mapstructure:"sweepOnStatsRead"`
	ExpiringSoonDays int  `mapstructure:"expiringSoonDays"`
	RecentWindowDays int  `mapstructure:"recentWindowDays"`
}

func DefaultInvitationPolicy() InvitationPolicy {
	return InvitationPolicy{
		TTLDays:          7,
		SweepOnStatsRead: true,
		ExpiringSoonDays: 3,
		RecentWindowDays: 7,
	}
}

// PolicyHolder exposes the current invitation policy with hot reload.
type PolicyHolder struct {
	current atomic.Value // holds InvitationPolicy
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/invobase/config")
	v.AddConfigPath("/etc/invobase")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INVOBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultInvitationPolicy()
		v.SetDefault("invitations.ttlDays", defaults.TTLDays)
		v.SetDefault("invitations.sweepOnStatsRead", defaults.SweepOnStatsRead)
		v.SetDefault("invitations.expiringSoonDays", defaults.ExpiringSoonDays)
		v.SetDefault("invitations.recentWindowDays", defaults.RecentWindowDays)
	}

	var policy InvitationPolicy
	if err := v.UnmarshalKey("invitations", &policy); err != nil {
		return nil, err
	}
	if err := validateInvitationPolicy(policy); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvitationPolicy
		if err := v.UnmarshalKey("invitations", &updated); err != nil {
			log.Printf("[policy] reload failed: %v", err)
			return
		}
		if err := validateInvitationPolicy(updated); err != nil {
			log.Printf("[policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticPolicyHolder returns a holder pinned to the given policy.
// Used by tests and callers that do not want file watching.
func NewStaticPolicyHolder(policy InvitationPolicy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *PolicyHolder) Get() InvitationPolicy {
	return h.current.Load().(InvitationPolicy)
}

func validateInvitationPolicy(policy InvitationPolicy) error {
	if policy.TTLDays <= 0 {
		return errors.New("invitations.ttlDays must be positive")
	}
	if policy.ExpiringSoonDays <= 0 {
		return errors.New("invitations.expiringSoonDays must be positive")
	}
	if policy.RecentWindowDays <= 0 {
		return errors.New("invitations.recentWindowDays must be positive")
	}
	return nil
}
