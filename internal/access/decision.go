package access

import "errors"

// Reason explains a denial. Allow decisions carry no reason.
type Reason string

const (
	ReasonCrossTenant      Reason = "cross_tenant"
	ReasonAccountInactive  Reason = "account_inactive"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonRoleForbidden    Reason = "role_forbidden"
)

// Decision is the gate's verdict. It is a pure value: translating a
// denial into an HTTP status or redirect belongs to the transport layer.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

var (
	ErrCrossTenant      = errors.New("cross_tenant")
	ErrAccountInactive  = errors.New("account_inactive")
	ErrInsufficientRole = errors.New("insufficient_role")
	ErrRoleForbidden    = errors.New("role_forbidden")
)

// Allow is the affirmative decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny builds a denial with the given reason.
func Deny(reason Reason) Decision { return Decision{Allowed: false, Reason: reason} }

// Err maps a denial to its sentinel error; it returns nil for allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonCrossTenant:
		return ErrCrossTenant
	case ReasonAccountInactive:
		return ErrAccountInactive
	case ReasonRoleForbidden:
		return ErrRoleForbidden
	default:
		return ErrInsufficientRole
	}
}
