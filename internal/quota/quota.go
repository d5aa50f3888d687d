// Package quota enforces per-plan resource ceilings at mutation time.
//
// The enforcer is stateless and reentrant: it reads the tenant's plan
// and the live count, then decides. Atomicity is the caller's contract:
// the reservation check and the insert it guards must share one store
// transaction, otherwise two concurrent requests can both observe
// headroom and overshoot the limit by one.
package quota

import "errors"

// ResourceKind names a countable, plan-limited resource.
type ResourceKind string

const (
	ResourceUsers     ResourceKind = "users"
	ResourceInvoices  ResourceKind = "invoices"
	ResourceCustomers ResourceKind = "customers"
	ResourceExpenses  ResourceKind = "expenses"
)

// Valid reports whether k is a known resource kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceUsers, ResourceInvoices, ResourceCustomers, ResourceExpenses:
		return true
	default:
		return false
	}
}

// Decision is the enforcer's verdict. Remaining accounts for the pending
// reservation; it is meaningless when Unlimited is set.
type Decision struct {
	Allowed   bool  `json:"allowed"`
	Unlimited bool  `json:"unlimited,omitempty"`
	Limit     int64 `json:"limit"`
	Current   int64 `json:"current"`
	Remaining int64 `json:"remaining,omitempty"`
}

var (
	ErrQuotaExceeded   = errors.New("quota_exceeded")
	ErrUnknownResource = errors.New("unknown_resource_kind")
)

// Err returns ErrQuotaExceeded for denials, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrQuotaExceeded
}
