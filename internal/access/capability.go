package access

import "strings"

// Capability is a named permission in object.action form, checked against
// role and tenant constraints by the gate.
type Capability string

const (
	CapabilityInvoiceView    Capability = "invoice.view"
	CapabilityInvoiceCreate  Capability = "invoice.create"
	CapabilityInvoiceUpdate  Capability = "invoice.update"
	CapabilityExpenseView    Capability = "expense.view"
	CapabilityExpenseCreate  Capability = "expense.create"
	CapabilityCustomerView   Capability = "customer.view"
	CapabilityCustomerCreate Capability = "customer.create"

	CapabilityInvitationCreate Capability = "invitation.create"
	CapabilityInvitationRevoke Capability = "invitation.revoke"
	CapabilityInvitationView   Capability = "invitation.view"
	CapabilityUserRoleChange   Capability = "user.role_change"
	CapabilityOrgUpdate        Capability = "organization.update"

	CapabilityBudgetView     Capability = "budget.view"
	CapabilityBudgetManage   Capability = "budget.manage"
	CapabilityCategoryCreate Capability = "category.create"

	CapabilityAuditLogView Capability = "audit_log.view"
)

// SuperCapability is the platform-administrator namespace. It is checked
// against the superuser flag only and deliberately ignores organization
// membership: this is the single path that may act across tenants.
type SuperCapability string

const (
	SuperCapabilityOrgList         SuperCapability = "platform.organization.list"
	SuperCapabilityOrgStatusChange SuperCapability = "platform.organization.status_change"
	SuperCapabilityInvitationStats SuperCapability = "platform.invitation.stats"
)

// adminOnly capabilities require the ADMIN role inside the organization.
var adminOnly = map[Capability]bool{
	CapabilityInvitationCreate: true,
	CapabilityInvitationRevoke: true,
	CapabilityUserRoleChange:   true,
	CapabilityOrgUpdate:        true,
}

// accountantRestricted capabilities are denied to ACCOUNTANT principals
// even though regular users hold them.
var accountantRestricted = map[Capability]bool{
	CapabilityBudgetManage:   true,
	CapabilityCategoryCreate: true,
	CapabilityUserRoleChange: true,
}

// All returns every per-tenant capability, used for policy seeding.
func All() []Capability {
	return []Capability{
		CapabilityInvoiceView,
		CapabilityInvoiceCreate,
		CapabilityInvoiceUpdate,
		CapabilityExpenseView,
		CapabilityExpenseCreate,
		CapabilityCustomerView,
		CapabilityCustomerCreate,
		CapabilityInvitationCreate,
		CapabilityInvitationRevoke,
		CapabilityInvitationView,
		CapabilityUserRoleChange,
		CapabilityOrgUpdate,
		CapabilityBudgetView,
		CapabilityBudgetManage,
		CapabilityCategoryCreate,
		CapabilityAuditLogView,
	}
}

// RequiresAdmin reports whether c is in the admin-only set.
func (c Capability) RequiresAdmin() bool { return adminOnly[c] }

// AccountantRestricted reports whether c is denied to accountants.
func (c Capability) AccountantRestricted() bool { return accountantRestricted[c] }

// Object returns the resource part of the capability name.
func (c Capability) Object() string {
	if i := strings.IndexByte(string(c), '.'); i > 0 {
		return string(c)[:i]
	}
	return string(c)
}

// Action returns the verb part of the capability name.
func (c Capability) Action() string {
	if i := strings.IndexByte(string(c), '.'); i > 0 {
		return string(c)[i+1:]
	}
	return ""
}
