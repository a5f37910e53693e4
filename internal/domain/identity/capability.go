package identity

import "sort"

// Role is the coarse account type. Every authorization decision goes
// through the capability evaluator; call sites never compare role strings.
type Role string

const (
	RoleAdmin       Role = "ADMIN"        // Marketplace operator staff
	RoleVendorStaff Role = "VENDOR_STAFF" // Runs one vendor's storefront
	RoleCustomer    Role = "CUSTOMER"     // Buyer
)

// AllRoles lists every role
var AllRoles = []Role{RoleAdmin, RoleVendorStaff, RoleCustomer}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleVendorStaff, RoleCustomer:
		return true
	}
	return false
}

// Capability names one guarded action. Route groups and services ask the
// evaluator for a capability instead of inspecting roles.
type Capability string

const (
	CapOrderPlace      Capability = "order:place"
	CapOrderView       Capability = "order:view"
	CapOrderTransition Capability = "order:transition"
	CapOrderCancel     Capability = "order:cancel"
	CapOrderRefund     Capability = "order:refund"

	CapProductManage  Capability = "product:manage"
	CapCategoryManage Capability = "category:manage"

	CapVendorManage  Capability = "vendor:manage"
	CapVendorVerify  Capability = "vendor:verify"
	CapVendorSuspend Capability = "vendor:suspend"

	CapPlanManage         Capability = "plan:manage"
	CapSubscriptionManage Capability = "subscription:manage"
	CapUsageTrack         Capability = "usage:track"

	CapReviewSubmit   Capability = "review:submit"
	CapReviewModerate Capability = "review:moderate"

	CapUserManage   Capability = "user:manage"
	CapTenantManage Capability = "tenant:manage"

	CapAnalyticsView Capability = "analytics:view"
)

// Evaluator answers whether a role grants a capability. There is one
// grant table for the whole system; handlers and middleware share it.
type Evaluator struct {
	grants map[Role]map[Capability]bool
}

// NewEvaluator builds the evaluator with the built-in grant table
func NewEvaluator() *Evaluator {
	grant := func(caps ...Capability) map[Capability]bool {
		m := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			m[c] = true
		}
		return m
	}

	return &Evaluator{
		grants: map[Role]map[Capability]bool{
			RoleAdmin: grant(
				CapOrderView, CapOrderTransition, CapOrderCancel, CapOrderRefund,
				CapProductManage, CapCategoryManage,
				CapVendorManage, CapVendorVerify, CapVendorSuspend,
				CapPlanManage, CapSubscriptionManage, CapUsageTrack,
				CapReviewModerate,
				CapUserManage, CapTenantManage,
				CapAnalyticsView,
			),
			RoleVendorStaff: grant(
				CapOrderView, CapOrderTransition, CapOrderCancel,
				CapProductManage,
				CapVendorManage,
				CapSubscriptionManage, CapUsageTrack,
				CapAnalyticsView,
			),
			RoleCustomer: grant(
				CapOrderPlace, CapOrderView, CapOrderCancel,
				CapReviewSubmit,
			),
		},
	}
}

// Allows reports whether the role grants the capability
func (e *Evaluator) Allows(role Role, capability Capability) bool {
	caps, ok := e.grants[role]
	if !ok {
		return false
	}
	return caps[capability]
}

// AllowsAny reports whether the role grants at least one of the capabilities
func (e *Evaluator) AllowsAny(role Role, capabilities ...Capability) bool {
	for _, c := range capabilities {
		if e.Allows(role, c) {
			return true
		}
	}
	return false
}

// Capabilities returns the role's full grant set, sorted for stable output
func (e *Evaluator) Capabilities(role Role) []Capability {
	caps, ok := e.grants[role]
	if !ok {
		return nil
	}
	out := make([]Capability, 0, len(caps))
	for c := range caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
