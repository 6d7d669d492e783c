// Package policy implements the ownership-based access control rule applied
// uniformly across every resource type: a mutation is allowed iff the caller
// owns the target row or holds the admin role. Resources without per-row
// ownership are admin-only. Handlers must resolve the target resource before
// evaluating policy so a missing resource surfaces as NotFound, never as
// Forbidden.
package policy

import "github.com/citylink/citylink/internal/platform/httpx"

// Authorize allows the action when the caller owns the resource or is admin.
func Authorize(id Identity, ownerID int64) error {
	if id.ID == ownerID || id.Role.IsAdmin() {
		return nil
	}
	return httpx.ErrForbidden
}

// RequireAdmin allows the action only for admin callers. Used for global
// reference data that has no owning account.
func RequireAdmin(id Identity) error {
	if id.Role.IsAdmin() {
		return nil
	}
	return httpx.ErrForbidden
}
