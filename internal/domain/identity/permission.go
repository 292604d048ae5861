// Package identity resolves what a signed-in back-office user may do.
package identity

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Role is a user's role inside a company
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// IsValid checks the role
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// IsPrivileged reports whether the role bypasses the explicit permission map
func (r Role) IsPrivileged() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Module is a feature area that a company can switch on or off
type Module string

const (
	ModuleOrders    Module = "pedidos"
	ModuleInventory Module = "estoque"
	ModuleFiscal    Module = "fiscal"
	ModuleFinance   Module = "financeiro"
	ModuleSupport   Module = "sac"
	ModuleTasks     Module = "tarefas"
	ModuleCommunity Module = "comunidade"
)

// Permission is a "module:action" code, e.g. "fiscal:emit"
type Permission string

const (
	PermOrdersView    Permission = "pedidos:view"
	PermOrdersImport  Permission = "pedidos:import"
	PermOrdersEdit    Permission = "pedidos:edit"
	PermFinanceView   Permission = "financeiro:view"
	PermFinanceExport Permission = "financeiro:export"
	PermFiscalView    Permission = "fiscal:view"
	PermFiscalEmit    Permission = "fiscal:emit"
	PermFiscalSync    Permission = "fiscal:sync"
	PermFiscalCancel  Permission = "fiscal:cancel"
)

// ParsePermission validates a "module:action" code
func ParsePermission(code string) (Permission, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	parts := strings.SplitN(code, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", shared.NewDomainError("INVALID_PERMISSION_CODE", "Permission code must be in format 'module:action'")
	}
	return Permission(code), nil
}

// Module returns the module part of the permission
func (p Permission) Module() Module {
	module, _, _ := strings.Cut(string(p), ":")
	return Module(module)
}

// PermissionMap holds explicit grants for non-privileged roles
type PermissionMap map[Permission]bool

// ModuleMap holds the modules enabled for a company
type ModuleMap map[Module]bool

// Resolve decides whether role may use permission. It is a pure function:
// a disabled module denies everyone, owner and admin are granted everything
// in enabled modules, and any other role needs an explicit grant.
func Resolve(role Role, permissions PermissionMap, modules ModuleMap, permission Permission) bool {
	if !modules[permission.Module()] {
		return false
	}
	if role.IsPrivileged() {
		return true
	}
	if !role.IsValid() {
		return false
	}
	return permissions[permission]
}

// ResolveAny returns true if any of the permissions resolves
func ResolveAny(role Role, permissions PermissionMap, modules ModuleMap, wanted ...Permission) bool {
	for _, p := range wanted {
		if Resolve(role, permissions, modules, p) {
			return true
		}
	}
	return false
}
