package identity

import (
	"github.com/google/uuid"
)

// Session is the explicit identity of the caller, passed down instead of
// looked up from ambient state
type Session struct {
	UserID      uuid.UUID
	CompanyID   uuid.UUID
	Role        Role
	Permissions PermissionMap
	Modules     ModuleMap
}

// NewSession builds a session from token claims. Unknown permission codes are dropped.
func NewSession(userID, companyID uuid.UUID, role string, permissions []string, modules []string) Session {
	s := Session{
		UserID:      userID,
		CompanyID:   companyID,
		Role:        Role(role),
		Permissions: make(PermissionMap, len(permissions)),
		Modules:     make(ModuleMap, len(modules)),
	}
	for _, code := range permissions {
		if p, err := ParsePermission(code); err == nil {
			s.Permissions[p] = true
		}
	}
	for _, m := range modules {
		s.Modules[Module(m)] = true
	}
	return s
}

// Can resolves a permission for the session
func (s Session) Can(p Permission) bool {
	return Resolve(s.Role, s.Permissions, s.Modules, p)
}

// CanAny resolves any of the permissions for the session
func (s Session) CanAny(ps ...Permission) bool {
	return ResolveAny(s.Role, s.Permissions, s.Modules, ps...)
}
