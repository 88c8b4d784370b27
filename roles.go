package auth

// UserRole is the principal's role. The set is closed; values read back
// from persisted state are parsed through ParseRole rather than trusted.
type UserRole string

const (
	// RoleUser is the regular investor role
	RoleUser UserRole = "user"
	// RoleAdmin can manage users and review platform activity
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin can additionally manage admins and assign roles
	RoleSuperAdmin UserRole = "superadmin"
)

// Permission names an action a role may perform.
type Permission string

const (
	PermissionDashboardView       Permission = "dashboard.view"
	PermissionFundsDeposit        Permission = "funds.deposit"
	PermissionFundsWithdraw       Permission = "funds.withdraw"
	PermissionReferralsShare      Permission = "referrals.share"
	PermissionUsersManage         Permission = "users.manage"
	PermissionKYCReview           Permission = "kyc.review"
	PermissionTransactionsApprove Permission = "transactions.approve"
	PermissionAdminsManage        Permission = "admins.manage"
	PermissionRolesAssign         Permission = "roles.assign"
)

// Routes the guard and orchestrator redirect to. Admin surfaces live
// under the /admin prefix and get their own login route.
const (
	RouteLogin          = "/login"
	RouteAdminLogin     = "/admin/login"
	RouteUserDashboard  = "/dashboard"
	RouteAdminDashboard = "/admin"
	RouteSuperAdminHome = "/admin/overview"
	adminRoutePrefix    = "/admin"
)

var roleHierarchy = map[UserRole]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

var rolePermissions = map[UserRole][]Permission{
	RoleUser: {
		PermissionDashboardView,
		PermissionFundsDeposit,
		PermissionFundsWithdraw,
		PermissionReferralsShare,
	},
	RoleAdmin: {
		PermissionDashboardView,
		PermissionFundsDeposit,
		PermissionFundsWithdraw,
		PermissionReferralsShare,
		PermissionUsersManage,
		PermissionKYCReview,
		PermissionTransactionsApprove,
	},
	RoleSuperAdmin: {
		PermissionDashboardView,
		PermissionFundsDeposit,
		PermissionFundsWithdraw,
		PermissionReferralsShare,
		PermissionUsersManage,
		PermissionKYCReview,
		PermissionTransactionsApprove,
		PermissionAdminsManage,
		PermissionRolesAssign,
	},
}

var roleRoutes = map[UserRole]string{
	RoleUser:       RouteUserDashboard,
	RoleAdmin:      RouteAdminDashboard,
	RoleSuperAdmin: RouteSuperAdminHome,
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// Level returns the hierarchy rank for "at least as privileged as"
// comparisons. Unknown roles rank below every valid role.
func (r UserRole) Level() int {
	if level, ok := roleHierarchy[r]; ok {
		return level
	}
	return -1
}

// IsAtLeast checks if this role meets the minimum required level.
// An unknown required role is never satisfied.
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	minLevel, ok := roleHierarchy[minRole]
	if !ok {
		return false
	}
	return r.Level() >= minLevel
}

// Can checks if the role's permission set contains the permission.
// Unknown roles hold the empty set.
func (r UserRole) Can(permission Permission) bool {
	for _, p := range rolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the role's permission set.
func (r UserRole) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// DefaultRoute returns the landing route for the role. Unknown roles
// land on the general login route.
func (r UserRole) DefaultRoute() string {
	if route, ok := roleRoutes[r]; ok {
		return route
	}
	return RouteLogin
}

// HasRoleLevel reports whether actual is at least as privileged as
// required. Hierarchy based, unlike allowed-role set membership.
func HasRoleLevel(actual, required UserRole) bool {
	return actual.IsAtLeast(required)
}

// HasPermission reports whether role's permission set contains permission.
func HasPermission(role UserRole, permission Permission) bool {
	return role.Can(permission)
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type. Values outside
// the closed set parse as invalid and are treated as lowest privilege by
// Level, Can and DefaultRoute rather than rejected with a panic.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// IsAdminRoute reports whether target belongs to the admin surface.
func IsAdminRoute(target string) bool {
	if target == adminRoutePrefix {
		return true
	}
	return len(target) > len(adminRoutePrefix) &&
		target[:len(adminRoutePrefix)+1] == adminRoutePrefix+"/"
}

// LoginRouteFor returns the login route appropriate for the navigation
// target: admin-prefixed targets go to the admin login route.
func LoginRouteFor(target string) string {
	if IsAdminRoute(target) {
		return RouteAdminLogin
	}
	return RouteLogin
}
