package auth

// GuardRule describes the authorization requirement for a navigation
// target. RequiredRole uses hierarchy comparison; AllowedRoles uses
// exact set membership. The asymmetry is deliberate and preserved from
// observed behavior: a superadmin is NOT automatically accepted by
// AllowedRoles containing only admin, while RequiredRole admin accepts
// every role at admin level or above.
type GuardRule struct {
	RequiredRole UserRole
	AllowedRoles []UserRole
	// Fallback overrides the redirect for denied-but-authenticated
	// sessions; empty means the session role's default route.
	Fallback string
}

// Decision is the guard's render-vs-redirect outcome.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// EvaluateGuard decides whether the session may render the target.
// Absent sessions redirect to the login route matching the target's
// surface (admin targets to the admin login). Evaluation is pure given
// the session snapshot and safe to run on every navigation.
func EvaluateGuard(target string, session *SessionObject, rule GuardRule) Decision {
	if session == nil {
		return Decision{RedirectTo: LoginRouteFor(target)}
	}

	if rule.RequiredRole != "" && !session.IsAtLeast(rule.RequiredRole) {
		return Decision{RedirectTo: guardFallback(session, rule)}
	}

	if len(rule.AllowedRoles) > 0 && !roleInSet(session.Role, rule.AllowedRoles) {
		return Decision{RedirectTo: guardFallback(session, rule)}
	}

	return Decision{Allow: true}
}

func guardFallback(session *SessionObject, rule GuardRule) string {
	if rule.Fallback != "" {
		return rule.Fallback
	}
	return session.DefaultRoute()
}

func roleInSet(role UserRole, set []UserRole) bool {
	for _, allowed := range set {
		if role == allowed {
			return true
		}
	}
	return false
}
