package guardware_test

import (
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	auth "github.com/meridianvest/go-auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meridianvest/go-auth/middleware/guardware"
)

func newMockContext(method, target string) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.On("Method").Return(method)
	ctx.On("OriginalURL").Return(target)
	ctx.On("Locals", "session", mock.Anything).Return(nil)
	return ctx
}

func staticLoader(session *auth.SessionObject) guardware.SessionLoader {
	return func(router.Context) *auth.SessionObject {
		return session
	}
}

func TestGuardware_AllowStoresSession(t *testing.T) {
	session := &auth.SessionObject{UserID: "u-1", Role: auth.RoleAdmin}

	handler := guardware.New(guardware.Config{
		SessionLoader: staticLoader(session),
		Rule:          auth.GuardRule{RequiredRole: auth.RoleAdmin},
	})(func(ctx router.Context) error { return ctx.Next() })

	ctx := newMockContext("GET", "/admin/reports")
	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
	ctx.AssertCalled(t, "Locals", "session", session)
}

func TestGuardware_AbsentSessionRedirectsToSurfaceLogin(t *testing.T) {
	handler := guardware.New(guardware.Config{
		SessionLoader: staticLoader(nil),
		Rule:          auth.GuardRule{RequiredRole: auth.RoleAdmin},
	})(func(ctx router.Context) error { return ctx.Next() })

	ctx := newMockContext("GET", "/admin/reports")
	ctx.On("Redirect", auth.RouteAdminLogin, http.StatusFound).Return(nil)

	require.NoError(t, handler(ctx))
	require.False(t, ctx.NextCalled)
	ctx.AssertCalled(t, "Redirect", auth.RouteAdminLogin, http.StatusFound)

	// a general surface target goes to the general login
	ctx = newMockContext("GET", "/dashboard/funds")
	ctx.On("Redirect", auth.RouteLogin, http.StatusFound).Return(nil)

	require.NoError(t, handler(ctx))
	ctx.AssertCalled(t, "Redirect", auth.RouteLogin, http.StatusFound)
}

func TestGuardware_DeniedRedirectUsesSeeOtherForPost(t *testing.T) {
	session := &auth.SessionObject{UserID: "u-1", Role: auth.RoleUser}

	handler := guardware.New(guardware.Config{
		SessionLoader: staticLoader(session),
		Rule:          auth.GuardRule{RequiredRole: auth.RoleAdmin},
	})(func(ctx router.Context) error { return ctx.Next() })

	ctx := newMockContext("POST", "/admin/reports")
	ctx.On("Redirect", auth.RouteUserDashboard, http.StatusSeeOther).Return(nil)

	require.NoError(t, handler(ctx))
	require.False(t, ctx.NextCalled)
	ctx.AssertCalled(t, "Redirect", auth.RouteUserDashboard, http.StatusSeeOther)
}

func TestGuardware_FilterSkipsGuard(t *testing.T) {
	handler := guardware.New(guardware.Config{
		Filter:        func(router.Context) bool { return true },
		SessionLoader: staticLoader(nil),
		Rule:          auth.GuardRule{RequiredRole: auth.RoleSuperAdmin},
	})(func(ctx router.Context) error { return ctx.Next() })

	ctx := newMockContext("GET", "/health")
	require.NoError(t, handler(ctx))
	require.True(t, ctx.NextCalled)
}

func TestGuardware_MissingLoaderIsConfigError(t *testing.T) {
	var captured error

	handler := guardware.New(guardware.Config{
		ErrorHandler: func(ctx router.Context, err error) error {
			captured = err
			return err
		},
	})(func(ctx router.Context) error { return ctx.Next() })

	ctx := newMockContext("GET", "/dashboard")
	err := handler(ctx)
	require.Error(t, err)
	require.ErrorIs(t, captured, guardware.ErrMissingSessionLoader)
}
