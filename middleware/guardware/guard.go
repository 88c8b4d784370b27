package guardware

import (
	"errors"
	"net/http"

	auth "github.com/meridianvest/go-auth"
	"github.com/goliatone/go-router"
)

// ErrMissingSessionLoader is returned by handlers when no loader was
// configured; the middleware cannot decide anything without one.
var ErrMissingSessionLoader = errors.New("guardware: missing session loader")

// SessionLoader resolves the current session snapshot for a request,
// or nil when unauthenticated.
type SessionLoader func(ctx router.Context) *auth.SessionObject

type Config struct {
	// Filter skips the guard entirely when it returns true.
	Filter func(router.Context) bool

	// SessionLoader is required.
	SessionLoader SessionLoader

	// Rule is evaluated against the request target. RequiredRole is
	// hierarchy based; AllowedRoles is exact membership. See
	// auth.GuardRule for the asymmetry note.
	Rule auth.GuardRule

	// SuccessHandler runs after an allow decision; defaults to Next.
	SuccessHandler router.HandlerFunc

	// ErrorHandler handles configuration errors.
	ErrorHandler router.ErrorHandler

	// ContextKey stores the session in request locals on allow.
	ContextKey string

	// RedirectStatus defaults to 303, or 302 for GET requests.
	RedirectStatus int
}

// New returns a middleware that evaluates the route guard on every
// request and either renders (Next) or redirects. The decision itself
// has no side effects; only the redirect response does.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if cfg.SessionLoader == nil {
				return cfg.ErrorHandler(ctx, ErrMissingSessionLoader)
			}

			session := cfg.SessionLoader(ctx)
			decision := auth.EvaluateGuard(ctx.OriginalURL(), session, cfg.Rule)

			if !decision.Allow {
				return ctx.Redirect(decision.RedirectTo, cfg.redirectStatus(ctx))
			}

			ctx.Locals(cfg.ContextKey, session)

			return cfg.SuccessHandler(ctx)
		}
	}
}

func (c Config) redirectStatus(ctx router.Context) int {
	if c.RedirectStatus != 0 {
		return c.RedirectStatus
	}
	if ctx.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Status(router.StatusInternalServerError).SendString(err.Error())
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	return cfg
}
