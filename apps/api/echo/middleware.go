package echoapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/services/metrics"
)

// wantsHTML reports whether the request comes from a browser navigation.
func wantsHTML(ctx echo.Context) bool {
	req := ctx.Request()
	return req.Method == http.MethodGet && strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

// loginRedirect sends browsers to the login page, remembering where they were going.
func loginRedirect(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(ctx.Request().URL.Path))
}

func authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := user.RequireAuthenticated(getContextSession(ctx)); err != nil {
			if wantsHTML(ctx) {
				return loginRedirect(ctx)
			}
			return errHttpUnauthorized
		}
		return next(ctx)
	}
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		switch user.RequireAdmin(getContextSession(ctx)) {
		case nil:
			return next(ctx)
		case user.ErrUnauthenticated:
			if wantsHTML(ctx) {
				return loginRedirect(ctx)
			}
			return errHttpUnauthorized
		default:
			return errHttpForbidden
		}
	}
}

// metricsMiddleware counts requests by route template, method and final status.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, ctx.Request().Method, ctx.Response().Status)
			return nil
		}
	}
}

// authRateLimiter limits login and signup attempts per client IP. A limit <= 0 disables it.
func authRateLimiter(limit float64) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(limit * 2)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errHttpForbidden
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errHttpTooManyRequests
		},
	})
}
