package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/services/metrics"
)

const defaultNext = "/portal"

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Next     string `json:"next" form:"next"`
	}

	// SessionResponse is returned when a session is opened.
	SessionResponse struct {
		User *user.Session `json:"user"`
		Next string        `json:"next"`
	}
)

type userApi struct {
	appName  string
	svc      *user.Service
	sessions *sessionCodec
	metrics  *metrics.Metrics
}

func registerUserAPI(e *echo.Echo, sessions *sessionCodec, rateLimit echo.MiddlewareFunc, opts *Options) {
	api := userApi{
		appName:  opts.Conf.AppName,
		svc:      opts.UserSvc,
		sessions: sessions,
		metrics:  opts.Metrics,
	}

	e.GET("/", api.home)
	e.GET("/signup", api.signupForm)
	e.POST("/signup", api.signup, rateLimit)
	e.GET("/login", api.loginForm)
	e.POST("/login", api.login, rateLimit)
	e.POST("/logout", api.logout)
}

// safeNext only allows redirections to local paths.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	return next
}

// Handlers

func (api *userApi) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"app":  api.appName,
		"user": getContextSession(ctx),
	})
}

func (api *userApi) signupForm(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"fields":   []string{"name", "email", "phone", "password"},
		"required": []string{"name", "email", "password"},
	})
}

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	sess, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		if core.IsValidation(err) || core.IsConflict(err) {
			return err
		}
		return errors.Wrap(err, "signing up")
	}
	if err = api.sessions.setCookie(ctx, sess); err != nil {
		return err
	}
	if api.metrics != nil {
		api.metrics.Signups.Inc()
	}

	return ctx.JSON(http.StatusCreated, SessionResponse{User: sess, Next: "/enroll"})
}

func (api *userApi) loginForm(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"next": safeNext(ctx.QueryParam("next"))})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	sess, err := api.svc.LogIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if core.IsAuth(err) {
			api.observeLogin("failure")
			return err
		}
		return errors.Wrap(err, "logging in")
	}
	if err = api.sessions.setCookie(ctx, sess); err != nil {
		return err
	}
	api.observeLogin("success")

	return ctx.JSON(http.StatusOK, SessionResponse{User: sess, Next: safeNext(data.Next)})
}

func (api *userApi) logout(ctx echo.Context) error {
	api.sessions.clearCookie(ctx)
	return ctx.JSON(http.StatusOK, echo.Map{"ok": true, "next": "/"})
}

func (api *userApi) observeLogin(outcome string) {
	if api.metrics != nil {
		api.metrics.Logins.WithLabelValues(outcome).Inc()
	}
}
