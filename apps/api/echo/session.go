package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
)

const contextSessionKey = "session"

// sessionClaims is the payload of the signed session cookie: a snapshot of the user at login.
type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// sessionCodec signs and verifies session cookies.
type sessionCodec struct {
	conf   core.SessionConfig
	issuer string
	secure bool
}

func newSessionCodec(conf *core.Config) *sessionCodec {
	return &sessionCodec{conf: conf.Session, issuer: conf.AppName, secure: !conf.Debug}
}

// Encode returns the signed token for the session.
func (c *sessionCodec) Encode(sess *user.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Name:  sess.Name,
		Email: sess.Email,
		Role:  sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.conf.MaxAge)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.conf.Secret))
	return token, errors.Wrap(err, "signing session")
}

// Decode verifies the token and returns the session it carries.
func (c *sessionCodec) Decode(token string) (*user.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.conf.Secret), nil
	}, jwt.WithIssuer(c.issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid session")
	}
	return &user.Session{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}

func (c *sessionCodec) setCookie(ctx echo.Context, sess *user.Session) error {
	token, err := c.Encode(sess)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     c.conf.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.conf.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextSessionKey, sess)
	return nil
}

func (c *sessionCodec) clearCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.conf.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextSessionKey, (*user.Session)(nil))
}

// middleware loads the session from the cookie, if any. Invalid cookies are ignored.
func (c *sessionCodec) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if cookie, err := ctx.Cookie(c.conf.CookieName); err == nil && cookie.Value != "" {
			if sess, err := c.Decode(cookie.Value); err == nil {
				ctx.Set(contextSessionKey, sess)
			}
		}
		return next(ctx)
	}
}

// getContextSession returns the request's session, nil if anonymous.
func getContextSession(ctx echo.Context) *user.Session {
	sess, _ := ctx.Get(contextSessionKey).(*user.Session)
	return sess
}
