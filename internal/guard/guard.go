package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/cookiestore"
	"attendanceportal/internal/session"
)

// Class classifies a page for access control.
type Class int

const (
	// Public pages are reachable regardless of session state.
	Public Class = iota
	// Protected pages require an authenticated session.
	Protected
	// AuthOnly pages (login forms) are for unauthenticated visitors.
	AuthOnly
)

// Decision is the guard's verdict for a page entry.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectForward
)

// Decide applies the access table: protected pages bounce unauthenticated
// visitors to login, login pages bounce authenticated visitors forward.
func Decide(authenticated bool, class Class) Decision {
	switch class {
	case Protected:
		if !authenticated {
			return RedirectLogin
		}
	case AuthOnly:
		if authenticated {
			return RedirectForward
		}
	}
	return Allow
}

// Guard gates routes for one session role.
type Guard struct {
	sessions  *session.Manager
	loginPath string
	homePath  string
}

// New creates a guard redirecting to loginPath and forwarding to homePath.
func New(sessions *session.Manager, loginPath, homePath string) *Guard {
	return &Guard{sessions: sessions, loginPath: loginPath, homePath: homePath}
}

const holderKey = "sessionHolder"

// Pages returns middleware for browser page routes. It hydrates the
// session and redirects before the handler runs, so no fetch is issued
// for a page the visitor may not see.
func (g *Guard) Pages(class Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := g.hydrate(c)
		switch Decide(h.Authenticated(), class) {
		case RedirectLogin:
			c.Redirect(http.StatusSeeOther, g.loginPath)
			c.Abort()
		case RedirectForward:
			c.Redirect(http.StatusSeeOther, g.homePath)
			c.Abort()
		}
	}
}

// API returns middleware for JSON routes: 401 instead of a redirect.
func (g *Guard) API() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := g.hydrate(c)
		if !h.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authenticated"})
		}
	}
}

// Attach hydrates the session without gating, for login/logout routes.
func (g *Guard) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.hydrate(c)
	}
}

func (g *Guard) hydrate(c *gin.Context) *session.Holder {
	if v, ok := c.Get(holderKey); ok {
		return v.(*session.Holder)
	}
	h := g.sessions.Bind(cookiestore.NewHTTPJar(c.Writer, c.Request))
	h.Hydrate(c.Request.Context())
	c.Set(holderKey, h)
	return h
}

// Session returns the request's hydrated holder. It panics if no guard
// middleware ran on the route.
func Session(c *gin.Context) *session.Holder {
	v, ok := c.Get(holderKey)
	if !ok {
		panic("guard: no session on route")
	}
	return v.(*session.Holder)
}
