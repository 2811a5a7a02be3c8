package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/session"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		authenticated bool
		class         Class
		want          Decision
	}{
		{false, Public, Allow},
		{true, Public, Allow},
		{false, Protected, RedirectLogin},
		{true, Protected, Allow},
		{false, AuthOnly, Allow},
		{true, AuthOnly, RedirectForward},
	}
	for _, tc := range cases {
		if got := Decide(tc.authenticated, tc.class); got != tc.want {
			t.Errorf("Decide(%v, %v) = %v, want %v", tc.authenticated, tc.class, got, tc.want)
		}
	}
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	mgr := session.NewManager(session.Config{
		Role:       session.RoleStudent,
		CookieName: "user",
		TTL:        time.Hour,
		JWTIssuer:  "portal-test",
		SigningKey: "test-signing-key",
	}, nil)
	g := New(mgr, "/login", "/dashboard")

	r := gin.New()
	r.GET("/dashboard", g.Pages(Protected), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard for %s", Session(c).Identity())
	})
	r.GET("/login", g.Pages(AuthOnly), func(c *gin.Context) {
		c.String(http.StatusOK, "login")
	})
	r.GET("/api/data", g.API(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestProtectedRedirectsToLogin(t *testing.T) {
	r := testRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("code=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestProtectedAllowsAuthenticated(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: "a%40b.com"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "dashboard for a@b.com" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestAuthOnlyRedirectsForward(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "user", Value: "a%40b.com"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("code=%d location=%q", w.Code, w.Header().Get("Location"))
	}
}

func TestAuthOnlyAllowsAnonymous(t *testing.T) {
	r := testRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestAPIRejectsWith401(t *testing.T) {
	r := testRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d", w.Code)
	}
}
