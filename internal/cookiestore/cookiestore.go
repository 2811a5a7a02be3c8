package cookiestore

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Jar is the minimal cookie surface the session layer needs. Set is
// best-effort: callers may inspect the returned error but are never
// required to, and implementations must not panic on failure.
type Jar interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration) error
	Remove(name string)
}

// ErrNoResponseWriter is returned by Set when the jar has no writer to
// persist through. The in-memory state still updates.
var ErrNoResponseWriter = errors.New("cookiestore: no response writer")

// HTTPJar reads cookies from a request and writes them to a response.
// Writes within one request are visible to subsequent reads.
type HTTPJar struct {
	w       http.ResponseWriter
	r       *http.Request
	written map[string]*string // nil value marks removal
}

// NewHTTPJar binds a jar to one request/response pair.
func NewHTTPJar(w http.ResponseWriter, r *http.Request) *HTTPJar {
	return &HTTPJar{w: w, r: r, written: make(map[string]*string)}
}

// Get returns the current value for name, preferring values written
// during this request over the ones the client sent.
func (j *HTTPJar) Get(name string) (string, bool) {
	if v, ok := j.written[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	val, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", false
	}
	return val, true
}

// Set persists value under name with the given ttl.
func (j *HTTPJar) Set(name, value string, ttl time.Duration) error {
	v := value
	j.written[name] = &v
	if j.w == nil {
		return ErrNoResponseWriter
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Remove expires the cookie immediately.
func (j *HTTPJar) Remove(name string) {
	j.written[name] = nil
	if j.w == nil {
		return
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// MemJar is a map-backed jar for tests and offline hydration.
type MemJar struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time
}

// NewMemJar creates an empty in-memory jar.
func NewMemJar() *MemJar {
	return &MemJar{entries: make(map[string]memEntry)}
}

func (j *MemJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[name]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(j.entries, name)
		return "", false
	}
	return e.value, true
}

func (j *MemJar) Set(name, value string, ttl time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	j.entries[name] = e
	return nil
}

func (j *MemJar) Remove(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.entries, name)
}
