// ABOUTME: Cookie-backed session persistence for the auth subsystem
// ABOUTME: Writes and clears the four session cookies as one unit

package services

import (
	"net/http"
	"strconv"
)

// The four session cookies. Written together on login, cleared together on
// logout or on detecting an expired token. The refresh cookie is HttpOnly;
// it must never be readable from page scripts.
const (
	CookieUser    = "user"
	CookieAuth    = "user-auth"
	CookieRefresh = "user-refresh"
	CookieMaxAge  = "user-maxage"
)

// SessionCookies holds the values recovered from a request's session cookies.
type SessionCookies struct {
	User         string
	AccessToken  string
	RefreshToken string
	MaxAge       int
}

// CookieStore persists the session cookie set. One store serves all
// sessions; per-session state lives in the cookies themselves.
type CookieStore struct {
	secure bool
	path   string
}

// NewCookieStore creates a store. secure controls the cookies' Secure flag;
// disable it only for plain-HTTP development setups.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure, path: "/"}
}

// Write sets all four session cookies with lifetime maxAge seconds. The
// max-age value is itself stored so a later refresh can reuse the original
// session length instead of defaulting back to the short one.
func (cs *CookieStore) Write(w http.ResponseWriter, user, accessToken, refreshToken string, maxAge int) {
	cs.set(w, CookieUser, user, maxAge, false)
	cs.set(w, CookieAuth, accessToken, maxAge, false)
	cs.set(w, CookieRefresh, refreshToken, maxAge, true)
	cs.set(w, CookieMaxAge, strconv.Itoa(maxAge), maxAge, false)
}

// Clear expires all four session cookies.
func (cs *CookieStore) Clear(w http.ResponseWriter) {
	for _, name := range []string{CookieUser, CookieAuth, CookieRefresh, CookieMaxAge} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     cs.path,
			MaxAge:   -1,
			HttpOnly: name == CookieRefresh,
			Secure:   cs.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// Read recovers the session cookie set from a request. Absent cookies leave
// zero values; callers decide whether a partial set is usable.
func (cs *CookieStore) Read(r *http.Request) SessionCookies {
	sc := SessionCookies{}
	if c, err := r.Cookie(CookieUser); err == nil {
		sc.User = c.Value
	}
	if c, err := r.Cookie(CookieAuth); err == nil {
		sc.AccessToken = c.Value
	}
	if c, err := r.Cookie(CookieRefresh); err == nil {
		sc.RefreshToken = c.Value
	}
	if c, err := r.Cookie(CookieMaxAge); err == nil {
		if v, err := strconv.Atoi(c.Value); err == nil {
			sc.MaxAge = v
		}
	}
	return sc
}

func (cs *CookieStore) set(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cs.path,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   cs.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
