package endpoint

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth is a http.Handler wrapper that handles Basic Authorization.
// It supports only one pair of username and password.
//
// If the password starts with "$2", it is treated as a bcrypt hash.
type BasicAuth struct {
	Handler            http.Handler
	Username, Password string
}

// WithBasicAuth wraps http.Handler with a BasicAuth.
// The userinfo is "username:password". An empty userinfo disables authorization.
func WithBasicAuth(handler http.Handler, userinfo string) http.Handler {
	if userinfo == "" {
		return handler
	}

	a := BasicAuth{Handler: handler}

	a.Username, a.Password, _ = strings.Cut(userinfo, ":")

	return a
}

func (a BasicAuth) verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) != 1 {
		return false
	}

	if strings.HasPrefix(a.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
}

func (a BasicAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || !a.verify(username, password) {
		w.Header().Add("WWW-Authenticate", `Basic realm="ssdash"`)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("<h1>Unauthorized</h1>"))
		return
	}

	a.Handler.ServeHTTP(w, r)
}
