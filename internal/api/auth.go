package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/kwkoo/go-birdr/internal/logger"
)

type Auth struct {
	username string
	password string
	realm    string
}

func InitAuth(username, password, realm string) *Auth {
	auth := Auth{
		username: username,
		password: password,
		realm:    realm,
	}

	if auth.IsDisabled() {
		log := logger.For("auth")
		log.Info().Msg("authenticator disabled")
	}
	return &auth
}

func (auth *Auth) BasicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var authenticated bool
		username, password, ok := r.BasicAuth()
		if ok {
			authenticated = auth.Authenticated(username, password)
		} else {
			authenticated = auth.IsDisabled()
		}
		if !authenticated {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, auth.realm))
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Authenticated always succeeds when no credentials are configured.
func (auth *Auth) Authenticated(username, password string) bool {
	if auth.IsDisabled() {
		return true
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(auth.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(auth.password)) == 1
	return userOK && passOK
}

func (auth *Auth) IsDisabled() bool {
	return auth.username == "" || auth.password == ""
}
