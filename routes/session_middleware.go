package routes

import (
	"context"
	"log"
	"net/http"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
)

type SessionHandler struct {
	config   *models.Config
	sessions *services.WebSessionManager
}

func NewSessionHandler(config *models.Config) *SessionHandler {
	return &SessionHandler{config: config, sessions: services.NewWebSessionManager(config)}
}

// SessionMiddleware requires a valid session cookie and puts the user's
// identity (email) into the request context.
func (s *SessionHandler) SessionMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := r.Cookie(s.sessions.CookieName())
		if err != nil {
			log.Printf("SessionHandler: Cannot find session cookie: %s", err.Error())
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := s.sessions.Parse(session.Value)
		if err != nil {
			log.Printf("SessionHandler: Rejected session token: %s", err.Error())
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if claims.Email == "" || claims.ExpiresAt == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "identity", claims.Email)
		ctx = context.WithValue(ctx, "sessionExpiresAt", claims.ExpiresAt.Unix())
		h(w, r.WithContext(ctx))
	}
}
