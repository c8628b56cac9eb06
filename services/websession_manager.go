package services

import (
	"net/http"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is used for the session cookie.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// WebSessionManager issues and parses the signed session cookie set after a
// successful identity-provider login.
type WebSessionManager struct {
	config *models.Config
}

func NewWebSessionManager(config *models.Config) *WebSessionManager {
	return &WebSessionManager{config: config}
}

// CookieName returns the session cookie name, with the __Host- prefix when
// serving over TLS.
func (m *WebSessionManager) CookieName() string {
	name := "teatracker_session"
	if m.config.SSLMode != "off" {
		name = "__Host-" + name
	}
	return name
}

// Create signs a session token for the user and sets it as a cookie.
func (m *WebSessionManager) Create(user *models.User, w http.ResponseWriter) error {
	jwtKey := []byte(m.config.SigningKey)
	expirationTime := time.Now().Add(m.config.WebSessionValidity)
	claims := &SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return err
	}
	cookie := http.Cookie{
		Name:     m.CookieName(),
		Value:    tokenString,
		Expires:  expirationTime,
		HttpOnly: true,
		Path:     "/",
		Secure:   m.config.SSLMode != "off",
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &cookie)
	return nil
}

// Clear expires the session cookie.
func (m *WebSessionManager) Clear(w http.ResponseWriter) {
	cookie := http.Cookie{
		Name:     m.CookieName(),
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
		Secure:   m.config.SSLMode != "off",
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, &cookie)
}

// Parse validates a session token string and returns its claims.
func (m *WebSessionManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.config.SigningKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
