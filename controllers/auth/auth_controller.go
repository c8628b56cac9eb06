package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/Erebuzzz/tea-tracker/utils"
	"gorm.io/gorm"
)

type AuthController struct {
	db       *gorm.DB
	config   *models.Config
	verifier *services.IdentityVerifier
}

// New creates an instance of the controller and sets its DB handle
func New(db *gorm.DB, config *models.Config, verifier *services.IdentityVerifier) *AuthController {
	return &AuthController{db: db, config: config, verifier: verifier}
}

// CreateSession exchanges a bearer ID token from the identity provider for a
// session cookie, creating the account on first login.
func (a *AuthController) CreateSession(w http.ResponseWriter, r *http.Request) {
	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	claims, err := a.verifier.Verify(token)
	if err != nil {
		log.Printf("AuthController: Rejected identity token: %s", err.Error())
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	userManager := services.NewUserManager(a.db, a.config)
	user, err := userManager.CheckOrCreate(claims.Email, claims.Name, claims.Picture)
	if err != nil {
		log.Printf("AuthController: Error fetching or creating user %s: %s", claims.Email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessions := services.NewWebSessionManager(a.config)
	if err := sessions.Create(user, w); err != nil {
		log.Printf("AuthController: Error creating session for %s: %s", user.Email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	log.Printf("AuthController: User %s logged in", user.Email)
	utils.JSONResponse(w, user, http.StatusOK)
}

// DeleteSession logs the user out by expiring the session cookie.
func (a *AuthController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	services.NewWebSessionManager(a.config).Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
