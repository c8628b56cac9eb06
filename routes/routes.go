package routes

import (
	"net/http"
	"os"

	alertController "github.com/Erebuzzz/tea-tracker/controllers/alert"
	authController "github.com/Erebuzzz/tea-tracker/controllers/auth"
	teaController "github.com/Erebuzzz/tea-tracker/controllers/tea"
	userController "github.com/Erebuzzz/tea-tracker/controllers/user"
	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/asaskevich/EventBus"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

func New(config *models.Config, db *gorm.DB, bus EventBus.Bus, sender services.Sender, verifier *services.IdentityVerifier) http.Handler {
	router := mux.NewRouter()
	session := NewSessionHandler(config)

	logged := func(h http.HandlerFunc) http.Handler {
		return handlers.LoggingHandler(os.Stdout, http.HandlerFunc(h))
	}

	authC := authController.New(db, config, verifier)
	router.Handle("/auth/session", logged(authC.CreateSession)).Methods(http.MethodPost)
	router.Handle("/auth/logout", logged(authC.DeleteSession)).Methods(http.MethodPost)

	userC := userController.New(db, config)
	router.Handle("/api/user", logged(session.SessionMiddleware(userC.GetProfile))).Methods(http.MethodGet)
	router.Handle("/api/user/notifications", logged(session.SessionMiddleware(userC.UpdateNotifications))).Methods(http.MethodPut)
	router.Handle("/api/user/pushkey", logged(session.SessionMiddleware(userC.GetPushSubscriptionKey))).Methods(http.MethodGet)
	router.Handle("/api/user/subscription", logged(session.SessionMiddleware(userC.RegisterPushSubscription))).Methods(http.MethodPost)

	teaC := teaController.New(db, config, bus)
	router.Handle("/api/teas", logged(session.SessionMiddleware(teaC.Create))).Methods(http.MethodPost)
	router.Handle("/api/teas", logged(session.SessionMiddleware(teaC.ListDay))).Methods(http.MethodGet)
	router.Handle("/api/teas/week", logged(session.SessionMiddleware(teaC.ListWeek))).Methods(http.MethodGet)
	router.Handle("/api/teas/{id}", logged(session.SessionMiddleware(teaC.Delete))).Methods(http.MethodDelete)
	router.Handle("/api/limit", logged(session.SessionMiddleware(teaC.CheckLimit))).Methods(http.MethodGet)

	// The alert composer answers its own preflight and method checks, so it
	// is registered without a method filter.
	alertC := alertController.New(config, sender)
	router.Handle("/api/alert", logged(alertC.SendAlert))

	return router
}
