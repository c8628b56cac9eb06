package user

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/Erebuzzz/tea-tracker/utils"
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"
)

type UserController struct {
	db        *gorm.DB
	config    *models.Config
	vapidKeys VapidKeys
}

type VapidKeys struct {
	PublicKey  string
	privateKey string
	subscriber string
}

// New creates an instance of the controller and sets its DB handle
func New(db *gorm.DB, config *models.Config) *UserController {
	vapidKeys := VapidKeys{subscriber: config.AdminEmail, PublicKey: config.VapidPublicKey, privateKey: config.VapidPrivateKey}
	return &UserController{db: db, config: config, vapidKeys: vapidKeys}
}

// GetProfile returns the authenticated user's account, including plan start
// and notification preferences.
func (u *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	userManager := services.NewUserManager(u.db, u.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("UserController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	utils.JSONResponse(w, user, http.StatusOK)
}

// UpdateNotifications replaces the user's notification preferences.
func (u *UserController) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	r.Body = http.MaxBytesReader(w, r.Body, u.config.MaxBodySize) // Refuse request with big body

	var prefs models.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userManager := services.NewUserManager(u.db, u.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("UserController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := userManager.UpdateNotifications(user, prefs); err != nil {
		log.Printf("UserController: Error updating preferences for %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	utils.JSONResponse(w, prefs, http.StatusOK)
}

// GetPushSubscriptionKey returns the VAPID public key browsers need to
// subscribe to push notifications.
func (u *UserController) GetPushSubscriptionKey(w http.ResponseWriter, r *http.Request) {
	keyInfo := VapidKeys{PublicKey: u.vapidKeys.PublicKey}
	utils.JSONResponse(w, keyInfo, http.StatusOK)
}

// RegisterPushSubscription stores a browser push subscription for the user.
func (u *UserController) RegisterPushSubscription(w http.ResponseWriter, r *http.Request) {
	var email = r.Context().Value("identity").(string)

	r.Body = http.MaxBytesReader(w, r.Body, u.config.MaxBodySize) // Refuse request with big body

	userManager := services.NewUserManager(u.db, u.config)
	user, err := userManager.Get(email)
	if err != nil {
		log.Printf("UserController: Error fetching user %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// read raw body for hashing the subscription
	var bodyBytes []byte
	if r.Body != nil {
		bodyBytes, _ = io.ReadAll(r.Body)
	}
	// Restore the io.ReadCloser to its original state
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	// Validate that what we receive is a valid web push subscription
	subscription := &webpush.Subscription{}
	if err := json.NewDecoder(r.Body).Decode(&subscription); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	hash := sha256.Sum256(bodyBytes)
	userSubscription := models.UserSubscription{
		UserID: user.ID,
		Hash:   fmt.Sprintf("%x", hash),
		Data:   string(bodyBytes),
	}
	if _, err := userManager.AddUserSubscription(user, &userSubscription); err != nil {
		log.Printf("UserController: Error saving user subscription for %s: %s", email, err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	log.Printf("UserController: User %s subscribed to push notifications", user.Email)
	w.WriteHeader(http.StatusCreated)
}
