package models

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"
)

// Config holds all the application config values.
// Not really a classical model since not saved into DB.
type Config struct {
	AdminEmail           string        // ADMINEMAIL
	Debug                bool          // DEBUG
	Port                 int           // PORT
	Host                 string        // HOST
	Domain               string        // DOMAIN
	DbType               string        // DBTYPE
	DbDSN                string        // DBDSN
	IdPIssuer            string        // IDPISSUER
	IdPAudience          string        // IDPAUDIENCE
	IdPJwksURL           string        // IDPJWKSURL
	EnableNotifications  bool          // ENABLENOTIFICATIONS
	MaxBodySize          int64         // MAXBODYSIZE
	OrgName              string        // ORGNAME
	SigningKey           string        // SIGNINGKEY
	EncryptionKey        string        // ENCRYPTIONKEY
	OriginalIPHeader     string        // ORIGINALIPHEADER
	SSLMode              string        // SSLMODE
	SSLAutoCertsDir      string        // SSLAUTOCERTSDIR
	SSLCustomCertPath    string        // SSLCUSTOMCERTPATH
	SSLCustomKeyPath     string        // SSLCUSTOMKEYPATH
	VapidPublicKey       string        // VAPIDPUBLICKEY
	VapidPrivateKey      string        // VAPIDPRIVATEKEY
	SMTPHost             string        // SMTPHOST
	SMTPPort             int           // SMTPPORT
	SMTPUser             string        // SMTPUSER
	SMTPPassword         string        // SMTPPASSWORD
	EmailFrom            string        // EMAILFROM
	DashboardURL         string        // DASHBOARDURL
	ReminderTimes        []string      // REMINDERTIMES
	ReminderTimezone     string        // REMINDERTIMEZONE
	NotificationCooldown time.Duration // NOTIFICATIONCOOLDOWN
	WebSessionValidity   time.Duration // WEBSESSIONVALIDITY
}

func (config *Config) New() Config {
	var defaultConfig = Config{
		DbType:              "sqlite",
		DbDSN:               "/tmp/teatracker.db",
		Debug:               false,
		Port:                8080,
		Host:                "127.0.0.1",
		EnableNotifications: true,
		MaxBodySize:         4096, // 4KB
		OrgName:             "Tea Tracker",
		EmailFrom:           "\"Tea Tracker\" <noreply@teatracker.app>",
		DashboardURL:        "https://tea-tracker15.web.app/dashboard",
		SMTPPort:            587,
		// The step-down plan nudges users at 9am, noon, 3pm and 6pm IST.
		ReminderTimes:        []string{"09:00", "12:00", "15:00", "18:00"},
		ReminderTimezone:     "Asia/Kolkata",
		NotificationCooldown: 0,
		WebSessionValidity:   12 * time.Hour,
		SSLMode:              "off",
		SSLAutoCertsDir:      "/tmp",
		SSLCustomCertPath:    "/ssl/cert.pem",
		SSLCustomKeyPath:     "/ssl/key.pem",
	}
	// We create a default random key for signing session tokens
	b := make([]byte, 32) // random ID
	rand.Read(b)
	defaultConfig.SigningKey = base64.URLEncoding.EncodeToString(b)

	return defaultConfig
}

func (config *Config) Verify() {
	log.Printf("Web sessions validity set to %v", config.WebSessionValidity)
	log.Printf("Daily reminders scheduled at %v (%s)", config.ReminderTimes, config.ReminderTimezone)
	if config.IdPIssuer == "" {
		log.Fatal("IDPISSUER is not set, must be the issuer URL of your identity provider")
	}
	if config.IdPAudience == "" {
		log.Fatal("IDPAUDIENCE is not set")
	}
	if config.EnableNotifications {
		if config.AdminEmail == "" {
			log.Fatal("FATAL: ENABLENOTIFICATIONS is true, so ADMINEMAIL must be set to a valid email address.")
		}
		if config.SMTPHost == "" {
			log.Fatal("FATAL: ENABLENOTIFICATIONS is true, so SMTPHOST must be set to a reachable mail relay.")
		}
		if config.VapidPrivateKey == "" || config.VapidPublicKey == "" {
			log.Printf("FATAL: ENABLENOTIFICATIONS is true, so VAPIDPRIVATEKEY and VAPIDPUBLICKEY must be defined and valid")
			log.Printf("If you have never defined them, here are some fresh values generated just for you.")
			if privateKey, publicKey, err := webpush.GenerateVAPIDKeys(); err == nil {
				log.Printf("VAPIDPUBLICKEY=\"%s\"", publicKey)
				log.Printf("VAPIDPRIVATEKEY=\"%s\"", privateKey)
			}
			log.Fatal("Add them to the environment variables. VAPIDPRIVATEKEY is sensitive, keep it secret.")
		}
		if config.EncryptionKey == "" {
			log.Fatal("ENCRYPTIONKEY is required to store push subscriptions. You can use `openssl rand -hex 16` to generate it")
		} else if len(config.EncryptionKey) != 32 {
			log.Fatal("ENCRYPTIONKEY must be 32 characters")
		}
	}
	if _, err := time.LoadLocation(config.ReminderTimezone); err != nil {
		log.Fatalf("REMINDERTIMEZONE is invalid: %s", err.Error())
	}
	for _, at := range config.ReminderTimes {
		if _, err := time.Parse("15:04", at); err != nil {
			log.Fatalf("REMINDERTIMES entry '%s' is invalid, must be HH:MM", at)
		}
	}
	config.SSLMode = strings.ToLower(config.SSLMode)
	if config.SSLMode != "off" && config.SSLMode != "auto" && config.SSLMode != "custom" && config.SSLMode != "proxy" {
		log.Fatal("SSLMODE must be one of off, auto, custom, proxy")
	}
	if config.SSLMode == "auto" && config.Domain == "" {
		log.Fatal("SSLMODE is auto, so DOMAIN must be set to the public hostname")
	}
}
