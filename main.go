package main

import (
	"log"
	"strings"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/Erebuzzz/tea-tracker/routes"
	"github.com/Erebuzzz/tea-tracker/services"
	"github.com/asaskevich/EventBus"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	var config models.Config
	config = config.New()

	err := envconfig.Process("", &config)
	if err != nil {
		log.Fatal(err.Error())
	}
	config.Verify()

	var db *gorm.DB
	var dbErr error

	switch strings.ToLower(config.DbType) {
	case "sqlite":
		db, dbErr = gorm.Open(sqlite.Open(config.DbDSN), &gorm.Config{})
	case "postgres":
		db, dbErr = gorm.Open(postgres.Open(config.DbDSN), &gorm.Config{})
	case "mysql":
		db, dbErr = gorm.Open(mysql.Open(config.DbDSN), &gorm.Config{})
	default:
		log.Fatalf("Unknown DbType '%s'", config.DbType)
	}
	if dbErr != nil {
		log.Fatalf("Failed to connect to database: %s", dbErr)
	}

	// Migrate the schema
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to run database migrations for User model: %s", err)
	}
	if err := db.AutoMigrate(&models.Tea{}); err != nil {
		log.Fatalf("Failed to run database migrations for Tea model: %s", err)
	}
	if err := db.AutoMigrate(&models.UserSubscription{}); err != nil {
		log.Fatalf("Failed to run database migrations for UserSubscription model: %s", err)
	}

	verifier, err := services.NewIdentityVerifier(&config)
	if err != nil {
		log.Fatalf("Failed to initialize identity verifier: %s", err)
	}

	bus := EventBus.New()
	mailer := services.NewMailer(&config)

	if config.EnableNotifications {
		notifications := services.NewNotificationsManager(db, &config, mailer)
		if err := notifications.Subscribe(bus); err != nil {
			log.Fatalf("Failed to subscribe the notifications manager: %s", err)
		}

		reminders := services.NewReminderScheduler(db, &config, mailer)
		if err := reminders.Start(); err != nil {
			log.Fatalf("Failed to start the reminder scheduler: %s", err)
		}
		defer reminders.Stop()
	}

	startServer(&config, routes.New(&config, db, bus, mailer, verifier))
}
