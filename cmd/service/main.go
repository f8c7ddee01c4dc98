package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"

	"github.com/Zrodkin/ShulPadServer-sub001/api"
	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/notifications"
	"github.com/Zrodkin/ShulPadServer-sub001/notifications/smtp"
	"github.com/Zrodkin/ShulPadServer-sub001/notifications/twilio"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
	"github.com/Zrodkin/ShulPadServer-sub001/stripe"
	"github.com/Zrodkin/ShulPadServer-sub001/subscriptions"
)

const (
	// maintenanceInterval is how often the background housekeeping runs.
	maintenanceInterval = 6 * time.Hour
	// tokenRefreshWindow is how close to expiry a merchant token gets
	// refreshed proactively.
	tokenRefreshWindow = 72 * time.Hour
	// webhookRetention is how long processed webhook deliveries are kept
	// for idempotency checks.
	webhookRetention = 30 * 24 * time.Hour
)

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "API secret for device JWT tokens")
	flag.String("mysql-dsn", "", "MySQL DSN of the backend database")
	flag.String("server-url", "http://localhost:8080", "public base URL of this server")
	flag.String("app-scheme", "shulpad", "URL scheme of the iOS app for OAuth redirects")
	flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.String("smtp-server", "", "SMTP server for receipt emails")
	flag.Int("smtp-port", 587, "SMTP server port")
	flag.String("smtp-username", "", "SMTP username")
	flag.String("smtp-password", "", "SMTP password")
	flag.String("email-from-address", "", "sender address of receipt emails")
	flag.String("email-from-name", "ShulPad", "sender name of receipt emails")
	flag.String("twilio-account-sid", "", "Twilio account SID for SMS receipts")
	flag.String("twilio-auth-token", "", "Twilio auth token")
	flag.String("twilio-from-number", "", "Twilio sender number")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("SHULPAD")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// init logger
	log.Init(viper.GetString("log-level"), "stdout")
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	if secret == "" {
		log.Fatal("secret is required")
	}
	mysqlDSN := viper.GetString("mysql-dsn")
	if mysqlDSN == "" {
		log.Fatal("mysql-dsn is required")
	}
	// initialize the database
	database, err := db.New(mysql.Open(mysqlDSN))
	if err != nil {
		log.Fatalf("could not connect to the database: %v", err)
	}
	defer database.Close()
	// create the square service (merchant OAuth, catalog, donations)
	squareConfig := square.NewConfig()
	squareClient, err := square.NewClient(squareConfig)
	if err != nil {
		log.Fatalf("could not create the square client: %v", err)
	}
	squareService := square.NewService(squareClient, squareConfig, database,
		db.NewProviderEventStore(database, db.ProviderSquare))
	// create the stripe service (subscription billing), optional
	var stripeService *stripe.Service
	if stripeConfig := stripe.NewConfig(); stripeConfig.APIKey != "" {
		stripeService, err = stripe.NewService(stripeConfig, database,
			db.NewProviderEventStore(database, db.ProviderStripe))
		if err != nil {
			log.Fatalf("could not create the stripe service: %v", err)
		}
	} else {
		log.Warnf("stripe is not configured, billing endpoints will be unavailable")
	}
	// create the notification services, both optional
	var mailService notifications.NotificationService
	if smtpServer := viper.GetString("smtp-server"); smtpServer != "" {
		mailService = new(smtp.Email)
		if err := mailService.New(&smtp.Config{
			FromName:     viper.GetString("email-from-name"),
			FromAddress:  viper.GetString("email-from-address"),
			SMTPServer:   smtpServer,
			SMTPPort:     viper.GetInt("smtp-port"),
			SMTPUsername: viper.GetString("smtp-username"),
			SMTPPassword: viper.GetString("smtp-password"),
		}); err != nil {
			log.Fatalf("could not create the email service: %v", err)
		}
	}
	var smsService notifications.NotificationService
	if accountSid := viper.GetString("twilio-account-sid"); accountSid != "" {
		smsService = new(twilio.SMS)
		if err := smsService.New(&twilio.Config{
			AccountSid: accountSid,
			AuthToken:  viper.GetString("twilio-auth-token"),
			FromNumber: viper.GetString("twilio-from-number"),
		}); err != nil {
			log.Fatalf("could not create the SMS service: %v", err)
		}
	}
	// create the local API server
	api.New(&api.Config{
		Host:          host,
		Port:          port,
		Secret:        secret,
		DB:            database,
		Square:        squareService,
		Stripe:        stripeService,
		MailService:   mailService,
		SMSService:    smsService,
		Subscriptions: subscriptions.New(database, nil),
		AppScheme:     viper.GetString("app-scheme"),
		ServerURL:     viper.GetString("server-url"),
	}).Start()
	log.Infow("server started", "host", host, "port", port)
	// background housekeeping: proactive merchant token refresh and cleanup
	// of expired OAuth states and old webhook deliveries
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(maintenanceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := squareService.RefreshExpiring(ctx, tokenRefreshWindow); err != nil {
					log.Warnw("merchant token refresh failed", "error", err)
				} else if n > 0 {
					log.Infow("merchant tokens refreshed", "count", n)
				}
				if err := database.DeleteExpiredOAuthStates(time.Now()); err != nil {
					log.Warnw("could not delete expired oauth states", "error", err)
				}
				if err := database.PruneWebhookEvents(time.Now().Add(-webhookRetention)); err != nil {
					log.Warnw("could not prune webhook events", "error", err)
				}
			}
		}
	}()
	// wait forever, as the server is running in a goroutine
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
