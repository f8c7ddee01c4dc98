// Package api provides the HTTP API that the kiosk app talks to: device
// enrollment, Square OAuth and donation passthrough, Stripe billing and the
// webhook receivers of both providers.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/notifications"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
	"github.com/Zrodkin/ShulPadServer-sub001/stripe"
	"github.com/Zrodkin/ShulPadServer-sub001/subscriptions"
)

const (
	jwtExpiration = 360 * time.Hour // 15 days
	// defaultAppScheme is the URL scheme the iOS app registers for OAuth
	// round trips when no explicit redirect is provided.
	defaultAppScheme = "shulpad"
)

// Config holds the dependencies and settings of the API HTTP server.
type Config struct {
	Host   string
	Port   int
	Secret string
	DB     *db.Storage
	// Square handles merchant OAuth, catalog and donation payments.
	Square *square.Service
	// Stripe handles the app subscription billing.
	Stripe *stripe.Service
	// MailService and SMSService deliver donation receipts. Either may be
	// nil, in which case that channel is skipped.
	MailService notifications.NotificationService
	SMSService  notifications.NotificationService
	// Subscriptions resolves entitlement questions (device caps, features).
	Subscriptions *subscriptions.Subscriptions
	// AppScheme is the URL scheme used to bounce OAuth results back into
	// the iOS app.
	AppScheme string
	// ServerURL is the public base URL of this server.
	ServerURL string
}

// API type represents the API HTTP server with JWT device authentication.
type API struct {
	db            *db.Storage
	auth          *jwtauth.JWTAuth
	host          string
	port          int
	router        *chi.Mux
	square        *square.Service
	stripe        *stripe.Service
	mail          notifications.NotificationService
	sms           notifications.NotificationService
	subscriptions *subscriptions.Subscriptions
	appScheme     string
	serverURL     string
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	appScheme := conf.AppScheme
	if appScheme == "" {
		appScheme = defaultAppScheme
	}
	return &API{
		db:            conf.DB,
		auth:          jwtauth.New("HS256", []byte(conf.Secret), nil),
		host:          conf.Host,
		port:          conf.Port,
		square:        conf.Square,
		stripe:        conf.Stripe,
		mail:          conf.MailService,
		sms:           conf.SMSService,
		subscriptions: conf.Subscriptions,
		appScheme:     appScheme,
		serverURL:     conf.ServerURL,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))

	// protected routes
	r.Group(func(r chi.Router) {
		// seek, verify and validate JWT tokens
		r.Use(jwtauth.Verifier(a.auth))
		// handle valid JWT tokens
		r.Use(a.authenticator)
		// device heartbeat
		log.Infow("new route", "method", "POST", "path", devicesHeartbeatEndpoint)
		r.Post(devicesHeartbeatEndpoint, a.deviceHeartbeatHandler)
		// refresh the merchant access token
		log.Infow("new route", "method", "POST", "path", oauthRefreshEndpoint)
		r.Post(oauthRefreshEndpoint, a.oauthRefreshHandler)
		// disconnect the merchant account
		log.Infow("new route", "method", "DELETE", "path", oauthDisconnectEndpoint)
		r.Delete(oauthDisconnectEndpoint, a.oauthDisconnectHandler)
		// merchant connection status
		log.Infow("new route", "method", "GET", "path", merchantEndpoint)
		r.Get(merchantEndpoint, a.merchantStatusHandler)
		// donation preset catalog
		log.Infow("new route", "method", "GET", "path", catalogEndpoint)
		r.Get(catalogEndpoint, a.catalogHandler)
		log.Infow("new route", "method", "POST", "path", catalogEndpoint)
		r.Post(catalogEndpoint, a.setCatalogHandler)
		// create a donation order
		log.Infow("new route", "method", "POST", "path", ordersEndpoint)
		r.Post(ordersEndpoint, a.createOrderHandler)
		// charge a donation payment
		log.Infow("new route", "method", "POST", "path", paymentsEndpoint)
		r.Post(paymentsEndpoint, a.createPaymentHandler)
		// local subscription state
		log.Infow("new route", "method", "GET", "path", subscriptionEndpoint)
		r.Get(subscriptionEndpoint, a.subscriptionHandler)
		// handle stripe checkout session
		log.Infow("new route", "method", "POST", "path", subscriptionsCheckout)
		r.Post(subscriptionsCheckout, a.createSubscriptionCheckoutHandler)
		// get stripe subscription portal session info
		log.Infow("new route", "method", "GET", "path", subscriptionsPortal)
		r.Get(subscriptionsPortal, a.createSubscriptionPortalSessionHandler)
		// promo codes
		log.Infow("new route", "method", "POST", "path", promoCodesValidateEndpoint)
		r.Post(promoCodesValidateEndpoint, a.validatePromoCodeHandler)
		log.Infow("new route", "method", "POST", "path", promoCodesRedeemEndpoint)
		r.Post(promoCodesRedeemEndpoint, a.redeemPromoCodeHandler)
	})

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Warnw("failed to write ping response", "error", err)
			}
		})
		// register a kiosk device
		log.Infow("new route", "method", "POST", "path", devicesEndpoint)
		r.Post(devicesEndpoint, a.registerDeviceHandler)
		// start the square OAuth flow (opened in the merchant's browser)
		log.Infow("new route", "method", "GET", "path", oauthAuthorizeEndpoint)
		r.Get(oauthAuthorizeEndpoint, a.oauthAuthorizeHandler)
		// square OAuth callback
		log.Infow("new route", "method", "GET", "path", oauthCallbackEndpoint)
		r.Get(oauthCallbackEndpoint, a.oauthCallbackHandler)
		// get stripe checkout session info
		log.Infow("new route", "method", "GET", "path", subscriptionsCheckoutSession)
		r.Get(subscriptionsCheckoutSession, a.checkoutSessionHandler)
		// handle square webhook
		log.Infow("new route", "method", "POST", "path", squareWebhookEndpoint)
		r.Post(squareWebhookEndpoint, a.squareWebhookHandler)
		// handle stripe webhook
		log.Infow("new route", "method", "POST", "path", stripeWebhookEndpoint)
		r.Post(stripeWebhookEndpoint, a.stripeWebhookHandler)
	})
	a.router = r
	return r
}
