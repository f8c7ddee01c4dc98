package api

const (
	// device routes

	// POST /devices to register a kiosk device and get a JWT token
	devicesEndpoint = "/devices"
	// POST /devices/heartbeat to report the device is alive
	devicesHeartbeatEndpoint = "/devices/heartbeat"

	// square OAuth routes

	// GET /oauth/authorize to start the merchant OAuth flow
	oauthAuthorizeEndpoint = "/oauth/authorize"
	// GET /oauth/callback to complete the merchant OAuth flow
	oauthCallbackEndpoint = "/oauth/callback"
	// POST /oauth/refresh to refresh the merchant access token
	oauthRefreshEndpoint = "/oauth/refresh"
	// DELETE /oauth/disconnect to revoke and remove the merchant connection
	oauthDisconnectEndpoint = "/oauth/disconnect"
	// GET /merchant to get the merchant connection status
	merchantEndpoint = "/merchant"

	// donation routes

	// GET|POST /catalog to read or replace the donation presets
	catalogEndpoint = "/catalog"
	// POST /orders to create a donation order
	ordersEndpoint = "/orders"
	// POST /payments to charge a donation payment
	paymentsEndpoint = "/payments"

	// billing routes

	// GET /subscription to get the local subscription state
	subscriptionEndpoint = "/subscription"
	// POST /subscriptions/checkout to create a stripe checkout session
	subscriptionsCheckout = "/subscriptions/checkout"
	// GET /subscriptions/checkout/{sessionID} to get a checkout session status
	subscriptionsCheckoutSession = "/subscriptions/checkout/{sessionID}"
	// GET /subscriptions/portal to create a billing portal session
	subscriptionsPortal = "/subscriptions/portal"
	// POST /promocodes/validate to check a promo code
	promoCodesValidateEndpoint = "/promocodes/validate"
	// POST /promocodes/redeem to consume a promo code redemption
	promoCodesRedeemEndpoint = "/promocodes/redeem"

	// webhook routes

	// POST /webhooks/square to receive square webhook events
	squareWebhookEndpoint = "/webhooks/square"
	// POST /webhooks/stripe to receive stripe webhook events
	stripeWebhookEndpoint = "/webhooks/stripe"
)
