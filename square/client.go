package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a typed HTTP client for the subset of the Square API the backend
// uses: OAuth, locations, catalog, orders, payments and subscriptions.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Square API client.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, NewSquareError(ErrCodeInvalidConfig, "invalid square configuration", err)
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// errorResponse is the envelope Square wraps errors in.
type errorResponse struct {
	Errors []apiErrorDetail `json:"errors"`
}

// do performs an authenticated JSON request against the Square API and
// decodes the response into out (which may be nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewSquareError(ErrCodeAPICall, "failed to encode request body", err)
		}
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL()+path, reqBody)
	if err != nil {
		return NewSquareError(ErrCodeAPICall, "failed to build request", err)
	}
	req.Header.Set("Square-Version", squareVersion)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewSquareError(ErrCodeAPICall, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return NewSquareError(ErrCodeAPICall, "failed to read response", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && len(apiErr.Errors) > 0 {
			first := apiErr.Errors[0]
			return NewSquareError(ErrCodeAPICall,
				fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode),
				fmt.Errorf("%s/%s: %s", first.Category, first.Code, first.Detail))
		}
		return NewSquareError(ErrCodeAPICall,
			fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), nil)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return NewSquareError(ErrCodeAPICall, "failed to decode response", err)
		}
	}
	return nil
}

// AuthorizeURL builds the URL the merchant's browser is sent to for the
// OAuth authorization step.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.config.ApplicationID)
	q.Set("scope", c.config.OAuthScopes)
	q.Set("session", "false")
	q.Set("state", state)
	if c.config.RedirectURL != "" {
		q.Set("redirect_uri", c.config.RedirectURL)
	}
	return c.config.BaseURL() + "/oauth2/authorize?" + q.Encode()
}

// ObtainToken exchanges an authorization code for access and refresh tokens.
func (c *Client) ObtainToken(ctx context.Context, code string) (*TokenResponse, error) {
	body := map[string]string{
		"client_id":     c.config.ApplicationID,
		"client_secret": c.config.ApplicationSecret,
		"code":          code,
		"grant_type":    "authorization_code",
		"redirect_uri":  c.config.RedirectURL,
	}
	var token TokenResponse
	if err := c.do(ctx, http.MethodPost, "/oauth2/token", "", body, &token); err != nil {
		return nil, NewSquareError(ErrCodeOAuth, "token exchange failed", err)
	}
	if token.AccessToken == "" || token.MerchantID == "" {
		return nil, NewSquareError(ErrCodeOAuth, "token response missing fields", nil)
	}
	return &token, nil
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body := map[string]string{
		"client_id":     c.config.ApplicationID,
		"client_secret": c.config.ApplicationSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	}
	var token TokenResponse
	if err := c.do(ctx, http.MethodPost, "/oauth2/token", "", body, &token); err != nil {
		return nil, NewSquareError(ErrCodeOAuth, "token refresh failed", err)
	}
	return &token, nil
}

// RevokeToken revokes the merchant's authorization. Square expects the
// application secret in a "Client" authorization header for this call.
func (c *Client) RevokeToken(ctx context.Context, merchantID string) error {
	body := map[string]string{
		"client_id":   c.config.ApplicationID,
		"merchant_id": merchantID,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return NewSquareError(ErrCodeOAuth, "failed to encode revoke request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL()+"/oauth2/revoke", bytes.NewReader(payload))
	if err != nil {
		return NewSquareError(ErrCodeOAuth, "failed to build revoke request", err)
	}
	req.Header.Set("Square-Version", squareVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Client "+c.config.ApplicationSecret)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewSquareError(ErrCodeOAuth, "revoke request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return NewSquareError(ErrCodeOAuth,
			fmt.Sprintf("revoke returned %d", resp.StatusCode), nil)
	}
	return nil
}

// ListLocations returns the merchant's locations.
func (c *Client) ListLocations(ctx context.Context, token string) ([]Location, error) {
	var out struct {
		Locations []Location `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/locations", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// MainLocation returns the first active location of the merchant, which the
// kiosk uses for its orders and payments.
func (c *Client) MainLocation(ctx context.Context, token string) (*Location, error) {
	locations, err := c.ListLocations(ctx, token)
	if err != nil {
		return nil, err
	}
	for _, loc := range locations {
		if loc.Status == "ACTIVE" {
			return &loc, nil
		}
	}
	return nil, NewSquareError(ErrCodeAPICall, "merchant has no active location", nil)
}

// ListCatalog returns the merchant's catalog objects of the given types,
// e.g. "ITEM,ITEM_VARIATION".
func (c *Client) ListCatalog(ctx context.Context, token, types string) ([]CatalogObject, error) {
	path := "/v2/catalog/list"
	if types != "" {
		path += "?types=" + url.QueryEscape(types)
	}
	var out struct {
		Objects []CatalogObject `json:"objects"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

// UpsertCatalogObject creates or updates a catalog object.
func (c *Client) UpsertCatalogObject(ctx context.Context, token, idempotencyKey string, object *CatalogObject) (*CatalogObject, error) {
	body := map[string]any{
		"idempotency_key": idempotencyKey,
		"object":          object,
	}
	var out struct {
		CatalogObject *CatalogObject `json:"catalog_object"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/catalog/object", token, body, &out); err != nil {
		return nil, err
	}
	return out.CatalogObject, nil
}

// CreateOrder creates an order at the merchant's location.
func (c *Client) CreateOrder(ctx context.Context, token, idempotencyKey string, order *Order) (*Order, error) {
	body := map[string]any{
		"idempotency_key": idempotencyKey,
		"order":           order,
	}
	var out struct {
		Order *Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/orders", token, body, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// CreatePayment charges a payment source (a card nonce from the app).
func (c *Client) CreatePayment(ctx context.Context, token string, req *CreatePaymentRequest) (*Payment, error) {
	var out struct {
		Payment *Payment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/payments", token, req, &out); err != nil {
		return nil, err
	}
	return out.Payment, nil
}

// RetrieveSubscription fetches a subscription object.
func (c *Client) RetrieveSubscription(ctx context.Context, token, subscriptionID string) (*Subscription, error) {
	var out struct {
		Subscription *Subscription `json:"subscription"`
	}
	path := "/v2/subscriptions/" + url.PathEscape(subscriptionID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

// CancelSubscription schedules a subscription cancellation at the end of the
// current billing cycle.
func (c *Client) CancelSubscription(ctx context.Context, token, subscriptionID string) (*Subscription, error) {
	var out struct {
		Subscription *Subscription `json:"subscription"`
	}
	path := "/v2/subscriptions/" + url.PathEscape(subscriptionID) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}
