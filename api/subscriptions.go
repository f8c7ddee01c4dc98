package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/errors"
	"github.com/Zrodkin/ShulPadServer-sub001/internal"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/stripe"
)

// subscriptionHandler returns the local subscription state of the device's
// organization together with the entitlements derived from it. A missing
// subscription is a regular response so the kiosk can offer checkout.
func (a *API) subscriptionHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	orgID := device.OrganizationID
	res := &SubscriptionStatusResponse{}
	sub, err := a.subscriptions.Active(orgID)
	if err != nil && err != db.ErrNotFound {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if sub != nil {
		res.Entitled = sub.Status.Entitled()
		res.Subscription = sub
	}
	if res.MaxDevices, err = a.subscriptions.MaxDevices(orgID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if res.Features, err = a.subscriptions.Features(orgID); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	if res.Events, err = a.db.SubscriptionEvents(orgID, 20); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

// createSubscriptionCheckoutHandler creates a stripe checkout session for
// the device's organization.
func (a *API) createSubscriptionCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		errors.ErrStripeError.Withf("stripe service not available").Write(w)
		return
	}
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	checkout := &SubscriptionCheckout{}
	if err := json.NewDecoder(r.Body).Decode(checkout); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if checkout.PlanID == "" {
		errors.ErrInvalidPlan.Withf("planId is required").Write(w)
		return
	}
	if checkout.Email != "" && !internal.ValidEmail(checkout.Email) {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	period := db.BillingPeriod(checkout.BillingPeriod)
	if period == "" {
		period = db.BillingPeriodMonthly
	}
	session, err := a.stripe.CreateSubscriptionCheckout(
		device.OrganizationID,
		checkout.PlanID,
		period,
		checkout.Email,
		checkout.Locale,
		checkout.Quantity,
	)
	if err != nil {
		switch {
		case stripe.IsStripeErrorCode(err, stripe.ErrCodePlanNotFound):
			errors.ErrInvalidPlan.WithErr(err).Write(w)
		case stripe.IsStripeErrorCode(err, stripe.ErrCodeOrgNotFound):
			errors.ErrOrganizationNotFound.Write(w)
		default:
			log.Errorw(err, "failed to create checkout session")
			errors.ErrStripeError.Withf("cannot create session: %v", err).Write(w)
		}
		return
	}
	data := &struct {
		ClientSecret string `json:"clientSecret"`
		SessionID    string `json:"sessionId"`
	}{
		ClientSecret: session.ClientSecret,
		SessionID:    session.ID,
	}
	httpWriteJSON(w, data)
}

// checkoutSessionHandler returns the status of a stripe checkout session.
// Public so the post-checkout return page can poll it before the app has a
// device token.
func (a *API) checkoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		errors.ErrStripeError.Withf("stripe service not available").Write(w)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		errors.ErrMalformedURLParam.Withf("missing sessionID").Write(w)
		return
	}
	status, err := a.stripe.GetCheckoutSession(sessionID)
	if err != nil {
		errors.ErrStripeError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, status)
}

// createSubscriptionPortalSessionHandler creates a stripe billing portal
// session so the organization can manage its subscription.
func (a *API) createSubscriptionPortalSessionHandler(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		errors.ErrStripeError.Withf("stripe service not available").Write(w)
		return
	}
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	session, err := a.stripe.CreatePortalSession(device.OrganizationID, r.URL.Query().Get("return_url"))
	if err != nil {
		if stripe.IsStripeErrorCode(err, stripe.ErrCodeOrgNotFound) {
			errors.ErrOrganizationNotFound.Write(w)
			return
		}
		errors.ErrStripeError.WithErr(err).Write(w)
		return
	}
	data := &struct {
		PortalURL string `json:"portalURL"`
	}{
		PortalURL: session.URL,
	}
	httpWriteJSON(w, data)
}
