package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/errors"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
)

// oauthAuthorizeHandler starts the square OAuth flow. It mints a single-use
// state bound to the organization and redirects the merchant's browser to
// the square authorization page.
func (a *API) oauthAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		errors.ErrNoOrganizationProvided.Write(w)
		return
	}
	deviceID := r.URL.Query().Get("device")
	redirectURI := r.URL.Query().Get("redirect")
	authURL, err := a.square.BeginOAuth(orgID, deviceID, redirectURI)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrOrganizationNotFound.Write(w)
			return
		}
		errors.ErrOAuthServerError.WithErr(err).Write(w)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// oauthCallbackHandler completes the square OAuth flow. Whatever the
// outcome, the merchant's browser is bounced back into the app with the
// result in the query string, so the kiosk can resume.
func (a *API) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		errors.ErrMalformedURLParam.Withf("missing state").Write(w)
		return
	}
	// the merchant declined the authorization on the square side
	if oauthErr := q.Get("error"); oauthErr != "" {
		st, err := a.db.ConsumeOAuthState(state)
		if err != nil {
			a.writeOAuthStateError(w, err)
			return
		}
		log.Warnw("square authorization denied", "org", st.OrganizationID, "error", oauthErr)
		a.redirectToApp(w, r, st, url.Values{"success": {"false"}, "error": {oauthErr}})
		return
	}
	st, conn, err := a.square.CompleteOAuth(r.Context(), state, q.Get("code"))
	if err != nil {
		if st == nil {
			a.writeOAuthStateError(w, err)
			return
		}
		log.Errorw(err, "square oauth token exchange failed")
		a.redirectToApp(w, r, st, url.Values{"success": {"false"}, "error": {"token_exchange_failed"}})
		return
	}
	a.redirectToApp(w, r, st, url.Values{
		"success":     {"true"},
		"merchant_id": {conn.MerchantID},
	})
}

// writeOAuthStateError maps state consumption failures to API errors.
func (a *API) writeOAuthStateError(w http.ResponseWriter, err error) {
	switch err {
	case db.ErrCodeExpired:
		errors.ErrOAuthStateExpired.Write(w)
	case db.ErrNotFound:
		errors.ErrOAuthStateInvalid.Write(w)
	default:
		errors.ErrInternalStorageError.WithErr(err).Write(w)
	}
}

// redirectToApp bounces the browser back into the iOS app, either to the
// redirect URI the flow started with or to the app's URL scheme.
func (a *API) redirectToApp(w http.ResponseWriter, r *http.Request, st *db.OAuthState, params url.Values) {
	target := st.RedirectURI
	if target == "" {
		target = fmt.Sprintf("%s://oauth", a.appScheme)
	}
	if st.DeviceID != "" {
		params.Set("device", st.DeviceID)
	}
	sep := "?"
	if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, target+sep+params.Encode(), http.StatusFound)
}

// oauthRefreshHandler refreshes the merchant access token of the device's
// organization.
func (a *API) oauthRefreshHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	conn, err := a.square.Connection(device.OrganizationID)
	if err != nil {
		errors.ErrMerchantNotConnected.Write(w)
		return
	}
	if err := a.square.RefreshConnection(r.Context(), conn); err != nil {
		errors.ErrOAuthServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &MerchantStatusResponse{
		Connected:  true,
		MerchantID: conn.MerchantID,
		LocationID: conn.LocationID,
		ExpiresAt:  conn.ExpiresAt,
	})
}

// oauthDisconnectHandler revokes the merchant tokens and removes the
// connection of the device's organization.
func (a *API) oauthDisconnectHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	if err := a.square.Disconnect(r.Context(), device.OrganizationID); err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			errors.ErrMerchantNotConnected.Write(w)
			return
		}
		errors.ErrOAuthServerError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// merchantStatusHandler returns the square connection status of the
// device's organization. A missing connection is a regular response, not an
// error, so the kiosk can offer the connect flow.
func (a *API) merchantStatusHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	conn, err := a.square.Connection(device.OrganizationID)
	if err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			httpWriteJSON(w, &MerchantStatusResponse{Connected: false})
			return
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &MerchantStatusResponse{
		Connected:  true,
		MerchantID: conn.MerchantID,
		LocationID: conn.LocationID,
		ExpiresAt:  conn.ExpiresAt,
	})
}
