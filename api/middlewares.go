package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/errors"
)

type contextKey int

// deviceMetadataKey is the context key under which the authenticated device
// registration is stored.
const deviceMetadataKey contextKey = iota

// authenticator is a middleware that authenticates the kiosk device. It
// decodes the device identifier from the JWT token, loads the registration
// from the database, and adds it to the request context for the handlers.
func (a *API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			errors.ErrUnauthorized.Write(w)
			return
		}
		if token == nil || jwt.Validate(token, jwt.WithRequiredClaim("deviceId")) != nil {
			errors.ErrUnauthorized.Withf("deviceId claim not found in JWT token").Write(w)
			return
		}
		// retrieve the device registration from the database
		deviceID := claims["deviceId"].(string)
		device, err := a.db.DeviceRegistration(deviceID)
		if err != nil {
			if err == db.ErrNotFound {
				errors.ErrUnauthorized.Withf("device not registered").Write(w)
				return
			}
			errors.ErrGenericInternalServerError.Withf("could not retrieve device from database: %v", err).Write(w)
			return
		}
		if !device.Active {
			errors.ErrUnauthorized.Withf("device deactivated").Write(w)
			return
		}
		// add the device to the context and pass it to the next handler
		ctx := context.WithValue(r.Context(), deviceMetadataKey, *device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceFromContext returns the authenticated device registration stored in
// the request context by the authenticator middleware.
func deviceFromContext(ctx context.Context) (*db.DeviceRegistration, bool) {
	device, ok := ctx.Value(deviceMetadataKey).(db.DeviceRegistration)
	if !ok {
		return nil, false
	}
	return &device, true
}
