package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/errors"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
)

// registerDeviceHandler enrolls a kiosk device for an organization and
// returns the JWT token the device authenticates with. Re-registering an
// already active device refreshes its token without consuming a device slot.
func (a *API) registerDeviceHandler(w http.ResponseWriter, r *http.Request) {
	req := &DeviceRegistrationRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.DeviceID == "" || req.OrganizationID == "" {
		errors.ErrInvalidDeviceData.Withf("deviceId and organizationId are required").Write(w)
		return
	}
	if _, err := a.db.Organization(req.OrganizationID); err != nil {
		if err == db.ErrNotFound {
			errors.ErrOrganizationNotFound.Write(w)
			return
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	// an active device of the same organization only renews its token
	existing, err := a.db.DeviceRegistration(req.DeviceID)
	renewal := err == nil && existing.Active && existing.OrganizationID == req.OrganizationID
	if !renewal {
		ok, err := a.subscriptions.CanRegisterDevice(req.OrganizationID)
		if err != nil {
			errors.ErrInternalStorageError.WithErr(err).Write(w)
			return
		}
		if !ok {
			errors.ErrDeviceLimitReached.Write(w)
			return
		}
	}
	device := &db.DeviceRegistration{
		DeviceID:       req.DeviceID,
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Platform:       req.Platform,
		AppVersion:     req.AppVersion,
		Active:         true,
		LastSeenAt:     time.Now(),
	}
	if err := a.db.SetDeviceRegistration(device); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	res, err := a.buildDeviceToken(device.DeviceID)
	if err != nil {
		errors.ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	res.Device = device
	log.Infow("kiosk device registered",
		"device", device.DeviceID,
		"org", device.OrganizationID,
		"renewal", renewal)
	httpWriteJSON(w, res)
}

// deviceHeartbeatHandler updates the last seen timestamp of the
// authenticated device.
func (a *API) deviceHeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	if err := a.db.TouchDevice(device.DeviceID, time.Now()); err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}
