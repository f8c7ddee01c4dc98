package api

import (
	"encoding/json"
	"net/http"

	"github.com/Zrodkin/ShulPadServer-sub001/errors"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
)

// catalogHandler returns the donation preset catalog of the merchant
// connected to the device's organization.
func (a *API) catalogHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	objects, err := a.square.Catalog(r.Context(), device.OrganizationID)
	if err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			errors.ErrMerchantNotConnected.Write(w)
			return
		}
		errors.ErrSquareError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &CatalogResponse{Objects: objects})
}

// setCatalogHandler replaces the donation presets of the merchant with the
// given amounts.
func (a *API) setCatalogHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	req := &SetCatalogRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if len(req.Amounts) == 0 {
		errors.ErrInvalidAmount.Withf("at least one preset amount is required").Write(w)
		return
	}
	for _, amount := range req.Amounts {
		if amount <= 0 {
			errors.ErrInvalidAmount.Withf("amounts must be positive").Write(w)
			return
		}
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	object, err := a.square.SetDonationPresets(r.Context(), device.OrganizationID, req.Amounts, req.Currency)
	if err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			errors.ErrMerchantNotConnected.Write(w)
			return
		}
		errors.ErrSquareError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, object)
}
