package api

import (
	"encoding/json"
	"net/http"

	"github.com/Zrodkin/ShulPadServer-sub001/db"
	"github.com/Zrodkin/ShulPadServer-sub001/errors"
)

// validatePromoCodeHandler checks a promo code without consuming a
// redemption, so the kiosk can show the discount before checkout.
func (a *API) validatePromoCodeHandler(w http.ResponseWriter, r *http.Request) {
	req := &PromoCodeRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	code, err := a.db.ValidatePromoCode(req.Code)
	if err != nil {
		a.writePromoCodeError(w, err)
		return
	}
	httpWriteJSON(w, &PromoCodeResponse{
		Code:       code.Code,
		PercentOff: code.PercentOff,
		FreeDays:   code.FreeDays,
		ExpiresAt:  code.ExpiresAt,
	})
}

// redeemPromoCodeHandler consumes one redemption of a promo code.
func (a *API) redeemPromoCodeHandler(w http.ResponseWriter, r *http.Request) {
	req := &PromoCodeRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	code, err := a.db.RedeemPromoCode(req.Code)
	if err != nil {
		a.writePromoCodeError(w, err)
		return
	}
	httpWriteJSON(w, &PromoCodeResponse{
		Code:       code.Code,
		PercentOff: code.PercentOff,
		FreeDays:   code.FreeDays,
		ExpiresAt:  code.ExpiresAt,
	})
}

func (a *API) writePromoCodeError(w http.ResponseWriter, err error) {
	switch err {
	case db.ErrNotFound:
		errors.ErrPromoCodeNotFound.Write(w)
	case db.ErrCodeExpired:
		errors.ErrPromoCodeExpired.Write(w)
	case db.ErrCodeExhausted:
		errors.ErrPromoCodeExhausted.Write(w)
	default:
		errors.ErrInternalStorageError.WithErr(err).Write(w)
	}
}
