package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Zrodkin/ShulPadServer-sub001/errors"
	"github.com/Zrodkin/ShulPadServer-sub001/internal"
	"github.com/Zrodkin/ShulPadServer-sub001/internal/log"
	"github.com/Zrodkin/ShulPadServer-sub001/notifications"
	"github.com/Zrodkin/ShulPadServer-sub001/square"
	"github.com/Zrodkin/ShulPadServer-sub001/subscriptions"
)

// createOrderHandler creates an unpaid donation order for the merchant
// connected to the device's organization.
func (a *API) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	req := &OrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.Amount <= 0 {
		errors.ErrInvalidAmount.Write(w)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	order, err := a.square.CreateDonationOrder(r.Context(), device.OrganizationID, req.Amount, req.Currency, req.Note)
	if err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			errors.ErrMerchantNotConnected.Write(w)
			return
		}
		errors.ErrSquareError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, order)
}

// createPaymentHandler charges a kiosk donation and, when the donor left
// contact details, sends a receipt. Receipt delivery is best effort and
// never fails the payment response.
func (a *API) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	device, ok := deviceFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	req := &PaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.SourceID == "" {
		errors.ErrMalformedBody.Withf("sourceId is required").Write(w)
		return
	}
	if req.Amount <= 0 {
		errors.ErrInvalidAmount.Write(w)
		return
	}
	if req.DonorEmail != "" && !internal.ValidEmail(req.DonorEmail) {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	payment, err := a.square.CreateDonationPayment(r.Context(), device.OrganizationID, &square.DonationRequest{
		SourceID:   req.SourceID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		DonorEmail: req.DonorEmail,
		Note:       req.Note,
	})
	if err != nil {
		if square.IsSquareErrorCode(err, square.ErrCodeNotConnected) {
			errors.ErrMerchantNotConnected.Write(w)
			return
		}
		errors.ErrSquareError.WithErr(err).Write(w)
		return
	}
	a.sendDonationReceipt(r.Context(), device.OrganizationID, req, payment)
	httpWriteJSON(w, payment)
}

// sendDonationReceipt sends a donation receipt to the donor via email and,
// when the plan includes it, via SMS. Failures are only logged.
func (a *API) sendDonationReceipt(ctx context.Context, orgID string, req *PaymentRequest, payment *square.Payment) {
	if req.DonorEmail == "" && req.DonorPhone == "" {
		return
	}
	orgName := ""
	if org, err := a.db.Organization(orgID); err == nil {
		orgName = org.Name
	}
	data := notifications.ReceiptData{
		OrgName:    orgName,
		Amount:     payment.AmountMoney.Amount,
		Currency:   payment.AmountMoney.Currency,
		DonatedAt:  time.Now(),
		ReceiptURL: payment.ReceiptURL,
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	if req.DonorEmail != "" && a.mail != nil {
		n, err := notifications.BuildEmailReceipt(req.DonorEmail, data)
		if err == nil {
			err = a.mail.SendNotification(ctx, n)
		}
		if err != nil {
			log.Warnw("failed to send email receipt", "org", orgID, "error", err)
		}
	}
	if req.DonorPhone != "" && a.sms != nil {
		allowed, err := a.subscriptions.HasFeature(orgID, subscriptions.FeatureSMSReceipts)
		if err != nil || !allowed {
			return
		}
		n, err := notifications.BuildSMSReceipt(req.DonorPhone, data)
		if err == nil {
			err = a.sms.SendNotification(ctx, n)
		}
		if err != nil {
			log.Warnw("failed to send sms receipt", "org", orgID, "error", err)
		}
	}
}
